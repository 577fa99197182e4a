// Package content defines the feed item: an opaque upstream row plus the
// link-derived fields added by normalization.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// JSON keys of the derived fields. Row columns with the same names are shadowed on output.
const (
	KeyExternalVideoID = "externalVideoId"
	KeyCleanImageURL   = "cleanImageUrl"
	KeyCleanLinkURL    = "cleanLinkUrl"
)

// Item is one feed entry. Fields holds the upstream row as fetched and is never
// modified; derived values live beside it.
type Item struct {
	Fields          map[string]any
	ExternalVideoID *string
	CleanImageURL   *string
	CleanLinkURL    *string

	normalized bool
}

// New wraps an upstream row.
func New(fields map[string]any) Item {
	if fields == nil {
		fields = map[string]any{}
	}
	return Item{Fields: fields}
}

// Normalized reports whether derived fields have been computed (possibly as null).
func (it Item) Normalized() bool { return it.normalized }

// WithDerived returns a copy of it carrying the given derived values. A nil value
// means "could not be derived" and is rendered as JSON null.
func (it Item) WithDerived(videoID, imageURL, linkURL *string) Item {
	it.ExternalVideoID = videoID
	it.CleanImageURL = imageURL
	it.CleanLinkURL = linkURL
	it.normalized = true
	return it
}

// Text returns the named field as a trimmed string, or "" when absent or null.
func (it Item) Text(field string) string {
	v, ok := it.Fields[field]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case []byte:
		return strings.TrimSpace(string(s))
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Key returns the row identity under the primary key column.
func (it Item) Key(primaryKey string) string {
	return it.Text(primaryKey)
}

// Map flattens the item into the wire shape: row columns plus derived keys.
func (it Item) Map() map[string]any {
	out := make(map[string]any, len(it.Fields)+3)
	maps.Copy(out, it.Fields)
	if it.normalized {
		out[KeyExternalVideoID] = it.ExternalVideoID
		out[KeyCleanImageURL] = it.CleanImageURL
		out[KeyCleanLinkURL] = it.CleanLinkURL
	}
	return out
}

func (it Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(it.Map())
}

// UnmarshalJSON accepts the wire shape back. Presence of any derived key marks
// the item as already normalized.
func (it *Item) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode item: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	*it = Item{}
	for _, key := range []string{KeyExternalVideoID, KeyCleanImageURL, KeyCleanLinkURL} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		it.normalized = true
		delete(raw, key)
		s, isString := v.(string)
		if !isString || s == "" {
			continue
		}
		switch key {
		case KeyExternalVideoID:
			it.ExternalVideoID = &s
		case KeyCleanImageURL:
			it.CleanImageURL = &s
		case KeyCleanLinkURL:
			it.CleanLinkURL = &s
		}
	}
	it.Fields = raw
	return nil
}

// StringPtr returns nil for "", otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
