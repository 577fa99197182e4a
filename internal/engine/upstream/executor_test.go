package upstream

import (
	"context"
	"errors"
	"testing"
)

// scriptedStore answers each call with the next scripted response.
type scriptedStore struct {
	responses []scripted
	calls     []QueryDescriptor
}

type scripted struct {
	rows  []Row
	err   error
	panic bool
}

func (s *scriptedStore) Query(_ context.Context, q QueryDescriptor) ([]Row, error) {
	i := len(s.calls)
	s.calls = append(s.calls, q)
	if i >= len(s.responses) {
		return nil, nil
	}
	r := s.responses[i]
	if r.panic {
		panic("driver exploded")
	}
	return r.rows, r.err
}

func chain(n int) []QueryDescriptor {
	out := make([]QueryDescriptor, n)
	for i := range out {
		out[i] = QueryDescriptor{Name: string(rune('a' + i)), Table: "t"}
	}
	return out
}

func TestExecuteOnlyThirdReturnsRows(t *testing.T) {
	want := []Row{{"id": 1}, {"id": 2}}
	store := &scriptedStore{responses: []scripted{
		{err: errors.New("column published does not exist")},
		{rows: nil},
		{rows: want},
	}}

	res := NewExecutor(store).Execute(context.Background(), chain(3))

	if res.Attempts != 3 || len(store.calls) != 3 {
		t.Fatalf("attempts = %d, calls = %d, want 3", res.Attempts, len(store.calls))
	}
	if res.Winner != 2 {
		t.Errorf("winner = %d, want 2", res.Winner)
	}
	if len(res.Rows) != 2 || res.Rows[0]["id"] != 1 || res.Rows[1]["id"] != 2 {
		t.Errorf("rows = %v, want %v", res.Rows, want)
	}
	if res.Failed() {
		t.Error("chain with a winner must not be failed")
	}
}

func TestExecuteStopsAtFirstNonEmpty(t *testing.T) {
	store := &scriptedStore{responses: []scripted{
		{rows: []Row{{"id": "first"}}},
		{rows: []Row{{"id": "second"}}},
	}}
	res := NewExecutor(store).Execute(context.Background(), chain(2))
	if len(store.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(store.calls))
	}
	if len(res.Rows) != 1 || res.Rows[0]["id"] != "first" {
		t.Errorf("rows = %v", res.Rows)
	}
}

func TestExecuteAllEmptyIsNotFailure(t *testing.T) {
	store := &scriptedStore{responses: []scripted{{}, {err: errors.New("boom")}, {}}}
	res := NewExecutor(store).Execute(context.Background(), chain(3))
	if len(res.Rows) != 0 {
		t.Errorf("rows = %v, want none", res.Rows)
	}
	if res.Failed() {
		t.Error("an empty answer among errors is not a failure")
	}
	if res.Winner != -1 {
		t.Errorf("winner = %d, want -1", res.Winner)
	}
}

func TestExecuteAllErrorsIsFailure(t *testing.T) {
	store := &scriptedStore{responses: []scripted{
		{err: errors.New("e1")},
		{panic: true},
	}}
	res := NewExecutor(store).Execute(context.Background(), chain(2))
	if !res.Failed() {
		t.Fatal("expected failed result")
	}
	if len(res.Errs) != 2 {
		t.Errorf("errs = %d, want 2", len(res.Errs))
	}
	if res.Err() == nil {
		t.Error("expected joined error")
	}
}

func TestExecuteNoDescriptors(t *testing.T) {
	res := NewExecutor(&scriptedStore{}).Execute(context.Background(), nil)
	if res.Attempts != 0 || res.Failed() || len(res.Rows) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestExecuteContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := &scriptedStore{}
	res := NewExecutor(store).Execute(ctx, chain(3))
	if len(store.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(store.calls))
	}
	if !res.Failed() || !errors.Is(res.Err(), context.Canceled) {
		t.Errorf("expected canceled failure, got %+v", res)
	}
}
