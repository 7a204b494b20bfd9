package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nibzard/tasklist/internal/todo"
)

// stubSource returns a fixed batch or error and counts calls.
type stubSource struct {
	items []Item
	err   error
	calls int
	check func()
}

func (s *stubSource) Fetch(context.Context) ([]Item, error) {
	s.calls++
	if s.check != nil {
		s.check()
	}
	return s.items, s.err
}

func newSyncer(store *todo.Store, src Source) *Syncer {
	return NewSyncer(store, src, NewSession(time.Minute), nil)
}

func TestFetchOnceMergesNewTasks(t *testing.T) {
	store := todo.NewStore([]todo.Task{{ID: 1, Text: "Buy milk"}})
	src := &stubSource{items: []Item{{ID: 10, Title: "Call dentist"}}}
	s := newSyncer(store, src)
	defer s.Session().Close()

	res := s.FetchOnce(context.Background())
	if res.Outcome != OutcomeMerged || res.Added != 1 {
		t.Fatalf("result: got %+v", res)
	}

	got := store.Tasks()
	want := []todo.Task{
		{ID: 1, Text: "Buy milk"},
		{ID: 10, Text: "Call dentist", Done: false},
	}
	if len(got) != len(want) {
		t.Fatalf("tasks: got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("task %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
	if !s.Session().Fetched() {
		t.Error("Fetched: got false after merge")
	}
	if s.Session().Pending() {
		t.Error("Pending: got true after fetch completed")
	}
	if st := s.Session().Status(); st != "" {
		t.Errorf("Status: got %q, want none", st)
	}
}

func TestFetchOnceDeduplicatesByID(t *testing.T) {
	store := todo.NewStore([]todo.Task{{ID: 1, Text: "local one"}, {ID: 2, Text: "local two", Done: true}})
	src := &stubSource{items: []Item{{ID: 1, Title: "remote one"}, {ID: 3, Title: "remote three"}}}
	s := newSyncer(store, src)
	defer s.Session().Close()

	res := s.FetchOnce(context.Background())
	if res.Added != 1 {
		t.Fatalf("Added: got %d, want 1", res.Added)
	}

	got := store.Tasks()
	if len(got) != 3 {
		t.Fatalf("tasks: got %+v", got)
	}
	if got[0].Text != "local one" {
		t.Errorf("local task overwritten: %+v", got[0])
	}
	if got[2] != (todo.Task{ID: 3, Text: "remote three"}) {
		t.Errorf("appended task: got %+v", got[2])
	}
}

func TestFetchOnceAlreadyFetched(t *testing.T) {
	store := todo.NewStore(nil)
	src := &stubSource{items: []Item{{ID: 10, Title: "Call dentist"}}}
	s := newSyncer(store, src)
	defer s.Session().Close()

	s.FetchOnce(context.Background())
	res := s.FetchOnce(context.Background())

	if res.Outcome != OutcomeAlreadyFetched {
		t.Errorf("Outcome: got %s, want %s", res.Outcome, OutcomeAlreadyFetched)
	}
	if src.calls != 1 {
		t.Errorf("source calls: got %d, want 1", src.calls)
	}
	if store.Len() != 1 {
		t.Errorf("Len: got %d, want 1", store.Len())
	}
	if st := s.Session().Status(); st != MsgAlreadyFetched {
		t.Errorf("Status: got %q, want %q", st, MsgAlreadyFetched)
	}
}

func TestFetchOnceNothingNewAllowsRetry(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
	}{
		{"empty batch", nil},
		{"all known", []Item{{ID: 1, Title: "dup"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := todo.NewStore([]todo.Task{{ID: 1, Text: "Buy milk"}})
			src := &stubSource{items: tt.items}
			s := newSyncer(store, src)
			defer s.Session().Close()

			res := s.FetchOnce(context.Background())
			if res.Outcome != OutcomeNothingNew {
				t.Fatalf("Outcome: got %s, want %s", res.Outcome, OutcomeNothingNew)
			}
			if st := s.Session().Status(); st != MsgNoNewTasks {
				t.Errorf("Status: got %q, want %q", st, MsgNoNewTasks)
			}
			if s.Session().Fetched() {
				t.Error("Fetched: got true, want false so a retry can run")
			}

			s.FetchOnce(context.Background())
			if src.calls != 2 {
				t.Errorf("source calls: got %d, want 2", src.calls)
			}
		})
	}
}

func TestFetchOnceFailure(t *testing.T) {
	store := todo.NewStore([]todo.Task{{ID: 1, Text: "Buy milk"}})
	src := &stubSource{err: &FetchError{URL: "http://example.invalid", Err: errors.New("boom")}}
	s := newSyncer(store, src)
	defer s.Session().Close()

	res := s.FetchOnce(context.Background())
	if res.Outcome != OutcomeFailed || res.Err == nil {
		t.Fatalf("result: got %+v", res)
	}
	if st := s.Session().Status(); st != MsgFetchFailed {
		t.Errorf("Status: got %q, want %q", st, MsgFetchFailed)
	}
	if store.Len() != 1 {
		t.Errorf("store changed on failure: %+v", store.Tasks())
	}
	if s.Session().Fetched() || s.Session().Pending() {
		t.Errorf("session: fetched=%v pending=%v, want both false",
			s.Session().Fetched(), s.Session().Pending())
	}

	src.err = nil
	src.items = []Item{{ID: 2, Title: "retry works"}}
	if res := s.FetchOnce(context.Background()); res.Outcome != OutcomeMerged {
		t.Errorf("retry Outcome: got %s, want %s", res.Outcome, OutcomeMerged)
	}
}

func TestFetchOncePendingDuringFetch(t *testing.T) {
	store := todo.NewStore(nil)
	s := newSyncer(store, nil)
	defer s.Session().Close()

	s.Session().SetStatus(MsgFetchFailed)
	src := &stubSource{items: []Item{{ID: 5, Title: "x"}}}
	src.check = func() {
		if !s.Session().Pending() {
			t.Error("Pending: got false during fetch")
		}
		if st := s.Session().Status(); st != "" {
			t.Errorf("Status during fetch: got %q, want cleared", st)
		}
	}
	s.source = src

	s.FetchOnce(context.Background())
	if s.Session().Pending() {
		t.Error("Pending: got true after fetch")
	}
}

func TestFetchOnceStatusClearsAfterTTL(t *testing.T) {
	store := todo.NewStore(nil)
	s := NewSyncer(store, &stubSource{}, NewSession(15*time.Millisecond), nil)
	defer s.Session().Close()

	s.FetchOnce(context.Background())
	if st := s.Session().Status(); st != MsgNoNewTasks {
		t.Fatalf("Status: got %q, want %q", st, MsgNoNewTasks)
	}
	waitFor(t, time.Second, func() bool { return s.Session().Status() == "" })
}

func TestFetchOnceOverHTTP(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[{"id":1,"title":"Post 1"},{"id":2,"title":"Post 2"},{"id":3,"title":"Post 3"}]`))
	}))
	defer srv.Close()

	store := todo.NewStore([]todo.Task{{ID: 2, Text: "mine", Done: true}})
	s := newSyncer(store, NewHTTPSource(srv.URL, time.Second))
	defer s.Session().Close()

	res := s.FetchOnce(context.Background())
	if res.Added != 2 {
		t.Fatalf("Added: got %d, want 2", res.Added)
	}
	s.FetchOnce(context.Background())
	if n := hits.Load(); n != 1 {
		t.Errorf("server hits: got %d, want 1", n)
	}

	stats := store.Stats()
	if stats.Total != 3 || stats.Done != 1 {
		t.Errorf("Stats: got %+v", stats)
	}
}

func TestFetchOnceSkipsBlankTitles(t *testing.T) {
	store := todo.NewStore(nil)
	src := &stubSource{items: []Item{{ID: 1, Title: "  "}, {ID: 2, Title: "Pay rent"}}}
	s := newSyncer(store, src)
	defer s.Session().Close()

	res := s.FetchOnce(context.Background())
	if res.Outcome != OutcomeMerged || res.Added != 1 {
		t.Fatalf("result: got %+v", res)
	}
	if got := store.Tasks(); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("tasks: got %+v", got)
	}
}
