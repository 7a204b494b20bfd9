package remote

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/todo"
)

// Status messages shown after a fetch.
const (
	MsgAlreadyFetched = "You have already fetched all the data."
	MsgNoNewTasks     = "No new tasks to fetch."
	MsgFetchFailed    = "Failed to fetch data."
)

// Outcome describes how a FetchOnce call ended.
type Outcome int

const (
	OutcomeMerged Outcome = iota
	OutcomeAlreadyFetched
	OutcomeNothingNew
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMerged:
		return "merged"
	case OutcomeAlreadyFetched:
		return "already fetched"
	case OutcomeNothingNew:
		return "nothing new"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result reports what FetchOnce did.
type Result struct {
	Outcome Outcome
	Added   int
	Err     error // set for OutcomeFailed
}

// Syncer merges a remote batch into a store.
type Syncer struct {
	store   *todo.Store
	source  Source
	session *Session
	logger  *log.Logger
}

// NewSyncer wires a source to a store. A nil logger discards output.
func NewSyncer(store *todo.Store, source Source, session *Session, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Syncer{
		store:   store,
		source:  source,
		session: session,
		logger:  logger,
	}
}

// Session returns the fetch state the syncer updates.
func (s *Syncer) Session() *Session {
	return s.session
}

// FetchOnce fetches the remote batch and appends the items whose ids are
// not in the store yet. Once a fetch has merged something, later calls only
// set MsgAlreadyFetched and do no network access. A failed fetch or one
// that yields nothing new leaves the session open for a retry. Failures
// surface as a status message and in Result.Err; the store is unchanged.
func (s *Syncer) FetchOnce(ctx context.Context) Result {
	if s.session.Fetched() {
		s.session.SetStatus(MsgAlreadyFetched)
		return Result{Outcome: OutcomeAlreadyFetched}
	}

	s.session.begin()
	merged := false
	defer func() { s.session.finish(merged) }()

	s.logger.Info("fetching remote tasks")
	items, err := s.source.Fetch(ctx)
	if err != nil {
		s.logger.Error("failed to fetch remote tasks", "err", err)
		s.session.SetStatus(MsgFetchFailed)
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	batch := make([]todo.Task, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Title) == "" {
			s.logger.Debug("skipping remote item without title", "id", item.ID)
			continue
		}
		batch = append(batch, todo.Task{ID: item.ID, Text: item.Title})
	}

	added := s.store.Merge(batch)
	if added == 0 {
		s.logger.Info("remote returned no new tasks", "received", len(items))
		s.session.SetStatus(MsgNoNewTasks)
		return Result{Outcome: OutcomeNothingNew}
	}

	merged = true
	s.logger.Info("merged remote tasks", "received", len(items), "added", added)
	return Result{Outcome: OutcomeMerged, Added: added}
}
