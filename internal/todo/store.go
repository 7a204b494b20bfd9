package todo

import "sync"

// Subscriber receives a snapshot of the collection after a mutation.
// It runs while the Store is locked and must not call back into the Store.
type Subscriber func(tasks []Task)

// Store is the authoritative ordered task collection for a process run.
// Ids are unique across the collection at all times.
type Store struct {
	mu     sync.Mutex
	tasks  []Task
	ids    *IDGenerator
	subs   map[int]Subscriber
	nextID int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIDGenerator replaces the default wall-clock id generator.
func WithIDGenerator(g *IDGenerator) StoreOption {
	return func(s *Store) {
		s.ids = g
	}
}

// NewStore creates a Store seeded with tasks. Later duplicates of an id
// already seen are dropped so the uniqueness invariant holds from the start.
func NewStore(tasks []Task, opts ...StoreOption) *Store {
	s := &Store{
		tasks: make([]Task, 0, len(tasks)),
		ids:   NewIDGenerator(),
		subs:  make(map[int]Subscriber),
	}
	for _, opt := range opts {
		opt(s)
	}
	seen := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		s.tasks = append(s.tasks, t)
	}
	return s
}

// Subscribe registers fn to run after every mutation. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.nextID
	s.nextID++
	s.subs[key] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, key)
	}
}

// Tasks returns a copy of the collection in insertion order.
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Get returns the task with id, or a NotFoundError.
func (s *Store) Get(id int64) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i], nil
	}
	return Task{}, &NotFoundError{ID: id}
}

// Stats counts done and open tasks.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summarize(s.tasks)
}

// Add appends a new open task. Whitespace-only text is rejected with a
// ValidationError and leaves the collection unchanged.
func (s *Store) Add(text string) (Task, error) {
	trimmed, err := validateText(text)
	if err != nil {
		return Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := Task{
		ID:   s.ids.Next(func(id int64) bool { return s.indexOf(id) >= 0 }),
		Text: trimmed,
	}
	s.tasks = append(s.tasks, task)
	s.notify()
	return task, nil
}

// Toggle flips the done flag of the task with id. A missing id is a no-op.
// It reports whether a task changed.
func (s *Store) Toggle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.tasks[i].Done = !s.tasks[i].Done
	s.notify()
	return true
}

// Delete removes the task with id once c confirms DeletePrompt. A nil
// Confirmer, a declined confirmation, or a missing id is a no-op.
// It reports whether a task was removed.
func (s *Store) Delete(id int64, c Confirmer) bool {
	if c == nil {
		return false
	}

	s.mu.Lock()
	if s.indexOf(id) < 0 {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	// Ask without holding the lock; the user may take a while.
	if !c.Confirm(DeletePrompt) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.notify()
	return true
}

// Merge appends the tasks in batch whose ids are not yet present, in batch
// order, as a single mutation. Duplicates inside batch keep the first
// occurrence. It returns the number of tasks appended.
func (s *Store) Merge(batch []Task) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := FilterNew(s.tasks, batch)
	if len(fresh) == 0 {
		return 0
	}
	s.tasks = append(s.tasks, fresh...)
	s.notify()
	return len(fresh)
}

// FilterNew returns the tasks in batch whose ids do not appear in existing
// or earlier in batch.
func FilterNew(existing, batch []Task) []Task {
	seen := make(map[int64]bool, len(existing)+len(batch))
	for _, t := range existing {
		seen[t.ID] = true
	}
	var fresh []Task
	for _, t := range batch {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		fresh = append(fresh, t)
	}
	return fresh
}

// Summarize counts done and open tasks in tasks.
func Summarize(tasks []Task) Stats {
	st := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Done {
			st.Done++
		}
	}
	st.Open = st.Total - st.Done
	return st
}

func (s *Store) indexOf(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []Task {
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) notify() {
	if len(s.subs) == 0 {
		return
	}
	for _, fn := range s.subs {
		fn(s.snapshot())
	}
}
