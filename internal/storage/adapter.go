package storage

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/tasklist/internal/todo"
	"github.com/nibzard/tasklist/internal/utils"
)

// DefaultKey is the slot key holding the task list.
const DefaultKey = "todos"

//go:embed tasks.schema.json
var snapshotSchemaJSON string

var snapshotSchema = jsonschema.MustCompileString("tasks.schema.json", snapshotSchemaJSON)

// Adapter mirrors a task collection into a Slot. Load never fails: an
// absent, unreadable, or malformed slot yields an empty collection. Save
// failures are logged and returned but never retried.
type Adapter struct {
	slot   Slot
	key    string
	logger *log.Logger
}

// NewAdapter returns an Adapter storing under key. A nil logger discards
// output.
func NewAdapter(slot Slot, key string, logger *log.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Adapter{slot: slot, key: key, logger: logger}
}

// Key returns the slot key.
func (a *Adapter) Key() string {
	return a.key
}

// Load reads the persisted collection, falling back to an empty one.
func (a *Adapter) Load(ctx context.Context) []todo.Task {
	tasks, err := a.Read(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.logger.Debug("no saved tasks, starting empty", "key", a.key)
		} else {
			a.logger.Warn("ignoring saved tasks", "key", a.key, "err", err)
		}
		return []todo.Task{}
	}
	a.logger.Debug("loaded tasks", "key", a.key, "count", len(tasks))
	return tasks
}

// Read is Load without the fallback. Errors are *StorageError; an absent
// slot also matches ErrNotFound.
func (a *Adapter) Read(ctx context.Context) ([]todo.Task, error) {
	data, err := a.slot.Get(ctx, a.key)
	if err != nil {
		return nil, &StorageError{Op: "load", Key: a.key, Err: err}
	}
	tasks, err := Decode(data)
	if err != nil {
		return nil, &StorageError{Op: "load", Key: a.key, Err: err}
	}
	return tasks, nil
}

// Save overwrites the slot with tasks.
func (a *Adapter) Save(ctx context.Context, tasks []todo.Task) error {
	data, err := Encode(tasks)
	if err == nil {
		err = a.slot.Set(ctx, a.key, data)
	}
	if err != nil {
		serr := &StorageError{Op: "save", Key: a.key, Err: err}
		a.logger.Error("failed to save tasks", "key", a.key, "err", err)
		return serr
	}
	a.logger.Debug("saved tasks", "key", a.key, "count", len(tasks))
	return nil
}

// Attach saves every snapshot store publishes. The returned function stops
// mirroring.
func (a *Adapter) Attach(ctx context.Context, store *todo.Store) func() {
	return store.Subscribe(func(tasks []todo.Task) {
		_ = a.Save(ctx, tasks)
	})
}

// Encode serializes tasks as a JSON array. A nil slice encodes as [].
func Encode(tasks []todo.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []todo.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	return data, nil
}

// Decode parses and validates a persisted task list.
func Decode(data []byte) ([]todo.Task, error) {
	if err := utils.ValidateJSON(snapshotSchema, data); err != nil {
		var se *utils.SchemaError
		if errors.As(err, &se) {
			return nil, fmt.Errorf("invalid tasks: %s", se.Msg)
		}
		return nil, fmt.Errorf("parse tasks: %w", err)
	}

	tasks := []todo.Task{}
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parse tasks: %w", err)
	}
	return tasks, nil
}
