package todo

import (
	"errors"
	"fmt"
	"strings"
)

// Task is a single entry in the task list.
type Task struct {
	ID   int64  `json:"id"`
	Text string `json:"todo"`
	Done bool   `json:"isDone"`
}

// IsZero returns true if the task has no id.
func (t Task) IsZero() bool {
	return t.ID == 0
}

// Stats summarizes completion counts of a task list.
type Stats struct {
	Total int
	Done  int
	Open  int
}

// Percent returns the share of done tasks in whole percent.
func (s Stats) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return s.Done * 100 / s.Total
}

// ErrEmptyText is wrapped by ValidationError when a task has no text.
var ErrEmptyText = errors.New("task text is empty")

// ValidationError reports input rejected before it reaches the collection.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a lookup of an id that is not in the collection.
// Toggle and Delete treat a missing id as a no-op and never return it.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %d not found", e.ID)
}

// validateText trims text and rejects whitespace-only input. Invalid UTF-8
// is replaced with U+FFFD so the stored text survives a JSON round trip.
func validateText(text string) (string, error) {
	trimmed := strings.TrimSpace(strings.ToValidUTF8(text, "\uFFFD"))
	if trimmed == "" {
		return "", &ValidationError{Field: "todo", Err: ErrEmptyText}
	}
	return trimmed, nil
}

// DeletePrompt is the question asked before a task is deleted.
const DeletePrompt = "Are you sure? You want to Delete this task?"

// Confirmer answers yes/no questions on behalf of the user.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) bool

// Confirm calls f(prompt).
func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// AlwaysConfirm agrees to every question. Use it when the caller has
// already asked the user.
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })
