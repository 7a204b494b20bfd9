// Package cmd provides tests for CLI command handlers.
package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/todo"
)

// captureStdout runs fn while capturing os.Stdout output.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = oldStdout
	}()

	runErr := fn()
	_ = w.Close()

	output, readErr := io.ReadAll(r)
	_ = r.Close()
	if readErr != nil {
		t.Fatalf("ReadAll() error = %v", readErr)
	}

	return string(output), runErr
}

// isolate points every config lookup at a temp home and returns the data dir
// the CLI will use.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "TASKLIST_") {
			t.Setenv(name, "")
		}
	}
	dataDir := filepath.Join(home, "data")
	t.Setenv("TASKLIST_DATA_DIR", dataDir)
	t.Setenv("TASKLIST_LOG_DIR", filepath.Join(home, "logs"))
	t.Setenv("TASKLIST_LOG_LEVEL", "error")
	return dataDir
}

// seed writes tasks to the file slot under dataDir.
func seed(t *testing.T, dataDir string, tasks []todo.Task) {
	t.Helper()
	slot, err := storage.NewFileSlot(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.NewAdapter(slot, "todos", nil).Save(context.Background(), tasks); err != nil {
		t.Fatal(err)
	}
}

// saved reads tasks back from the file slot under dataDir.
func saved(t *testing.T, dataDir string) []todo.Task {
	t.Helper()
	slot, err := storage.NewFileSlot(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	tasks, err := storage.NewAdapter(slot, "todos", nil).Read(context.Background())
	if err != nil {
		t.Fatalf("reading saved tasks: %v", err)
	}
	return tasks
}

var sample = []todo.Task{
	{ID: 1, Text: "Buy milk"},
	{ID: 2, Text: "Walk dog", Done: true},
}

// TestRun tests the main Run function.
func TestRun(t *testing.T) {
	isolate(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args []string
	}{
		{"help flag", []string{"--help"}},
		{"short help flag", []string{"-h"}},
		{"version flag", []string{"--version"}},
		{"short version flag", []string{"-v"}},
		{"help command", []string{"help"}},
		{"version command", []string{"version"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := captureStdout(t, func() error { return Run(ctx, tt.args) }); err != nil {
				t.Errorf("Run(%v) error = %v", tt.args, err)
			}
		})
	}

	t.Run("unknown command returns error", func(t *testing.T) {
		err := Run(ctx, []string{"unknown-command"})
		if err == nil || !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("expected 'unknown command' error, got %v", err)
		}
	})

	t.Run("invalid flag value", func(t *testing.T) {
		err := Run(ctx, []string{"-filter", "someday", "ls"})
		if err == nil || !strings.Contains(err.Error(), "loading config") {
			t.Errorf("expected config error, got %v", err)
		}
	})
}

func TestVersionOutput(t *testing.T) {
	isolate(t)
	out, err := captureStdout(t, func() error { return Run(context.Background(), []string{"version"}) })
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "tasklist version "+Version) {
		t.Errorf("version output = %q", out)
	}
}

func TestAddCommand(t *testing.T) {
	dataDir := isolate(t)
	ctx := context.Background()

	out, err := captureStdout(t, func() error {
		return Run(ctx, []string{"add", "Buy", "milk"})
	})
	if err != nil {
		t.Fatalf("add error = %v", err)
	}
	if !strings.Contains(out, "Buy milk") {
		t.Errorf("add output = %q", out)
	}

	tasks := saved(t, dataDir)
	if len(tasks) != 1 || tasks[0].Text != "Buy milk" || tasks[0].Done {
		t.Errorf("saved = %+v", tasks)
	}

	err = Run(ctx, []string{"add", "   "})
	if !errors.Is(err, todo.ErrEmptyText) {
		t.Errorf("blank add error = %v, want ErrEmptyText", err)
	}
	if got := saved(t, dataDir); len(got) != 1 {
		t.Errorf("blank add changed the list: %+v", got)
	}
}

func TestLsCommand(t *testing.T) {
	dataDir := isolate(t)
	seed(t, dataDir, sample)
	ctx := context.Background()

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{"all", []string{"ls"}, []string{"[ ] 1  Buy milk", "[x] 2  Walk dog", "2 tasks, 1 done, 1 open"}, nil},
		{"done flag", []string{"ls", "-filter", "done"}, []string{"Walk dog"}, []string{"Buy milk"}},
		{"open positional", []string{"ls", "open"}, []string{"Buy milk"}, []string{"Walk dog"}},
		{"global filter", []string{"-filter", "open", "ls"}, []string{"Buy milk"}, []string{"Walk dog"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := captureStdout(t, func() error { return Run(ctx, tt.args) })
			if err != nil {
				t.Fatalf("Run(%v) error = %v", tt.args, err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(out, nw) {
					t.Errorf("output should not contain %q:\n%s", nw, out)
				}
			}
		})
	}

	t.Run("json", func(t *testing.T) {
		out, err := captureStdout(t, func() error { return Run(ctx, []string{"ls", "-json", "done"}) })
		if err != nil {
			t.Fatal(err)
		}
		tasks, err := storage.Decode([]byte(out))
		if err != nil {
			t.Fatalf("decoding %q: %v", out, err)
		}
		if len(tasks) != 1 || tasks[0] != sample[1] {
			t.Errorf("json view = %+v", tasks)
		}
	})

	t.Run("bad filter", func(t *testing.T) {
		if err := Run(ctx, []string{"ls", "someday"}); err == nil {
			t.Error("expected error for unknown filter")
		}
	})
}

func TestLsEmpty(t *testing.T) {
	isolate(t)
	out, err := captureStdout(t, func() error { return Run(context.Background(), []string{"ls"}) })
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No tasks found.") {
		t.Errorf("output = %q", out)
	}
}

func TestToggleCommand(t *testing.T) {
	dataDir := isolate(t)
	seed(t, dataDir, sample)
	ctx := context.Background()

	out, err := captureStdout(t, func() error { return Run(ctx, []string{"toggle", "1"}) })
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Task 1 is now done") {
		t.Errorf("output = %q", out)
	}
	if got := saved(t, dataDir); !got[0].Done || !got[1].Done {
		t.Errorf("saved = %+v", got)
	}

	out, err = captureStdout(t, func() error { return Run(ctx, []string{"toggle", "99"}) })
	if err != nil {
		t.Errorf("missing id error = %v, want nil", err)
	}
	if !strings.Contains(out, "No task 99; nothing changed.") {
		t.Errorf("missing id output = %q", out)
	}
	if got := saved(t, dataDir); len(got) != 2 || !got[0].Done {
		t.Errorf("saved after missing toggle = %+v", got)
	}
	if err := Run(ctx, []string{"toggle", "abc"}); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestRmCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		input   string
		want    string
		remains int
	}{
		{"yes flag", []string{"rm", "-y", "1"}, "", "Deleted task 1.", 1},
		{"confirmed", []string{"rm", "1"}, "y\n", "Deleted task 1.", 1},
		{"confirmed long", []string{"rm", "1"}, "YES\n", "Deleted task 1.", 1},
		{"declined", []string{"rm", "1"}, "n\n", "Cancelled.", 2},
		{"no answer", []string{"rm", "1"}, "", "Cancelled.", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := isolate(t)
			seed(t, dataDir, sample)

			oldStdin := stdin
			stdin = strings.NewReader(tt.input)
			defer func() { stdin = oldStdin }()

			out, err := captureStdout(t, func() error { return Run(context.Background(), tt.args) })
			if err != nil {
				t.Fatalf("Run(%v) error = %v", tt.args, err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
			if tt.input != "" && !strings.Contains(out, todo.DeletePrompt) {
				t.Errorf("prompt not shown:\n%s", out)
			}
			if got := saved(t, dataDir); len(got) != tt.remains {
				t.Errorf("remaining = %+v, want %d tasks", got, tt.remains)
			}
		})
	}
}

func TestRmMissingTask(t *testing.T) {
	dataDir := isolate(t)
	seed(t, dataDir, sample)

	out, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{"rm", "-y", "42"})
	})
	if err != nil {
		t.Errorf("error = %v, want nil", err)
	}
	if !strings.Contains(out, "No task 42; nothing deleted.") {
		t.Errorf("output = %q", out)
	}
	if got := saved(t, dataDir); len(got) != 2 {
		t.Errorf("saved = %+v", got)
	}
}

func TestFetchCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"title":"Buy milk (remote)"},{"id":10,"title":"Call dentist"}]`))
	}))
	defer srv.Close()

	dataDir := isolate(t)
	seed(t, dataDir, sample)
	ctx := context.Background()

	out, err := captureStdout(t, func() error {
		return Run(ctx, []string{"-remote-url", srv.URL, "fetch"})
	})
	if err != nil {
		t.Fatalf("fetch error = %v", err)
	}
	if !strings.Contains(out, "Fetched 1 new task(s).") {
		t.Errorf("output = %q", out)
	}

	got := saved(t, dataDir)
	if len(got) != 3 || got[0].Text != "Buy milk" || got[2] != (todo.Task{ID: 10, Text: "Call dentist"}) {
		t.Errorf("saved = %+v", got)
	}

	out, err = captureStdout(t, func() error {
		return Run(ctx, []string{"-remote-url", srv.URL, "fetch"})
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No new tasks to fetch.") {
		t.Errorf("second fetch output = %q", out)
	}
}

func TestFetchCommandFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	isolate(t)
	out, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{"-remote-url", srv.URL, "fetch"})
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out, "Failed to fetch data.") {
		t.Errorf("output = %q", out)
	}
}

func TestDoctorCommand(t *testing.T) {
	t.Run("fresh install", func(t *testing.T) {
		isolate(t)
		out, err := captureStdout(t, func() error {
			return Run(context.Background(), []string{"doctor", "-v"})
		})
		if err != nil {
			t.Fatalf("doctor error = %v\n%s", err, out)
		}
		for _, want := range []string{"No saved list yet", "storage.backend", "(default)", "All checks passed"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("reports sources", func(t *testing.T) {
		dataDir := isolate(t)
		seed(t, dataDir, sample)
		out, err := captureStdout(t, func() error {
			return Run(context.Background(), []string{"-storage-key", "todos", "doctor", "-v"})
		})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "2 tasks, 1 done") {
			t.Errorf("output missing task count:\n%s", out)
		}
		if !strings.Contains(out, "(flag)") || !strings.Contains(out, "(environment)") {
			t.Errorf("output missing sources:\n%s", out)
		}
	})

	t.Run("corrupt list fails", func(t *testing.T) {
		dataDir := isolate(t)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dataDir, "todos.json"), []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		out, err := captureStdout(t, func() error { return Run(context.Background(), []string{"doctor"}) })
		if err == nil || !strings.Contains(err.Error(), "failed") {
			t.Errorf("doctor error = %v", err)
		}
		if !strings.Contains(out, "unreadable") {
			t.Errorf("output:\n%s", out)
		}
	})
}

func TestTailCommand(t *testing.T) {
	isolate(t)
	logDir := os.Getenv("TASKLIST_LOG_DIR")
	ctx := context.Background()

	out, err := captureStdout(t, func() error { return Run(ctx, []string{"tail"}) })
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No log files found.") {
		t.Errorf("output = %q", out)
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		t.Fatal(err)
	}
	logFile := filepath.Join(logDir, "20260101-120000-abcd1234.log")
	if err := os.WriteFile(logFile, []byte("one\ntwo\nthree\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err = captureStdout(t, func() error { return Run(ctx, []string{"tail", "-n", "2"}) })
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, logFile) || !strings.Contains(out, "two\nthree") || strings.Contains(out, "one\n") {
		t.Errorf("output = %q", out)
	}
}

func TestInitCommand(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "conf", "tasklist.toml")
	ctx := context.Background()

	out, err := captureStdout(t, func() error { return Run(ctx, []string{"init", "-path", path}) })
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Wrote "+path) {
		t.Errorf("output = %q", out)
	}

	// The written file must load cleanly.
	if _, err := captureStdout(t, func() error {
		return Run(ctx, []string{"-config", path, "version"})
	}); err != nil {
		t.Errorf("loading written config: %v", err)
	}

	out, err = captureStdout(t, func() error { return Run(ctx, []string{"init", "-path", path}) })
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "already exists") {
		t.Errorf("second init output = %q", out)
	}
}

func TestParseIDArg(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int64
		wantErr bool
	}{
		{"valid", []string{"42"}, 42, false},
		{"spaces", []string{" 7 "}, 7, false},
		{"large", []string{"1718000000123"}, 1718000000123, false},
		{"missing", nil, 0, true},
		{"extra", []string{"1", "2"}, 0, true},
		{"not a number", []string{"one"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIDArg("toggle", tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseIDArg(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseIDArg(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"  y  \n", true},
		{"y", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out strings.Builder
			c := promptConfirmer(strings.NewReader(tt.input), &out)
			if got := c.Confirm("Delete?"); got != tt.want {
				t.Errorf("Confirm with %q = %v, want %v", tt.input, got, tt.want)
			}
			if !strings.HasPrefix(out.String(), "Delete? [y/N] ") {
				t.Errorf("prompt = %q", out.String())
			}
		})
	}
}
