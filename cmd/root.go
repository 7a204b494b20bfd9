// Package cmd implements the CLI command structure for tasklist.
package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/app"
	"github.com/nibzard/tasklist/internal/config"
	"github.com/nibzard/tasklist/internal/logging"
	"github.com/nibzard/tasklist/internal/remote"
	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/taskdir"
	"github.com/nibzard/tasklist/internal/todo"
	"github.com/nibzard/tasklist/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// stdin is where interactive confirmations are read from.
var stdin io.Reader = os.Stdin

// keepRuns is how many TUI run logs are kept in the log directory.
const keepRuns = 20

// Run executes the tasklist CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tasklist", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// With no subcommand the terminal UI starts.
	subcommand := "tui"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "add":
		return addCommand(ctx, cfg, remainingArgs)
	case "ls", "list":
		return lsCommand(ctx, cfg, remainingArgs)
	case "toggle", "done":
		return toggleCommand(ctx, cfg, remainingArgs)
	case "rm", "delete":
		return rmCommand(ctx, cfg, remainingArgs)
	case "fetch":
		return fetchCommand(ctx, cfg, remainingArgs)
	case "doctor":
		return doctorCommand(ctx, cws, remainingArgs)
	case "tail":
		return tailCommand(ctx, cfg, remainingArgs)
	case "init":
		return initCommand(remainingArgs)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, os.Stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// cliLogger returns the stderr logger used by non-interactive commands.
func cliLogger(cfg *config.Config) (*log.Logger, error) {
	opts, err := logging.ParseOptions(cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)
	if err != nil {
		return nil, err
	}
	return logging.New(os.Stderr, opts, logging.NewSessionID()), nil
}

// withApp opens the task list, runs fn, and closes it again.
func withApp(ctx context.Context, cfg *config.Config, fn func(*app.App) error) error {
	logger, err := cliLogger(cfg)
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	runErr := fn(a)
	if err := a.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// tuiCommand launches the interactive task list.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist tui", flag.ContinueOnError)
	filter := fs.String("filter", cfg.DefaultFilter, "Initial filter (all, done, open)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	f, err := todo.ParseFilter(*filter)
	if err != nil {
		return err
	}
	if !ui.IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY; use 'tasklist ls' to print the list")
	}

	runLog, err := logging.NewRunLogger(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer runLog.Close()
	if _, err := logging.PruneRuns(cfg.LogDir, keepRuns); err != nil {
		fmt.Fprintf(os.Stderr, "warning: pruning old logs: %v\n", err)
	}

	opts, err := logging.ParseOptions(cfg.LogLevel, cfg.LogFormat, true, cfg.LogCaller)
	if err != nil {
		return err
	}
	logger := logging.New(runLog.Writer(), opts, runLog.Session)
	logger.Info("starting tui", "version", Version, "backend", cfg.Storage.Backend)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open task list", "err", err)
		return err
	}
	defer a.Close()

	err = ui.RunTUI(ctx, a.Store, a.Syncer, ui.WithFilter(f), ui.WithLogger(logger))
	if err != nil {
		logger.Error("tui exited with error", "err", err)
		return err
	}
	logger.Info("tui closed", "tasks", a.Store.Len())
	return nil
}

// addCommand appends a task built from the remaining arguments.
func addCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist add", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.Join(fs.Args(), " ")

	return withApp(ctx, cfg, func(a *app.App) error {
		task, err := a.Store.Add(text)
		if err != nil {
			return err
		}
		fmt.Printf("Added task %d: %s\n", task.ID, task.Text)
		return nil
	})
}

// lsCommand prints the tasks in the chosen view.
func lsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist ls", flag.ContinueOnError)
	filter := fs.String("filter", cfg.DefaultFilter, "Filter (all, done, open)")
	asJSON := fs.Bool("json", false, "Print the view in the saved JSON format")
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	if len(remaining) == 1 {
		*filter = remaining[0]
	}
	f, err := todo.ParseFilter(*filter)
	if err != nil {
		return err
	}

	return withApp(ctx, cfg, func(a *app.App) error {
		tasks := a.Store.Tasks()
		view := todo.View(tasks, f)
		if *asJSON {
			data, err := storage.Encode(view)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		printTaskList(view)
		st := todo.Summarize(tasks)
		fmt.Printf("\n%d tasks, %d done, %d open\n", st.Total, st.Done, st.Open)
		return nil
	})
}

// toggleCommand flips the done flag of one task.
func toggleCommand(ctx context.Context, cfg *config.Config, args []string) error {
	id, err := parseIDArg("toggle", args)
	if err != nil {
		return err
	}
	return withApp(ctx, cfg, func(a *app.App) error {
		if !a.Store.Toggle(id) {
			fmt.Printf("No task %d; nothing changed.\n", id)
			return nil
		}
		task, err := a.Store.Get(id)
		if err != nil {
			return err
		}
		state := "open"
		if task.Done {
			state = "done"
		}
		fmt.Printf("Task %d is now %s: %s\n", task.ID, state, task.Text)
		return nil
	})
}

// rmCommand deletes one task after asking for confirmation.
func rmCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist rm", flag.ContinueOnError)
	yes := fs.Bool("y", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseIDArg("rm", fs.Args())
	if err != nil {
		return err
	}

	return withApp(ctx, cfg, func(a *app.App) error {
		task, err := a.Store.Get(id)
		var nf *todo.NotFoundError
		if errors.As(err, &nf) {
			fmt.Printf("No task %d; nothing deleted.\n", id)
			return nil
		}
		if err != nil {
			return err
		}
		var confirmer todo.Confirmer = todo.AlwaysConfirm
		if !*yes {
			fmt.Printf("%d: %s\n", task.ID, task.Text)
			confirmer = promptConfirmer(stdin, os.Stdout)
		}
		if !a.Store.Delete(id, confirmer) {
			fmt.Println("Cancelled.")
			return nil
		}
		fmt.Printf("Deleted task %d.\n", id)
		return nil
	})
}

// fetchCommand merges the remote tasks into the list once.
func fetchCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist fetch", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	return withApp(ctx, cfg, func(a *app.App) error {
		res := a.Syncer.FetchOnce(ctx)
		switch res.Outcome {
		case remote.OutcomeMerged:
			fmt.Printf("Fetched %d new task(s).\n", res.Added)
			return nil
		case remote.OutcomeFailed:
			fmt.Println(a.Syncer.Session().Status())
			return res.Err
		default:
			fmt.Println(a.Syncer.Session().Status())
			return nil
		}
	})
}

// doctorCommand checks config, storage, logs, and optionally the remote source.
func doctorCommand(ctx context.Context, cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("tasklist doctor", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	checkRemote := fs.Bool("remote", false, "Also fetch from the remote source")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg := cws.Config

	fmt.Println("Tasklist Doctor")
	fmt.Println("===============")
	fmt.Println()

	allOK := true

	// Config
	if cfg.ConfigFile == "" {
		fmt.Println("Config file: (none, using defaults)")
	} else {
		fmt.Printf("Config file: %s\n", cfg.ConfigFile)
	}
	fmt.Println("  ✅ OK")
	if *verbose {
		for _, line := range describeConfig(cws) {
			fmt.Println("  " + line)
		}
	}
	fmt.Println()

	// Storage
	fmt.Printf("Storage: %s (key %q)\n", cfg.Storage.Backend, cfg.Storage.Key)
	switch cfg.Storage.Backend {
	case storage.BackendFile:
		fmt.Printf("  Dir: %s\n", cfg.Storage.Dir)
	case storage.BackendSQLite:
		fmt.Printf("  Database: %s\n", cfg.Storage.SQLitePath)
	case storage.BackendRedis:
		fmt.Printf("  Address: %s (db %d)\n", cfg.Storage.RedisAddr, cfg.Storage.RedisDB)
	}
	slot, err := storage.Open(ctx, app.StorageOptions(cfg))
	if err != nil {
		fmt.Printf("  ❌ Error: %v\n", err)
		allOK = false
	} else {
		adapter := storage.NewAdapter(slot, cfg.Storage.Key, nil)
		tasks, err := adapter.Read(ctx)
		switch {
		case err == nil:
			st := todo.Summarize(tasks)
			fmt.Printf("  ✅ OK (%d tasks, %d done)\n", st.Total, st.Done)
		case errors.Is(err, storage.ErrNotFound):
			fmt.Println("  ⚠️  No saved list yet (starts empty)")
		default:
			fmt.Printf("  ❌ Saved list is unreadable and will be ignored: %v\n", err)
			allOK = false
		}
		slot.Close()
	}
	fmt.Println()

	// Logs
	fmt.Printf("Log directory: %s\n", cfg.LogDir)
	if _, err := os.Stat(cfg.LogDir); err != nil {
		if os.IsNotExist(err) {
			fmt.Println("  ⚠️  Not found (will be created by the tui)")
		} else {
			fmt.Printf("  ❌ Error: %v\n", err)
			allOK = false
		}
	} else {
		runs, err := logging.FindLogRuns(cfg.LogDir)
		if err != nil {
			fmt.Printf("  ❌ Error: %v\n", err)
			allOK = false
		} else {
			fmt.Printf("  ✅ OK (%d run logs)\n", len(runs))
		}
	}
	fmt.Println()

	// Hook
	if cfg.Hook.Command != "" {
		fmt.Printf("Change hook: %s\n", cfg.Hook.Command)
		fields := strings.Fields(cfg.Hook.Command)
		if _, err := exec.LookPath(fields[0]); err != nil {
			fmt.Printf("  ❌ Not executable: %v\n", err)
			allOK = false
		} else {
			fmt.Println("  ✅ OK")
		}
		fmt.Println()
	}

	// Remote
	fmt.Printf("Remote source: %s\n", cfg.Remote.URL)
	if *checkRemote {
		items, err := remote.NewHTTPSource(cfg.Remote.URL, cfg.RemoteTimeout()).Fetch(ctx)
		if err != nil {
			fmt.Printf("  ❌ %v\n", err)
			allOK = false
		} else {
			fmt.Printf("  ✅ OK (%d items)\n", len(items))
		}
	} else {
		fmt.Println("  ⚠️  Not checked (use -remote)")
	}
	fmt.Println()

	if allOK {
		fmt.Println("✅ All checks passed!")
		return nil
	}
	fmt.Println("⚠️  Some checks failed. Tasklist may not function correctly.")
	return fmt.Errorf("doctor checks failed")
}

// tailCommand tails the latest run log.
func tailCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist tail", flag.ContinueOnError)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logPath, err := logging.FindLatestLog(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Println("No log files found.")
		return nil
	}

	fmt.Printf("Tailing: %s\n", logPath)
	if *follow {
		fmt.Println("(Ctrl+C to stop)")
	}
	fmt.Println()

	return logging.TailLog(ctx, os.Stdout, logPath, *n, *follow)
}

// initCommand writes an example config file.
func initCommand(args []string) error {
	fs := flag.NewFlagSet("tasklist init", flag.ContinueOnError)
	path := fs.String("path", "", "Where to write the config (default ~/.tasklist/tasklist.toml)")
	force := fs.Bool("force", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	target := *path
	if target == "" {
		var err error
		target, err = taskdir.ConfigPath()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
	}

	if _, err := os.Stat(target); err == nil && !*force {
		fmt.Printf("Config already exists: %s (use -force to overwrite)\n", target)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(target, []byte(config.ExampleConfig()), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Printf("Wrote %s\n", target)
	return nil
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Printf("tasklist version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Tasklist - a personal task list")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasklist [options] [command] [command options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui             Interactive task list (default command)")
	fmt.Fprintln(w, "  add <text>      Add a task")
	fmt.Fprintln(w, "  ls [filter]     List tasks (all, done, open)")
	fmt.Fprintln(w, "  toggle <id>     Mark a task done or open again")
	fmt.Fprintln(w, "  rm <id>         Delete a task after confirmation")
	fmt.Fprintln(w, "  fetch           Merge tasks from the remote source")
	fmt.Fprintln(w, "  doctor          Check config, storage, and logs")
	fmt.Fprintln(w, "  tail            Tail the latest tui log")
	fmt.Fprintln(w, "  init            Write an example config file")
	fmt.Fprintln(w, "  version         Show version information")
	fmt.Fprintln(w, "  help            Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options:")
	fmt.Fprintln(w, "  -filter string")
	fmt.Fprintln(w, "        Filter (all, done, open)")
	fmt.Fprintln(w, "  -json")
	fmt.Fprintln(w, "        Print the view in the saved JSON format")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rm Options:")
	fmt.Fprintln(w, "  -y    Do not ask for confirmation")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tail Options:")
	fmt.Fprintln(w, "  -f, --follow")
	fmt.Fprintln(w, "        Follow the log (like tail -f)")
	fmt.Fprintln(w, "  -n int")
	fmt.Fprintln(w, "        Number of lines to show (0 = all)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Doctor Options:")
	fmt.Fprintln(w, "  -v       Show where each setting came from")
	fmt.Fprintln(w, "  -remote  Also fetch from the remote source")
}

// printTaskList prints tasks in list order.
func printTaskList(tasks []todo.Task) {
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return
	}
	for _, t := range tasks {
		printTask(t)
	}
}

// printTask prints a single task.
func printTask(t todo.Task) {
	box := "[ ]"
	if t.Done {
		box = "[x]"
	}
	fmt.Printf("  %s %d  %s\n", box, t.ID, t.Text)
}

// parseIDArg expects exactly one task id in args.
func parseIDArg(command string, args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s: expected exactly one task id", command)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid task id %q", command, args[0])
	}
	return id, nil
}

// promptConfirmer asks on out and reads a y/n answer from in. Anything but
// y or yes declines.
func promptConfirmer(in io.Reader, out io.Writer) todo.Confirmer {
	reader := bufio.NewReader(in)
	return todo.ConfirmFunc(func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	})
}

// describeConfig lists every setting with its value and source.
func describeConfig(cws *config.ConfigWithSources) []string {
	cfg := cws.Config
	values := map[string]string{
		"storage.backend":        cfg.Storage.Backend,
		"storage.key":            cfg.Storage.Key,
		"storage.dir":            cfg.Storage.Dir,
		"storage.sqlite_path":    cfg.Storage.SQLitePath,
		"storage.redis_addr":     cfg.Storage.RedisAddr,
		"storage.redis_password": maskSecret(cfg.Storage.RedisPassword),
		"storage.redis_db":       strconv.Itoa(cfg.Storage.RedisDB),
		"remote.url":             cfg.Remote.URL,
		"remote.timeout_seconds": strconv.Itoa(cfg.Remote.TimeoutSeconds),
		"hook.command":           cfg.Hook.Command,
		"hook.timeout_seconds":   strconv.Itoa(cfg.Hook.TimeoutSeconds),
		"status_seconds":         strconv.Itoa(cfg.StatusSeconds),
		"default_filter":         cfg.DefaultFilter,
		"log_dir":                cfg.LogDir,
		"log_level":              cfg.LogLevel,
		"log_format":             cfg.LogFormat,
		"log_timestamps":         strconv.FormatBool(cfg.LogTimestamps),
		"log_caller":             strconv.FormatBool(cfg.LogCaller),
	}
	order := []string{
		"storage.backend", "storage.key", "storage.dir", "storage.sqlite_path",
		"storage.redis_addr", "storage.redis_password", "storage.redis_db",
		"remote.url", "remote.timeout_seconds", "hook.command", "hook.timeout_seconds",
		"status_seconds", "default_filter",
		"log_dir", "log_level", "log_format", "log_timestamps", "log_caller",
	}
	lines := make([]string, 0, len(order))
	for _, field := range order {
		source := cws.Sources[field]
		if source == "" {
			source = config.SourceDefault
		}
		lines = append(lines, fmt.Sprintf("%-24s %-40s (%s)", field, values[field], source))
	}
	return lines
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
