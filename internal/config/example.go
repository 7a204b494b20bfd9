package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# tasklist configuration file
# Values can be overridden by TASKLIST_* environment variables or CLI flags

# Seconds a status message (fetch results) stays visible
status_seconds = 3

# Filter shown when the terminal UI starts: all, done, or open
default_filter = "all"

# Log directory (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.tasklist/logs"
log_level = "info"    # debug, info, warn, error
log_format = "text"   # text, json, logfmt
log_timestamps = false
log_caller = false

[storage]
# Where the task list is kept: file, sqlite, redis, or memory
backend = "file"

# Name of the slot the list is saved under
key = "todos"

# file backend: one <key>.json per slot
dir = "~/.tasklist"

# sqlite backend
sqlite_path = "~/.tasklist/tasklist.db"

# redis backend
# redis_addr = "localhost:6379"
# redis_password = ""
# redis_db = 0

[remote]
url = "https://my-json-server.typicode.com/typicode/demo/posts"

# 0 waits for the transport's own timeouts
timeout_seconds = 0

[hook]
# Command run after every saved change. The value is split on whitespace
# into the executable and its arguments, so a path containing spaces cannot
# be used; point at a wrapper script instead. ~ and $VARS are expanded across
# the whole line. The change label (added, updated or deleted) is appended as
# the last argument and the saved list arrives as JSON on stdin.
# command = "~/.tasklist/on-change.sh"
timeout_seconds = 10
`
}
