// Package todo owns the in-memory task collection.
//
// A Store holds the canonical ordered list of tasks for one process run.
// Every mutation goes through the Store:
//
//   - Add appends a new open task with a freshly generated id
//   - Toggle flips the done flag of a task
//   - Delete removes a task after the Confirmer agrees
//   - Merge appends tasks from another source, skipping ids already present
//
// Subscribers registered with Store.Subscribe receive a snapshot after each
// mutation that changed the collection. Calls that change nothing (unknown
// id, declined confirmation, empty merge) notify nobody.
//
// # Task Format
//
// Tasks serialize with fixed field names:
//
//	[
//	  {"id": 1718000000000, "todo": "Buy milk", "isDone": false}
//	]
//
// # Views
//
// View derives a filtered copy of a task list (all, done, open) without
// touching the Store. It keeps the collection order and is recomputed on
// every call.
package todo
