// Package alarms implements persistence for alarm records.
//
// The FileRepository stores and loads the whole collection as JSON on disk
// and exposes a Repository interface the scheduler service depends on.
// Writes replace the entire collection; there are no partial updates.
package alarms
