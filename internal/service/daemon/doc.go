// Package daemon runs the long-lived alarm process: it restores armed
// state at startup and turns fire events into ring/snooze/dismiss cycles.
package daemon
