// Package notifier defines the one-shot wake-up contract the scheduler
// depends on, the validated fire payload schema, and a timer-backed
// implementation used by the daemon.
package notifier
