// Package scheduler implements the alarm lifecycle manager.
//
// The Service owns the alarm records, computes trigger instants, issues
// schedule/cancel commands to the notifier and persists every mutation.
// It enforces the one-pending-trigger invariant: any operation that arms
// an alarm cancels the previous registration first. Operations on the
// same alarm id are serialized; distinct ids proceed concurrently.
package scheduler
