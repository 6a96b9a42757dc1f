// Package services contains the orchestration core: the DriverManager that
// fans research runs out across data-source drivers, the retry/timeout
// policy wrapping each invocation, and the per-invocation progress
// trackers the manager polls for aggregate progress.
package services
