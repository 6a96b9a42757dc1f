// Package domain contains the core types of the research orchestrator:
// entities under research, driver identity and configuration, the
// driver-invocation state machine, per-driver results and the aggregate
// result bundle. Domain types have no dependencies on adapters or drivers.
package domain
