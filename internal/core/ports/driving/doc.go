// Package driving defines the inbound port interfaces through which the
// CLI and TUI drive the research orchestrator.
package driving
