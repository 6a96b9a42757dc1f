// Package driven defines the outbound port interfaces the orchestrator
// depends on: the Driver contract implemented by each data source, plus
// the configuration and result persistence stores.
package driven
