package services

import (
	"github.com/custodia-labs/prospect-cli/internal/core/ports/driven"
	"github.com/custodia-labs/prospect-cli/internal/drivers/crunchbase"
	"github.com/custodia-labs/prospect-cli/internal/drivers/github"
	"github.com/custodia-labs/prospect-cli/internal/drivers/googlesearch"
	"github.com/custodia-labs/prospect-cli/internal/drivers/serpapi"
	"github.com/custodia-labs/prospect-cli/internal/drivers/tavily"
	"github.com/custodia-labs/prospect-cli/internal/drivers/wayback"
)

// DefaultDrivers returns the built-in data sources.
func DefaultDrivers() []driven.Driver {
	return []driven.Driver{
		wayback.New(),
		tavily.New(),
		crunchbase.New(),
		serpapi.New(),
		github.New(),
		googlesearch.New(),
	}
}
