// Package tavily fetches AI-curated search results from the Tavily API.
// Requires an API key.
package tavily

import (
	"context"
	"fmt"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
	"github.com/custodia-labs/prospect-cli/internal/core/ports/driven"
	"github.com/custodia-labs/prospect-cli/internal/drivers/httpx"
)

const defaultEndpoint = "https://api.tavily.com/search"

// maxResults caps results per query; Tavily ranks by relevance.
const maxResults = 5

var _ driven.Driver = (*Driver)(nil)

// Driver queries Tavily, an AI search engine that returns cleaned,
// structured content with citations. Two queries per fetch: a company
// overview and a funding-news lookup.
type Driver struct {
	client   *httpx.Client
	endpoint string
}

// New creates the Tavily driver.
func New() *Driver {
	return &Driver{
		client:   httpx.New(1, 1),
		endpoint: defaultEndpoint,
	}
}

// Descriptor returns the driver's static identity.
func (d *Driver) Descriptor() domain.DriverDescriptor {
	return domain.DriverDescriptor{
		Name:               "tavily",
		DisplayName:        "Tavily AI Search",
		Description:        "AI-curated web search with citations",
		RequiresCredential: true,
	}
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Fetch runs the overview and funding queries. An empty result list is a
// successful outcome.
func (d *Driver) Fetch(ctx context.Context, entity domain.Entity, credential string, progress driven.ProgressSink) (map[string]any, error) {
	progress.Set(5)

	queries := []struct {
		key   string
		query string
	}{
		{"overview", fmt.Sprintf("%s company overview", entity.Name)},
		{"funding", fmt.Sprintf("%s funding investors", entity.Name)},
	}

	result := map[string]any{"company_name": entity.Name}
	for i, q := range queries {
		resp, err := d.search(ctx, credential, q.query)
		if err != nil {
			return nil, fmt.Errorf("tavily %s query: %w", q.key, err)
		}

		items := make([]map[string]any, 0, len(resp.Results))
		for _, r := range resp.Results {
			items = append(items, map[string]any{
				"title":   r.Title,
				"url":     r.URL,
				"content": r.Content,
				"score":   r.Score,
			})
		}
		result[q.key+"_answer"] = resp.Answer
		result[q.key+"_results"] = items

		progress.Set(5 + float64(i+1)/float64(len(queries))*90)
	}

	return result, nil
}

func (d *Driver) search(ctx context.Context, credential, query string) (*searchResponse, error) {
	req := searchRequest{
		APIKey:        credential,
		Query:         query,
		SearchDepth:   "advanced",
		MaxResults:    maxResults,
		IncludeAnswer: true,
	}
	var resp searchResponse
	if err := d.client.PostJSON(ctx, d.endpoint, req, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
