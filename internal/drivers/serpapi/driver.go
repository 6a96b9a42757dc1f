// Package serpapi fetches Google search results through SerpAPI.
// Requires an API key.
package serpapi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
	"github.com/custodia-labs/prospect-cli/internal/core/ports/driven"
	"github.com/custodia-labs/prospect-cli/internal/drivers/httpx"
)

const defaultEndpoint = "https://serpapi.com/search"

// resultsPerQuery caps organic results kept per query.
const resultsPerQuery = 8

var _ driven.Driver = (*Driver)(nil)

// Driver runs three Google searches through SerpAPI: a general company
// lookup, funding news, and technology coverage. The first query's
// knowledge graph panel, when Google shows one, is kept as well.
type Driver struct {
	client   *httpx.Client
	endpoint string
}

// New creates the SerpAPI driver.
func New() *Driver {
	return &Driver{
		client:   httpx.New(1, 1),
		endpoint: defaultEndpoint,
	}
}

// Descriptor returns the driver's static identity.
func (d *Driver) Descriptor() domain.DriverDescriptor {
	return domain.DriverDescriptor{
		Name:               "serpapi",
		DisplayName:        "SerpAPI",
		Description:        "Google search results and knowledge graph via SerpAPI",
		RequiresCredential: true,
	}
}

type searchResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Source  string `json:"source"`
	} `json:"organic_results"`
	KnowledgeGraph map[string]any `json:"knowledge_graph"`
}

// Fetch runs the three searches. Queries that return nothing still count
// as success.
func (d *Driver) Fetch(ctx context.Context, entity domain.Entity, credential string, progress driven.ProgressSink) (map[string]any, error) {
	progress.Set(10)

	queries := []struct {
		key   string
		query string
	}{
		{"company", fmt.Sprintf("%s company", entity.Name)},
		{"funding_news", fmt.Sprintf("%s funding news", entity.Name)},
		{"technology", fmt.Sprintf("%s technology innovation", entity.Name)},
	}

	result := map[string]any{"company_name": entity.Name}
	for i, q := range queries {
		resp, err := d.search(ctx, credential, q.query)
		if err != nil {
			return nil, fmt.Errorf("serpapi %s query: %w", q.key, err)
		}

		items := make([]map[string]any, 0, len(resp.OrganicResults))
		for _, r := range resp.OrganicResults {
			if len(items) == resultsPerQuery {
				break
			}
			items = append(items, map[string]any{
				"title":   r.Title,
				"link":    r.Link,
				"snippet": r.Snippet,
				"source":  r.Source,
			})
		}
		result[q.key+"_results"] = items

		if i == 0 && len(resp.KnowledgeGraph) > 0 {
			result["knowledge_graph"] = resp.KnowledgeGraph
		}

		progress.Set(10 + float64(i+1)/float64(len(queries))*80)
	}

	return result, nil
}

func (d *Driver) search(ctx context.Context, credential, query string) (*searchResponse, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", credential)
	params.Set("num", fmt.Sprintf("%d", resultsPerQuery))

	var resp searchResponse
	if err := d.client.GetJSON(ctx, d.endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
