// Package googlesearch fetches web results from the Google Custom Search
// JSON API. The credential is "apikey:cx" where cx identifies the
// programmable search engine.
package googlesearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
	"github.com/custodia-labs/prospect-cli/internal/core/ports/driven"
)

// resultsPerQuery is capped at 10 by the Custom Search API.
const resultsPerQuery = 10

var _ driven.Driver = (*Driver)(nil)

// Driver runs a company lookup and a recent-news query through a
// programmable search engine.
type Driver struct {
	// extraOptions lets tests point the service at a local server.
	extraOptions []option.ClientOption
}

// New creates the Google Custom Search driver.
func New() *Driver {
	return &Driver{}
}

// Descriptor returns the driver's static identity.
func (d *Driver) Descriptor() domain.DriverDescriptor {
	return domain.DriverDescriptor{
		Name:               "googlesearch",
		DisplayName:        "Google Custom Search",
		Description:        "Web results from a programmable search engine",
		RequiresCredential: true,
	}
}

// Fetch runs the two searches. Empty result sets are success.
func (d *Driver) Fetch(ctx context.Context, entity domain.Entity, credential string, progress driven.ProgressSink) (map[string]any, error) {
	apiKey, cx, err := splitCredential(credential)
	if err != nil {
		return nil, err
	}

	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, d.extraOptions...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, domain.Terminalf("google search client: %v", err)
	}
	progress.Set(10)

	queries := []struct {
		key   string
		query string
	}{
		{"company", fmt.Sprintf("%s company", entity.Name)},
		{"news", fmt.Sprintf("%s news", entity.Name)},
	}

	result := map[string]any{"company_name": entity.Name}
	for i, q := range queries {
		resp, err := svc.Cse.List().
			Cx(cx).
			Q(q.query).
			Num(resultsPerQuery).
			Context(ctx).
			Do()
		if err != nil {
			return nil, wrapError(fmt.Sprintf("google %s query", q.key), err)
		}

		items := make([]map[string]any, 0, len(resp.Items))
		for _, item := range resp.Items {
			items = append(items, map[string]any{
				"title":   item.Title,
				"link":    item.Link,
				"snippet": item.Snippet,
			})
		}
		result[q.key+"_results"] = items
		if resp.SearchInformation != nil {
			result[q.key+"_total_results"] = resp.SearchInformation.TotalResults
		}

		progress.Set(10 + float64(i+1)/float64(len(queries))*85)
	}

	return result, nil
}

// wrapError classifies googleapi errors: quota exhaustion retries, key or
// permission problems do not.
func wrapError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests:
			return domain.Transient(fmt.Errorf("%s: %w: %v", op, domain.ErrRateLimited, err))
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest:
			return domain.Terminalf("%s: %v", op, err)
		}
		if gerr.Code >= 500 {
			return domain.Transientf("%s: %v", op, err)
		}
		return domain.Terminalf("%s: %v", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// splitCredential parses "apikey:cx". A malformed credential cannot
// succeed on retry.
func splitCredential(credential string) (apiKey, cx string, err error) {
	apiKey, cx, ok := strings.Cut(credential, ":")
	if !ok || apiKey == "" || cx == "" {
		return "", "", domain.Terminalf("google search credential must be \"apikey:cx\"")
	}
	return apiKey, cx, nil
}
