// Package crunchbase fetches company profiles, funding rounds and
// investors from the Crunchbase v4 API. Requires a user key.
package crunchbase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
	"github.com/custodia-labs/prospect-cli/internal/core/ports/driven"
	"github.com/custodia-labs/prospect-cli/internal/drivers/httpx"
)

const defaultBaseURL = "https://api.crunchbase.com/api/v4"

// userKeyHeader carries the Crunchbase API key.
const userKeyHeader = "X-cb-user-key"

var _ driven.Driver = (*Driver)(nil)

// Driver resolves a company in Crunchbase via autocomplete search, then
// pulls its profile with funding_rounds and investors cards.
type Driver struct {
	client  *httpx.Client
	baseURL string
}

// New creates the Crunchbase driver.
func New() *Driver {
	return &Driver{
		client:  httpx.New(1, 1),
		baseURL: defaultBaseURL,
	}
}

// Descriptor returns the driver's static identity.
func (d *Driver) Descriptor() domain.DriverDescriptor {
	return domain.DriverDescriptor{
		Name:               "crunchbase",
		DisplayName:        "Crunchbase",
		Description:        "Startup database: profile, funding rounds, investors",
		RequiresCredential: true,
	}
}

type autocompleteResponse struct {
	Entities []struct {
		UUID       string `json:"uuid"`
		Identifier struct {
			Value string `json:"value"`
		} `json:"identifier"`
	} `json:"entities"`
}

// Fetch resolves the company and assembles its profile. A company absent
// from Crunchbase is a successful "found=false" result.
func (d *Driver) Fetch(ctx context.Context, entity domain.Entity, credential string, progress driven.ProgressSink) (map[string]any, error) {
	progress.Set(10)

	result := map[string]any{
		"company_name": entity.Name,
		"found":        false,
	}

	matches, err := d.search(ctx, credential, entity.Name)
	if err != nil {
		return nil, fmt.Errorf("crunchbase search: %w", err)
	}
	progress.Set(40)

	if len(matches.Entities) == 0 {
		return result, nil
	}
	match := matches.Entities[0]
	result["found"] = true
	result["crunchbase_url"] = fmt.Sprintf("https://www.crunchbase.com/organization/%s", match.Identifier.Value)

	details, err := d.lookup(ctx, credential, match.UUID)
	if err != nil {
		// The search index can reference organisations the entity API no
		// longer serves; treat that as absence, not failure.
		if httpx.IsStatus(err, http.StatusNotFound) {
			return result, nil
		}
		return nil, fmt.Errorf("crunchbase lookup: %w", err)
	}
	progress.Set(80)

	props, _ := details["properties"].(map[string]any)
	result["profile"] = map[string]any{
		"name":           props["name"],
		"description":    props["short_description"],
		"founded_on":     dig(props, "founded_on", "value"),
		"employee_count": props["num_employees_enum"],
		"company_type":   props["company_type"],
		"status":         props["status"],
	}
	result["founded_date"] = dig(props, "founded_on", "value")

	rounds, investors, totalUSD := fundingFromCards(details)
	result["funding"] = rounds
	result["funding_rounds_count"] = len(rounds)
	result["investors"] = investors
	result["total_funding_usd"] = totalUSD

	return result, nil
}

func (d *Driver) search(ctx context.Context, credential, name string) (*autocompleteResponse, error) {
	params := url.Values{}
	params.Set("query", name)
	params.Set("collection_ids", "organizations")
	params.Set("limit", "5")

	var resp autocompleteResponse
	u := fmt.Sprintf("%s/autocompletes?%s", d.baseURL, params.Encode())
	if err := d.client.GetJSON(ctx, u, d.header(credential), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (d *Driver) lookup(ctx context.Context, credential, uuid string) (map[string]any, error) {
	params := url.Values{}
	params.Set("card_ids", "funding_rounds,investors")
	params.Set("field_ids", "short_description,website,founded_on,num_employees_enum,company_type,status")

	var resp map[string]any
	u := fmt.Sprintf("%s/entities/organizations/%s?%s", d.baseURL, uuid, params.Encode())
	if err := d.client.GetJSON(ctx, u, d.header(credential), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (d *Driver) header(credential string) http.Header {
	h := http.Header{}
	h.Set(userKeyHeader, credential)
	return h
}

// fundingFromCards extracts funding rounds and investors from the entity
// response's cards.
func fundingFromCards(details map[string]any) (rounds, investors []map[string]any, totalUSD float64) {
	cards, _ := details["cards"].(map[string]any)

	for _, e := range entities(cards, "funding_rounds") {
		props, _ := e["properties"].(map[string]any)
		money, _ := props["money_raised"].(map[string]any)
		rounds = append(rounds, map[string]any{
			"round_type":   props["funding_type"],
			"announced_on": dig(props, "announced_on", "value"),
			"amount":       money["value"],
			"currency":     money["currency"],
		})
		if usd, ok := money["value_usd"].(float64); ok {
			totalUSD += usd
		}
	}

	for _, e := range entities(cards, "investors") {
		props, _ := e["properties"].(map[string]any)
		investors = append(investors, map[string]any{
			"name": dig(props, "identifier", "value"),
			"type": props["investor_type"],
		})
	}
	return rounds, investors, totalUSD
}

func entities(cards map[string]any, card string) []map[string]any {
	c, _ := cards[card].(map[string]any)
	raw, _ := c["entities"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, e := range raw {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// dig walks nested maps, returning nil when any step is absent.
func dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, key := range keys {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = node[key]
	}
	return cur
}
