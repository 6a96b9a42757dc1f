// Package wayback fetches historical website snapshots from the Internet
// Archive Wayback Machine. No credential required.
package wayback

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
	"github.com/custodia-labs/prospect-cli/internal/core/ports/driven"
	"github.com/custodia-labs/prospect-cli/internal/drivers/httpx"
)

const (
	defaultAvailabilityURL = "https://archive.org/wayback/available"
	defaultCDXURL          = "https://web.archive.org/cdx/search/cdx"

	// snapshotLimit caps the CDX timeline, collapsed to one capture per day.
	snapshotLimit = 100
)

// Ensure Driver implements the contract.
var _ driven.Driver = (*Driver)(nil)

// Driver queries the Wayback Machine for a company's snapshot history:
// first appearance (a proxy for company age), capture cadence, and links
// to the earliest and latest archived pages.
type Driver struct {
	client          *httpx.Client
	availabilityURL string
	cdxURL          string
}

// New creates the Wayback Machine driver.
func New() *Driver {
	return &Driver{
		client:          httpx.New(2, 1),
		availabilityURL: defaultAvailabilityURL,
		cdxURL:          defaultCDXURL,
	}
}

// Descriptor returns the driver's static identity.
func (d *Driver) Descriptor() domain.DriverDescriptor {
	return domain.DriverDescriptor{
		Name:               "wayback",
		DisplayName:        "Wayback Machine",
		Description:        "Historical website snapshots from the Internet Archive",
		RequiresCredential: false,
	}
}

type availabilityResponse struct {
	ArchivedSnapshots struct {
		Closest *struct {
			URL       string `json:"url"`
			Timestamp string `json:"timestamp"`
			Status    string `json:"status"`
			Available bool   `json:"available"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// Fetch looks up the entity's homepage in the archive. A homepage that was
// never archived is a successful "available=false" result, not a failure.
func (d *Driver) Fetch(ctx context.Context, entity domain.Entity, _ string, progress driven.ProgressSink) (map[string]any, error) {
	homepage := normaliseHomepage(entity)
	progress.Set(10)

	result := map[string]any{
		"url":       homepage,
		"available": false,
	}

	avail, err := d.checkAvailability(ctx, homepage)
	if err != nil {
		return nil, fmt.Errorf("wayback availability: %w", err)
	}
	progress.Set(40)

	if avail.ArchivedSnapshots.Closest == nil || !avail.ArchivedSnapshots.Closest.Available {
		result["message"] = fmt.Sprintf("%s has not been archived by the Wayback Machine", homepage)
		progress.Set(100)
		return result, nil
	}
	result["available"] = true

	snapshots, err := d.fetchTimeline(ctx, homepage)
	if err != nil {
		return nil, fmt.Errorf("wayback timeline: %w", err)
	}
	progress.Set(90)

	result["snapshots"] = snapshots
	result["total_snapshots"] = len(snapshots)
	if len(snapshots) > 0 {
		first, latest := snapshots[0], snapshots[len(snapshots)-1]
		result["first_snapshot"] = first
		result["latest_snapshot"] = latest
		if age, ok := ageFromTimestamp(first["timestamp"].(string)); ok {
			days := age.Hours() / 24
			result["company_age_days"] = int(days)
			result["company_age_years"] = math.Round(days/365.25*10) / 10
		}
	}
	return result, nil
}

func (d *Driver) checkAvailability(ctx context.Context, homepage string) (*availabilityResponse, error) {
	u := fmt.Sprintf("%s?url=%s", d.availabilityURL, url.QueryEscape(homepage))
	var resp availabilityResponse
	if err := d.client.GetJSON(ctx, u, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// fetchTimeline queries the CDX API for successful captures, one per day.
func (d *Driver) fetchTimeline(ctx context.Context, homepage string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("url", homepage)
	params.Set("output", "json")
	params.Set("fl", "timestamp,statuscode,mimetype,length")
	params.Set("filter", "statuscode:200")
	params.Set("collapse", "timestamp:8")
	params.Set("limit", fmt.Sprintf("%d", snapshotLimit))

	var rows [][]string
	if err := d.client.GetJSON(ctx, d.cdxURL+"?"+params.Encode(), nil, &rows); err != nil {
		return nil, err
	}

	// First row is the CDX header.
	if len(rows) > 0 {
		rows = rows[1:]
	}

	snapshots := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		snapshot := map[string]any{
			"timestamp":   row[0],
			"status_code": row[1],
			"mime_type":   row[2],
			"length":      row[3],
			"url":         fmt.Sprintf("https://web.archive.org/web/%s/%s", row[0], homepage),
		}
		if ts, err := time.Parse("20060102", row[0][:min(8, len(row[0]))]); err == nil {
			snapshot["date"] = ts.Format("2006-01-02")
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

func ageFromTimestamp(timestamp string) (time.Duration, bool) {
	if len(timestamp) < 8 {
		return 0, false
	}
	first, err := time.Parse("20060102", timestamp[:8])
	if err != nil {
		return 0, false
	}
	return time.Since(first), true
}

// normaliseHomepage returns the entity homepage, or a best-effort guess
// from the company name when none is configured.
func normaliseHomepage(entity domain.Entity) string {
	homepage := strings.TrimSpace(entity.Homepage)
	if homepage == "" {
		domainName := strings.ToLower(entity.Name)
		for _, noise := range []string{" inc", " corp", " gmbh", " ltd", "."} {
			domainName = strings.ReplaceAll(domainName, noise, "")
		}
		domainName = strings.ReplaceAll(domainName, " ", "")
		homepage = fmt.Sprintf("https://www.%s.com", domainName)
	}
	if !strings.HasPrefix(homepage, "http://") && !strings.HasPrefix(homepage, "https://") {
		homepage = "https://" + homepage
	}
	return homepage
}
