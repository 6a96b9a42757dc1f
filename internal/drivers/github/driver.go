// Package github fetches an organisation's open-source footprint from the
// GitHub API: public repositories, languages, and activity signals.
// Requires a personal access token.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
	"github.com/custodia-labs/prospect-cli/internal/core/ports/driven"
)

// repoLimit caps repositories listed per organisation.
const repoLimit = 30

var _ driven.Driver = (*Driver)(nil)

// Driver looks up the entity as a GitHub organisation and summarises its
// public repositories. A company with no GitHub presence is a successful
// "found=false" result.
type Driver struct {
	// baseURL overrides the API endpoint in tests.
	baseURL string
}

// New creates the GitHub driver.
func New() *Driver {
	return &Driver{}
}

// Descriptor returns the driver's static identity.
func (d *Driver) Descriptor() domain.DriverDescriptor {
	return domain.DriverDescriptor{
		Name:               "github",
		DisplayName:        "GitHub",
		Description:        "Open-source footprint: public repos, languages, activity",
		RequiresCredential: true,
	}
}

// Fetch resolves the organisation and summarises its repositories.
func (d *Driver) Fetch(ctx context.Context, entity domain.Entity, credential string, progress driven.ProgressSink) (map[string]any, error) {
	client, err := d.newClient(ctx, credential)
	if err != nil {
		return nil, err
	}
	progress.Set(10)

	slug := orgSlug(entity.Name)
	result := map[string]any{
		"company_name": entity.Name,
		"org_slug":     slug,
		"found":        false,
	}

	org, resp, err := client.Organizations.Get(ctx, slug)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			result["message"] = fmt.Sprintf("no GitHub organisation named %q", slug)
			return result, nil
		}
		return nil, wrapError("github organisation lookup", err)
	}
	progress.Set(35)

	result["found"] = true
	result["organization"] = map[string]any{
		"login":        org.GetLogin(),
		"name":         org.GetName(),
		"description":  org.GetDescription(),
		"blog":         org.GetBlog(),
		"location":     org.GetLocation(),
		"public_repos": org.GetPublicRepos(),
		"followers":    org.GetFollowers(),
		"created_at":   org.GetCreatedAt().Format(time.RFC3339),
		"html_url":     org.GetHTMLURL(),
	}

	repos, err := d.listRepos(ctx, client, slug)
	if err != nil {
		return nil, wrapError("github repository listing", err)
	}
	progress.Set(85)

	summaries := make([]map[string]any, 0, len(repos))
	languages := map[string]int{}
	totalStars := 0
	for _, repo := range repos {
		summaries = append(summaries, map[string]any{
			"name":        repo.GetName(),
			"description": repo.GetDescription(),
			"language":    repo.GetLanguage(),
			"stars":       repo.GetStargazersCount(),
			"forks":       repo.GetForksCount(),
			"pushed_at":   repo.GetPushedAt().Format(time.RFC3339),
			"html_url":    repo.GetHTMLURL(),
		})
		totalStars += repo.GetStargazersCount()
		if lang := repo.GetLanguage(); lang != "" {
			languages[lang]++
		}
	}

	result["repositories"] = summaries
	result["repository_count"] = len(summaries)
	result["total_stars"] = totalStars
	result["top_languages"] = topLanguages(languages, 5)

	return result, nil
}

// newClient builds an authenticated go-github client. An endpoint override
// redirects requests to a test server.
func (d *Driver) newClient(ctx context.Context, credential string) (*gh.Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credential})
	client := gh.NewClient(oauth2.NewClient(ctx, ts))
	if d.baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(d.baseURL, d.baseURL)
		if err != nil {
			return nil, domain.Terminalf("github client: %v", err)
		}
	}
	return client, nil
}

func (d *Driver) listRepos(ctx context.Context, client *gh.Client, slug string) ([]*gh.Repository, error) {
	opts := &gh.RepositoryListByOrgOptions{
		Type:        "public",
		Sort:        "pushed",
		ListOptions: gh.ListOptions{PerPage: repoLimit},
	}
	repos, _, err := client.Repositories.ListByOrg(ctx, slug, opts)
	return repos, err
}

// wrapError classifies go-github errors: rate limits retry, auth
// rejections do not.
func wrapError(op string, err error) error {
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return domain.Transient(fmt.Errorf("%s: %w: %w", op, domain.ErrRateLimited, err))
	}
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.Terminalf("%s: %v", op, err)
		}
		if respErr.Response.StatusCode >= 500 {
			return domain.Transientf("%s: %v", op, err)
		}
		return domain.Terminalf("%s: %v", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// orgSlug guesses a GitHub organisation login from the company name.
func orgSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	for _, noise := range []string{" inc", " corp", " gmbh", " ltd"} {
		slug = strings.TrimSuffix(slug, noise)
	}
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, ".", "")
	return slug
}

// topLanguages returns the n most common languages, most used first.
func topLanguages(counts map[string]int, n int) []string {
	langs := make([]string, 0, len(counts))
	for lang := range counts {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		if counts[langs[i]] != counts[langs[j]] {
			return counts[langs[i]] > counts[langs[j]]
		}
		return langs[i] < langs[j]
	})
	if len(langs) > n {
		langs = langs[:n]
	}
	return langs
}
