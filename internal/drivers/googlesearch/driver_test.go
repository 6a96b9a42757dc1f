package googlesearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
)

type nopSink struct{}

func (nopSink) Set(float64) {}

func newTestDriver(handler http.HandlerFunc) (*Driver, func()) {
	srv := httptest.NewServer(handler)
	d := &Driver{extraOptions: []option.ClientOption{option.WithEndpoint(srv.URL)}}
	return d, srv.Close
}

func TestFetch_TwoQueries(t *testing.T) {
	var queries []string
	d, closeSrv := newTestDriver(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "engine-id", r.URL.Query().Get("cx"))
		queries = append(queries, r.URL.Query().Get("q"))

		_, _ = w.Write([]byte(`{
			"items":[{"title":"Acme - Official Site","link":"https://acme.com","snippet":"Anvils since 2010"}],
			"searchInformation":{"totalResults":"1234"}
		}`))
	})
	defer closeSrv()

	data, err := d.Fetch(context.Background(), domain.Entity{Name: "Acme"}, "api-key:engine-id", nopSink{})

	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "Acme company", queries[0])
	assert.Equal(t, "Acme news", queries[1])

	results, ok := data["company_results"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, results, 1)
	assert.Equal(t, "https://acme.com", results[0]["link"])
	assert.Equal(t, "1234", data["company_total_results"])
}

func TestFetch_QuotaExceededIsTransient(t *testing.T) {
	d, closeSrv := newTestDriver(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Quota exceeded"}}`))
	})
	defer closeSrv()

	_, err := d.Fetch(context.Background(), domain.Entity{Name: "Acme"}, "api-key:engine-id", nopSink{})

	require.Error(t, err)
	assert.Equal(t, domain.KindTransient, domain.Classify(err))
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestFetch_InvalidKeyIsTerminal(t *testing.T) {
	d, closeSrv := newTestDriver(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	})
	defer closeSrv()

	_, err := d.Fetch(context.Background(), domain.Entity{Name: "Acme"}, "bad-key:engine-id", nopSink{})

	require.Error(t, err)
	assert.Equal(t, domain.KindTerminal, domain.Classify(err))
}

func TestSplitCredential(t *testing.T) {
	apiKey, cx, err := splitCredential("key:cx-id")
	require.NoError(t, err)
	assert.Equal(t, "key", apiKey)
	assert.Equal(t, "cx-id", cx)

	for _, malformed := range []string{"", "keyonly", ":cx", "key:"} {
		_, _, err := splitCredential(malformed)
		require.Error(t, err, malformed)
		assert.Equal(t, domain.KindTerminal, domain.Classify(err))
	}
}
