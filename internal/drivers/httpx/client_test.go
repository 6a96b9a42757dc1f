package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
)

func testServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetJSON_Success(t *testing.T) {
	srv := testServer(t, http.StatusOK, `{"name":"acme","count":3}`)
	c := New(100, 1)

	var out struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	err := c.GetJSON(context.Background(), srv.URL, nil, &out)

	require.NoError(t, err)
	assert.Equal(t, "acme", out.Name)
	assert.Equal(t, 3, out.Count)
}

func TestGetJSON_SendsHeaders(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(100, 1)
	header := http.Header{}
	header.Set("X-Api-Key", "secret")
	err := c.GetJSON(context.Background(), srv.URL, header, &struct{}{})

	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
}

func TestGetJSON_Classification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   domain.ErrorKind
	}{
		{"server error is transient", http.StatusInternalServerError, domain.KindTransient},
		{"bad gateway is transient", http.StatusBadGateway, domain.KindTransient},
		{"rate limit is transient", http.StatusTooManyRequests, domain.KindTransient},
		{"unauthorized is terminal", http.StatusUnauthorized, domain.KindTerminal},
		{"forbidden is terminal", http.StatusForbidden, domain.KindTerminal},
		{"not found is terminal", http.StatusNotFound, domain.KindTerminal},
		{"bad request is terminal", http.StatusBadRequest, domain.KindTerminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, tt.status, "nope")
			c := New(100, 1)

			err := c.GetJSON(context.Background(), srv.URL, nil, &struct{}{})

			require.Error(t, err)
			assert.Equal(t, tt.want, domain.Classify(err))
		})
	}
}

func TestGetJSON_RateLimitSentinel(t *testing.T) {
	srv := testServer(t, http.StatusTooManyRequests, "slow down")
	c := New(100, 1)

	err := c.GetJSON(context.Background(), srv.URL, nil, &struct{}{})

	require.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestGetJSON_MalformedBodyIsTerminal(t *testing.T) {
	srv := testServer(t, http.StatusOK, "{not json")
	c := New(100, 1)

	err := c.GetJSON(context.Background(), srv.URL, nil, &struct{}{})

	require.Error(t, err)
	assert.Equal(t, domain.KindTerminal, domain.Classify(err))
}

func TestPostJSON_SendsBody(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = buf
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(100, 1)
	err := c.PostJSON(context.Background(), srv.URL, map[string]string{"query": "acme"}, nil, &struct{}{})

	require.NoError(t, err)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"query":"acme"}`, string(gotBody))
}

func TestIsStatus(t *testing.T) {
	srv := testServer(t, http.StatusNotFound, "missing")
	c := New(100, 1)

	err := c.GetJSON(context.Background(), srv.URL, nil, &struct{}{})

	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.False(t, IsStatus(err, http.StatusForbidden))
}

func TestGetJSON_LimiterDeadlineOverrunIsTransient(t *testing.T) {
	srv := testServer(t, http.StatusOK, `{}`)
	c := New(0.0001, 1)

	// Burn the single burst token so the next call must wait ~hours.
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, nil, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.GetJSON(ctx, srv.URL, nil, nil)

	require.Error(t, err)
	assert.Equal(t, domain.KindTransient, domain.Classify(err),
		"a throttle wait that cannot fit the attempt deadline is a timeout, not an abort")
}

func TestGetJSON_LimiterCallerCancellationIsCancelled(t *testing.T) {
	srv := testServer(t, http.StatusOK, `{}`)
	c := New(0.0001, 1)

	require.NoError(t, c.GetJSON(context.Background(), srv.URL, nil, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.GetJSON(ctx, srv.URL, nil, nil)

	require.Error(t, err)
	assert.Equal(t, domain.KindCancelled, domain.Classify(err))
}

func TestGetJSON_ConnectionRefusedIsTransient(t *testing.T) {
	c := New(100, 1)

	// Port 1 is essentially never listening.
	err := c.GetJSON(context.Background(), "http://127.0.0.1:1/nope", nil, &struct{}{})

	require.Error(t, err)
	assert.Equal(t, domain.KindTransient, domain.Classify(err))
}
