package modrinth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/palgania/launcher/internal/models"
	"github.com/stretchr/testify/assert"
)

// hostRewriteDoer redirects catalog requests to a local test server.
type hostRewriteDoer struct {
	target *url.URL
	client *http.Client
}

func newHostRewriteDoer(t *testing.T, rawURL string, client *http.Client) *hostRewriteDoer {
	t.Helper()
	target, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("failed to parse test server url: %v", err)
	}
	return &hostRewriteDoer{target: target, client: client}
}

func (d *hostRewriteDoer) Do(request *http.Request) (*http.Response, error) {
	request.URL.Scheme = d.target.Scheme
	request.URL.Host = d.target.Host
	return d.client.Do(request)
}

type errorDoer struct {
	err error
}

func (d errorDoer) Do(*http.Request) (*http.Response, error) {
	return nil, d.err
}

func TestSearchProjects(t *testing.T) {
	mockResponse := `{
		"hits": [
			{
				"project_id": "AANobbMI",
				"slug": "sodium",
				"title": "Sodium",
				"description": "A modern rendering engine",
				"categories": ["optimization", "fabric"],
				"versions": ["1.21.1", "1.21.11"]
			}
		],
		"total_hits": 1
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/search", r.URL.Path)
		assert.Equal(t, "sodium", r.URL.Query().Get("query"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))

		var facets [][]string
		assert.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("facets")), &facets))
		assert.Contains(t, facets, []string{"project_type:mod"})
		assert.Contains(t, facets, []string{"categories:fabric"})
		assert.Contains(t, facets, []string{"versions:1.21.11"})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(mockResponse))
	}))
	defer server.Close()

	hit, err := SearchProjects(context.Background(), SearchLookup{
		Query:       "sodium",
		Kind:        models.ModKind,
		Loader:      models.FABRIC,
		GameVersion: "1.21.11",
	}, NewClient(newHostRewriteDoer(t, server.URL, server.Client())))

	assert.NoError(t, err)
	assert.Equal(t, "AANobbMI", hit.ProjectID)
	assert.Equal(t, "sodium", hit.Slug)
	assert.Equal(t, "Sodium", hit.Title)
}

func TestSearchProjectsFallbackWidensVersionFacet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var facets [][]string
		assert.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("facets")), &facets))
		assert.Contains(t, facets, []string{"versions:1.21.11", "versions:1.21.10", "versions:1.21"})

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"hits":[{"project_id":"AANobbMI","slug":"sodium","title":"Sodium"}],"total_hits":1}`))
	}))
	defer server.Close()

	hit, err := SearchProjects(context.Background(), SearchLookup{
		Query:            "sodium",
		Kind:             models.ModKind,
		Loader:           models.FABRIC,
		GameVersion:      "1.21.11",
		FallbackVersions: []string{"1.21.10", "1.21"},
	}, newHostRewriteDoer(t, server.URL, server.Client()))

	assert.NoError(t, err)
	assert.Equal(t, "AANobbMI", hit.ProjectID)
}

func TestSearchProjectsShaderpackUsesIrisCategory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var facets [][]string
		assert.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("facets")), &facets))
		assert.Contains(t, facets, []string{"project_type:shader"})
		assert.Contains(t, facets, []string{"categories:iris"})

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"hits":[{"project_id":"YL57xq9U","slug":"iris","title":"Iris"}],"total_hits":1}`))
	}))
	defer server.Close()

	hit, err := SearchProjects(context.Background(), SearchLookup{
		Query:  "iris",
		Kind:   models.ShaderpackKind,
		Loader: models.FABRIC,
	}, newHostRewriteDoer(t, server.URL, server.Client()))

	assert.NoError(t, err)
	assert.Equal(t, "iris", hit.Slug)
}

func TestSearchProjectsZeroHitsIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"hits":[],"total_hits":0}`))
	}))
	defer server.Close()

	hit, err := SearchProjects(context.Background(), SearchLookup{
		Query:  "doesnotexist123",
		Kind:   models.ModKind,
		Loader: models.FABRIC,
	}, newHostRewriteDoer(t, server.URL, server.Client()))

	assert.Nil(t, hit)
	assert.ErrorIs(t, err, &ProjectNotFoundError{Query: "doesnotexist123"})
}

func TestSearchProjectsRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	hit, err := SearchProjects(context.Background(), SearchLookup{
		Query:  "sodium",
		Kind:   models.ModKind,
		Loader: models.FABRIC,
	}, newHostRewriteDoer(t, server.URL, server.Client()))

	assert.Nil(t, hit)
	var rateLimited *RateLimitError
	assert.ErrorAs(t, err, &rateLimited)
}

func TestSearchProjectsUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	hit, err := SearchProjects(context.Background(), SearchLookup{
		Query:  "sodium",
		Kind:   models.ModKind,
		Loader: models.FABRIC,
	}, newHostRewriteDoer(t, server.URL, server.Client()))

	assert.Nil(t, hit)
	var apiErr *CatalogAPIError
	assert.ErrorAs(t, err, &apiErr)
	assert.ErrorContains(t, apiErr.Unwrap(), "unexpected status code: 418")
}

func TestSearchProjectsTransportError(t *testing.T) {
	hit, err := SearchProjects(context.Background(), SearchLookup{
		Query:  "sodium",
		Kind:   models.ModKind,
		Loader: models.FABRIC,
	}, errorDoer{err: assert.AnError})

	assert.Nil(t, hit)
	var apiErr *CatalogAPIError
	assert.ErrorAs(t, err, &apiErr)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSearchProjectsDecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{"))
	}))
	defer server.Close()

	hit, err := SearchProjects(context.Background(), SearchLookup{
		Query:  "sodium",
		Kind:   models.ModKind,
		Loader: models.FABRIC,
	}, newHostRewriteDoer(t, server.URL, server.Client()))

	assert.Nil(t, hit)
	assert.Error(t, err)
}

func TestClientAddsIdentifyingHeaders(t *testing.T) {
	t.Setenv("MODRINTH_API_KEY", "test-api-key")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("user-agent"), "github_com/palgania/launcher/"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "test-api-key", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"hits":[{"project_id":"x","slug":"x","title":"x"}],"total_hits":1}`))
	}))
	defer server.Close()

	_, err := SearchProjects(context.Background(), SearchLookup{
		Query:  "sodium",
		Kind:   models.ModKind,
		Loader: models.FABRIC,
	}, NewClient(newHostRewriteDoer(t, server.URL, server.Client())))
	assert.NoError(t, err)
}

func TestBaseURLIsConstant(t *testing.T) {
	assert.Equal(t, "https://api.modrinth.com", GetBaseUrl())
}
