package modrinth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/palgania/launcher/internal/httpclient"
	"github.com/palgania/launcher/internal/models"
	"github.com/palgania/launcher/internal/perf"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

type ProjectHit struct {
	ProjectID    string   `json:"project_id"`
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Categories   []string `json:"categories"`
	GameVersions []string `json:"versions"`
}

type searchResponse struct {
	Hits      []ProjectHit `json:"hits"`
	TotalHits int          `json:"total_hits"`
}

type SearchLookup struct {
	Query       string
	Kind        models.Kind
	Loader      models.Loader
	GameVersion string

	// FallbackVersions widens the version facet into an OR group, so a
	// project published only for a nearby point release still surfaces.
	FallbackVersions []string
}

// facets builds the JSON facet filter: each inner list is an OR group, the
// outer list is AND. One group per dimension keeps everything conjunctive.
func (lookup SearchLookup) facets() string {
	groups := [][]string{
		{"project_type:" + lookup.Kind.ProjectType()},
		{"categories:" + lookup.Kind.EffectiveFacetCategory(lookup.Loader)},
	}
	if lookup.GameVersion != "" {
		versions := []string{"versions:" + lookup.GameVersion}
		for _, fallback := range lookup.FallbackVersions {
			versions = append(versions, "versions:"+fallback)
		}
		groups = append(groups, versions)
	}
	encoded, _ := json.Marshal(groups)
	return string(encoded)
}

// SearchProjects returns the catalog's best hit for the lookup, or a
// ProjectNotFoundError when nothing matches.
func SearchProjects(ctx context.Context, lookup SearchLookup, client httpclient.Doer) (*ProjectHit, error) {
	ctx, span := perf.StartSpan(ctx, "api.modrinth.search",
		perf.WithAttributes(
			attribute.String("query", lookup.Query),
			attribute.String("kind", lookup.Kind.String()),
		),
	)
	defer span.End()

	searchURL, _ := url.Parse(fmt.Sprintf("%s/v2/search", GetBaseUrl()))
	query := url.Values{}
	query.Set("query", lookup.Query)
	query.Set("facets", lookup.facets())
	query.Set("limit", strconv.Itoa(1))
	query.Set("offset", strconv.Itoa(0))
	searchURL.RawQuery = query.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, CatalogAPIErrorWrap(err, lookup.Query)
	}

	response, err := client.Do(request)
	if err != nil {
		return nil, CatalogAPIErrorWrap(err, lookup.Query)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return nil, &ProjectNotFoundError{Query: lookup.Query}
	}

	if response.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{Query: lookup.Query}
	}

	if response.StatusCode != http.StatusOK {
		return nil, catalogStatusError(response.StatusCode, lookup.Query)
	}

	result := &searchResponse{}
	if err := json.NewDecoder(response.Body).Decode(result); err != nil {
		return nil, CatalogAPIErrorWrap(errors.Wrap(err, "failed to decode search response"), lookup.Query)
	}

	if len(result.Hits) == 0 {
		return nil, &ProjectNotFoundError{Query: lookup.Query}
	}

	return &result.Hits[0], nil
}
