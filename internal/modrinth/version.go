package modrinth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/palgania/launcher/internal/httpclient"
	"github.com/palgania/launcher/internal/models"
	"github.com/palgania/launcher/internal/perf"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

type VersionFileHash struct {
	Sha1   string `json:"sha1"`
	Sha512 string `json:"sha512"`
}

type VersionFile struct {
	FileName string          `json:"filename"`
	Hashes   VersionFileHash `json:"hashes"`
	Primary  bool            `json:"primary"`
	Size     int64           `json:"size"`
	Url      string          `json:"url"`
}

type Version struct {
	DatePublished time.Time          `json:"date_published"`
	Files         []VersionFile      `json:"files"`
	GameVersions  []string           `json:"game_versions"`
	Loaders       []string           `json:"loaders"`
	Name          string             `json:"name"`
	ProjectId     string             `json:"project_id"`
	Type          models.ReleaseType `json:"version_type"`
	VersionId     string             `json:"id"`
	VersionNumber string             `json:"version_number"`
}

type Versions []Version

// VersionLookup filters the catalog's version list. Loaders holds facet
// category names (the kind decides them, see models.Kind), not the launcher
// loader enum.
type VersionLookup struct {
	ProjectId    string
	Loaders      []string
	GameVersions []string
}

// GetVersionsForProject lists versions in the catalog's own relevance order.
// The order is preserved; selection happens in PickVersion.
func GetVersionsForProject(ctx context.Context, lookup *VersionLookup, client httpclient.Doer) (Versions, error) {
	ctx, span := perf.StartSpan(ctx, "api.modrinth.version.list", perf.WithAttributes(attribute.String("project_id", lookup.ProjectId)))
	defer span.End()

	gameVersionsJSON, _ := json.Marshal(lookup.GameVersions)
	loadersJSON, _ := json.Marshal(lookup.Loaders)

	requestURL, _ := url.Parse(fmt.Sprintf("%s/v2/project/%s/version", GetBaseUrl(), lookup.ProjectId))
	query := url.Values{}
	query.Set("game_versions", string(gameVersionsJSON))
	query.Set("loaders", string(loadersJSON))
	requestURL.RawQuery = query.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL.String(), nil)
	if err != nil {
		return nil, CatalogAPIErrorWrap(err, lookup.ProjectId)
	}

	response, err := client.Do(request)
	if err != nil {
		return nil, CatalogAPIErrorWrap(err, lookup.ProjectId)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return nil, &ProjectNotFoundError{Query: lookup.ProjectId}
	}

	if response.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{Query: lookup.ProjectId}
	}

	if response.StatusCode != http.StatusOK {
		return nil, catalogStatusError(response.StatusCode, lookup.ProjectId)
	}

	result := &Versions{}
	if err := json.NewDecoder(response.Body).Decode(result); err != nil {
		return nil, CatalogAPIErrorWrap(errors.Wrap(err, "failed to decode version listing"), lookup.ProjectId)
	}
	return *result, nil
}

// PickVersion applies the selection policy: exact game-version containment
// only, never a family or point-release fallback. Among exact matches a
// release build wins; otherwise the catalog's first ordering stands.
func PickVersion(versions Versions, gameVersion string) (*Version, bool) {
	var exact Versions
	for _, version := range versions {
		if containsGameVersion(version.GameVersions, gameVersion) {
			exact = append(exact, version)
		}
	}

	if len(exact) == 0 {
		return nil, false
	}

	for index := range exact {
		if exact[index].Type == models.Release {
			return &exact[index], true
		}
	}
	return &exact[0], true
}

// PickFile prefers the version's primary file, else the first listed.
func PickFile(version *Version) (VersionFile, bool) {
	if version == nil || len(version.Files) == 0 {
		return VersionFile{}, false
	}
	for _, file := range version.Files {
		if file.Primary {
			return file, true
		}
	}
	return version.Files[0], true
}

func containsGameVersion(gameVersions []string, target string) bool {
	for _, version := range gameVersions {
		if version == target {
			return true
		}
	}
	return false
}
