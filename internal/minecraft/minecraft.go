// Package minecraft queries Mojang's public version manifest.
package minecraft

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/palgania/launcher/internal/httpclient"
	"github.com/palgania/launcher/internal/models"
	"github.com/palgania/launcher/internal/perf"
)

const versionManifestUrl = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

type latest struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

type version struct {
	Id          string    `json:"id"`
	Type        string    `json:"type"`
	Url         string    `json:"url"`
	Time        time.Time `json:"time"`
	ReleaseTime time.Time `json:"releaseTime"`
}

type versionManifest struct {
	Latest   latest    `json:"latest"`
	Versions []version `json:"versions"`
}

func getMinecraftVersionManifest(ctx context.Context, client httpclient.Doer) (*versionManifest, error) {
	ctx, span := perf.StartSpan(ctx, "api.mojang.version_manifest")
	defer span.End()

	ctx, cancel := httpclient.WithMetadataTimeout(ctx)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, versionManifestUrl, nil)
	if err != nil {
		return nil, err
	}

	response, err := client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, ErrManifestNotFound
	}

	var manifest versionManifest
	if err := json.NewDecoder(response.Body).Decode(&manifest); err != nil {
		return nil, err
	}

	return &manifest, nil
}

// GetLatestVersion returns the current release id, for profile bootstrap.
func GetLatestVersion(ctx context.Context, client httpclient.Doer) (string, error) {
	manifest, err := getMinecraftVersionManifest(ctx, client)
	if err != nil {
		return "", err
	}
	if manifest.Latest.Release == "" {
		return "", ErrCouldNotDetermineLatestVersion
	}
	return manifest.Latest.Release, nil
}

// IsCompatible reports whether a loader and game version pair is worth
// querying the catalog for. Loader-specific support is assumed for any
// version Mojang knows about; manifest trouble never blocks a catalog
// attempt.
func IsCompatible(ctx context.Context, _ models.Loader, gameVersion string, client httpclient.Doer) bool {
	valid, err := IsValidVersion(ctx, gameVersion, client)
	return err != nil || valid
}

// IsValidVersion reports whether the id exists in Mojang's manifest. Catches
// profile typos like "1.21.111" before any catalog traffic happens.
func IsValidVersion(ctx context.Context, gameVersion string, client httpclient.Doer) (bool, error) {
	manifest, err := getMinecraftVersionManifest(ctx, client)
	if err != nil {
		return false, err
	}

	for _, v := range manifest.Versions {
		if v.Id == gameVersion {
			return true, nil
		}
	}
	return false, nil
}

// GetAllMinecraftVersions lists every version id, newest first, as Mojang
// orders them.
func GetAllMinecraftVersions(ctx context.Context, client httpclient.Doer) ([]string, error) {
	manifest, err := getMinecraftVersionManifest(ctx, client)
	if err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(manifest.Versions))
	for _, v := range manifest.Versions {
		versions = append(versions, v.Id)
	}
	return versions, nil
}
