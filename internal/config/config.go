// Package config reads and writes the launcher profile.
package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/palgania/launcher/internal/httpclient"
	"github.com/palgania/launcher/internal/minecraft"
	"github.com/palgania/launcher/internal/models"
	"github.com/palgania/launcher/internal/perf"
	"github.com/spf13/afero"
)

func ReadConfig(fs afero.Fs, meta Metadata) (models.ProfileJson, error) {
	region := perf.StartRegion("io.config.read")
	defer region.End()

	exists, _ := afero.Exists(fs, meta.ConfigPath)
	if !exists {
		return models.ProfileJson{}, &ConfigFileNotFoundException{Path: meta.ConfigPath}
	}

	data, err := afero.ReadFile(fs, meta.ConfigPath)
	if err != nil {
		return models.ProfileJson{}, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var profile models.ProfileJson
	if err := json.Unmarshal(data, &profile); err != nil {
		return models.ProfileJson{}, &ConfigFileInvalidError{Err: err}
	}

	return profile, nil
}

func WriteConfig(fs afero.Fs, meta Metadata, profile models.ProfileJson) error {
	region := perf.StartRegion("io.config.write")
	defer region.End()

	if err := fs.MkdirAll(meta.Dir(), 0o755); err != nil {
		return err
	}

	data, _ := json.MarshalIndent(profile, "", "  ")
	return afero.WriteFile(fs, meta.ConfigPath, data, 0o644)
}

// InitConfig bootstraps a fresh profile pinned to the latest game release.
// Fails rather than overwrites when a profile already exists.
func InitConfig(ctx context.Context, fs afero.Fs, meta Metadata, manifestClient httpclient.Doer) (models.ProfileJson, error) {
	region := perf.StartRegion("io.config.init")
	defer region.End()

	exists, _ := afero.Exists(fs, meta.ConfigPath)
	if exists {
		return models.ProfileJson{}, &ConfigFileAlreadyExistsError{Path: meta.ConfigPath}
	}

	latest, err := minecraft.GetLatestVersion(ctx, manifestClient)
	if err != nil {
		return models.ProfileJson{}, err
	}

	profile := models.ProfileJson{
		Loader:        models.FABRIC,
		GameVersion:   latest,
		Mods:          []string{},
		Resourcepacks: []string{},
		Shaderpacks:   []string{},
	}

	if err := WriteConfig(fs, meta, profile); err != nil {
		return models.ProfileJson{}, err
	}
	return profile, nil
}
