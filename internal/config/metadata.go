package config

import (
	"path/filepath"
	"strings"

	"github.com/palgania/launcher/internal/environment"
	"github.com/palgania/launcher/internal/models"
)

// Metadata locates the profile's files on disk. Everything hangs off the
// profile config path so tests can point a whole profile at a temp dir.
type Metadata struct {
	ConfigPath string
}

func NewMetadata(configPath string) Metadata {
	return Metadata{ConfigPath: configPath}
}

// DefaultMetadata places launcher.json in the per-user config dir.
func DefaultMetadata() Metadata {
	return NewMetadata(filepath.Join(environment.DefaultConfigDir(), "launcher.json"))
}

func (m Metadata) Dir() string {
	return filepath.Dir(filepath.FromSlash(m.ConfigPath))
}

// RegistryPath is the addon metadata registry, a sibling of the profile
// config.
func (m Metadata) RegistryPath() string {
	return filepath.Join(m.Dir(), "launcher-addons.json")
}

// GameDirPath resolves the profile's game directory. Relative paths are
// anchored at the config dir; empty falls back to the platform default.
func (m Metadata) GameDirPath(profile models.ProfileJson) string {
	if profile.GameDir == "" {
		return environment.DefaultGameDir()
	}
	if isAbsoluteOrRootedPath(profile.GameDir) {
		return profile.GameDir
	}
	return filepath.Join(m.Dir(), profile.GameDir)
}

func isAbsoluteOrRootedPath(path string) bool {
	if filepath.IsAbs(path) {
		return true
	}
	return strings.HasPrefix(path, "/") || strings.HasPrefix(path, "\\")
}
