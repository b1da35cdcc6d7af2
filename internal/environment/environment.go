// Package environment reads runtime environment configuration.
package environment

import (
	"os"
	"path/filepath"
	"runtime"
)

var (
	modrinthAPIKeyDefault = "REPL_MODRINTH_API_KEY" // #nosec G101 -- build-time placeholder replaced in release builds.
	posthogAPIKeyDefault  = "REPL_POSTHOG_API_KEY"  // #nosec G101 -- build-time placeholder replaced in release builds.
)

func ModrinthAPIKey() string {
	key, present := os.LookupEnv("MODRINTH_API_KEY")
	if present {
		return key
	}

	return modrinthAPIKeyDefault
}

func PosthogAPIKey() string {
	key, present := os.LookupEnv("POSTHOG_API_KEY")
	if present {
		return key
	}

	return posthogAPIKeyDefault
}

func AppVersion() string {
	return "REPL_VERSION"
}

// DefaultGameDir is the platform-specific .minecraft directory.
func DefaultGameDir() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		if appdata, present := os.LookupEnv("APPDATA"); present {
			return filepath.Join(appdata, ".minecraft")
		}
		return filepath.Join(home, "AppData", "Roaming", ".minecraft")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", ".minecraft")
	default:
		return filepath.Join(home, ".minecraft")
	}
}

// DefaultConfigDir holds the profile configuration and the addon registry.
// PALGANIA_LAUNCHER_CONFIG_DIR overrides the platform default.
func DefaultConfigDir() string {
	if dir, present := os.LookupEnv("PALGANIA_LAUNCHER_CONFIG_DIR"); present && dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "palgania_launcher")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "palgania_launcher")
	default:
		return filepath.Join(home, ".palgania_launcher")
	}
}
