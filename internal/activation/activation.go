// Package activation applies a resolution report to the live game directory.
package activation

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/palgania/launcher/internal/cachestore"
	"github.com/palgania/launcher/internal/constants"
	"github.com/palgania/launcher/internal/models"
	"github.com/palgania/launcher/internal/perf"
	"github.com/palgania/launcher/internal/resolver"
	"github.com/spf13/afero"
)

// AppliedSet records what one Activate call did to the active directory.
type AppliedSet struct {
	Kind    models.Kind
	Dir     string
	Applied []string
	Removed []string
}

type Manager struct {
	fs afero.Fs
}

func NewManager(fs afero.Fs) *Manager {
	return &Manager{fs: fs}
}

// Activate copies every usable record of the kind from its available area
// into the kind's active directory, then removes previously active
// launcher-prefixed files that are not part of the new set. Files without
// the launcher prefix belong to the user and are never touched. Pure
// filesystem bookkeeping: no network, no registry writes.
func (m *Manager) Activate(report resolver.Report, store *cachestore.Store, kind models.Kind) (AppliedSet, error) {
	region := perf.StartRegion("io.activation.apply")
	defer region.End()

	activeDir := store.ActiveDir(kind)
	applied := AppliedSet{Kind: kind, Dir: activeDir}

	if err := m.fs.MkdirAll(activeDir, 0o755); err != nil {
		return applied, err
	}

	desired := make(map[string]struct{})
	for _, record := range report.Records() {
		if record.Kind != kind {
			continue
		}

		destination := filepath.Join(activeDir, record.FileName)
		if err := m.copyFile(record.FilePath, destination); err != nil {
			return applied, err
		}
		desired[record.FileName] = struct{}{}
		applied.Applied = append(applied.Applied, destination)
	}

	entries, err := afero.ReadDir(m.fs, activeDir)
	if err != nil {
		return applied, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, constants.FilePrefix) {
			continue
		}
		if _, keep := desired[name]; keep {
			continue
		}
		stale := filepath.Join(activeDir, name)
		if err := m.fs.Remove(stale); err != nil {
			return applied, err
		}
		applied.Removed = append(applied.Removed, stale)
	}

	return applied, nil
}

// copyFile streams source to a temp sibling and renames it into place so the
// game process never sees a half-copied file.
func (m *Manager) copyFile(sourcePath string, destinationPath string) error {
	source, err := m.fs.Open(sourcePath)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	tempFile, err := afero.TempFile(m.fs, filepath.Dir(destinationPath), filepath.Base(destinationPath)+".launcher.*.tmp")
	if err != nil {
		return err
	}
	tempPath := tempFile.Name()

	if _, err := io.Copy(tempFile, source); err != nil {
		_ = tempFile.Close()
		_ = m.fs.Remove(tempPath)
		return err
	}
	if err := tempFile.Close(); err != nil {
		_ = m.fs.Remove(tempPath)
		return err
	}

	exists, err := afero.Exists(m.fs, destinationPath)
	if err != nil {
		_ = m.fs.Remove(tempPath)
		return err
	}
	if exists {
		if err := m.fs.Remove(destinationPath); err != nil {
			_ = m.fs.Remove(tempPath)
			return err
		}
	}

	if err := m.fs.Rename(tempPath, destinationPath); err != nil {
		_ = m.fs.Remove(tempPath)
		return err
	}
	return nil
}
