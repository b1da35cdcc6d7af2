// Package registry persists add-on resolution metadata for a profile.
package registry

import (
	"encoding/json"
	"sync"

	"github.com/palgania/launcher/internal/i18n"
	"github.com/palgania/launcher/internal/logger"
	"github.com/palgania/launcher/internal/models"
	"github.com/palgania/launcher/internal/perf"
	"github.com/spf13/afero"
)

// Registry maps (keyword, kind, loader, gameVersion) to AddonRecords and
// mirrors every mutation to its backing JSON document. A single mutex
// serializes upserts and flushes: each flush rewrites the whole document, so
// two writers would corrupt it.
type Registry struct {
	fs   afero.Fs
	path string
	log  *logger.Logger

	mu               sync.Mutex
	records          map[string]models.AddonRecord
	loaded           bool
	recoveredCorrupt bool
}

func New(fs afero.Fs, path string, log *logger.Logger) *Registry {
	return &Registry{
		fs:      fs,
		path:    path,
		log:     log,
		records: make(map[string]models.AddonRecord),
	}
}

// Load reads the backing document. Missing and corrupt stores both yield an
// empty registry: losing cache metadata is recoverable (re-download), losing
// launch capability is not. Idempotent.
func (registry *Registry) Load() error {
	region := perf.StartRegion("io.registry.load")
	defer region.End()

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.loaded {
		return nil
	}

	exists, err := afero.Exists(registry.fs, registry.path)
	if err != nil {
		return err
	}
	if !exists {
		registry.loaded = true
		return nil
	}

	data, err := afero.ReadFile(registry.fs, registry.path)
	if err != nil {
		return err
	}

	var records map[string]models.AddonRecord
	if err := json.Unmarshal(data, &records); err != nil {
		registry.warnCorrupt()
		registry.records = make(map[string]models.AddonRecord)
		registry.recoveredCorrupt = true
		registry.loaded = true
		return nil
	}

	if records == nil {
		records = make(map[string]models.AddonRecord)
	}
	registry.records = records
	registry.loaded = true
	return nil
}

func (registry *Registry) warnCorrupt() {
	if registry.log == nil {
		return
	}
	registry.log.Warn(i18n.T("registry.corrupt_reset"))
}

// RecoveredCorrupt reports whether the last Load had to reset a corrupt
// store, for user messaging.
func (registry *Registry) RecoveredCorrupt() bool {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.recoveredCorrupt
}

func (registry *Registry) Lookup(keyword string, kind models.Kind, loader models.Loader, gameVersion string) (models.AddonRecord, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	record, found := registry.records[models.RecordKey(keyword, kind, loader, gameVersion)]
	return record, found
}

// Upsert stores the record under its composite key, replacing any prior
// resolution of the same tuple, and flushes before returning so a crash
// mid-batch never loses an acknowledged write.
func (registry *Registry) Upsert(record models.AddonRecord) error {
	region := perf.StartRegion("io.registry.upsert")
	defer region.End()

	registry.mu.Lock()
	defer registry.mu.Unlock()

	previous, hadPrevious := registry.records[record.Key()]
	registry.records[record.Key()] = record

	if err := registry.flushLocked(); err != nil {
		if hadPrevious {
			registry.records[record.Key()] = previous
		} else {
			delete(registry.records, record.Key())
		}
		return err
	}
	return nil
}

// Delete removes a record and flushes. Used by cache-clear operations.
func (registry *Registry) Delete(keyword string, kind models.Kind, loader models.Loader, gameVersion string) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	key := models.RecordKey(keyword, kind, loader, gameVersion)
	if _, found := registry.records[key]; !found {
		return nil
	}
	delete(registry.records, key)
	return registry.flushLocked()
}

func (registry *Registry) Flush() error {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.flushLocked()
}

func (registry *Registry) flushLocked() error {
	data, err := json.MarshalIndent(registry.records, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(registry.fs, registry.path, data)
}

func (registry *Registry) Len() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return len(registry.records)
}
