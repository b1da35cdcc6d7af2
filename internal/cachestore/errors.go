package cachestore

import (
	"fmt"

	"github.com/palgania/launcher/internal/i18n"
)

// IntegrityError means the downloaded bytes did not match the catalog's
// advertised hash. The partial file is already gone when this surfaces.
type IntegrityError struct {
	FileName string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("downloaded file hash mismatch for %s", e.FileName)
}

func (e *IntegrityError) Is(target error) bool {
	other, ok := target.(*IntegrityError)
	if !ok {
		return false
	}
	return other.FileName == "" || other.FileName == e.FileName
}

// WriteError means the cache filesystem itself rejected a write. Unlike a
// per-keyword network failure, it poisons the whole batch: every later
// download would hit the same disk.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return i18n.T("error.cache_write", i18n.Tvars{Data: &i18n.TData{"detail": e.Path}})
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Is(target error) bool {
	_, ok := target.(*WriteError)
	return ok
}
