// Package cachestore manages the on-disk add-on cache inside the game
// directory.
package cachestore

import (
	"context"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"hash"
	"io"
	"path/filepath"
	"strings"

	"github.com/palgania/launcher/internal/constants"
	"github.com/palgania/launcher/internal/httpclient"
	"github.com/palgania/launcher/internal/models"
	"github.com/spf13/afero"
)

// Downloader matches httpclient.DownloadFile so tests can substitute the
// network step.
type Downloader func(ctx context.Context, url string, filepath string, client httpclient.Doer, program httpclient.Sender, filesystem ...afero.Fs) error

// RemoteFile describes one downloadable artifact. Hashes may be empty; a
// hashless file is verified by existence only.
type RemoteFile struct {
	Name   string
	Url    string
	Sha1   string
	Sha512 string
}

// Store owns the {kind}_available cache areas under the game directory.
// Every file it writes carries the launcher's name prefix so activation can
// later tell launcher-managed files apart from the user's own.
type Store struct {
	fs         afero.Fs
	gameDir    string
	downloader Downloader
}

func New(fs afero.Fs, gameDir string, downloader Downloader) *Store {
	if downloader == nil {
		downloader = httpclient.DownloadFile
	}
	return &Store{
		fs:         fs,
		gameDir:    gameDir,
		downloader: downloader,
	}
}

func (s *Store) GameDir() string {
	return s.gameDir
}

// AvailableDir is where downloads of a kind land, regardless of activation.
func (s *Store) AvailableDir(kind models.Kind) string {
	return filepath.Join(s.gameDir, kind.AvailableDirName())
}

// ActiveDir is the directory the game process reads a kind from.
func (s *Store) ActiveDir(kind models.Kind) string {
	return filepath.Join(s.gameDir, kind.ActiveDirName())
}

// CachedFileName prefixes the remote file name with the launcher marker.
// Already-prefixed names pass through unchanged so re-resolution is stable.
func CachedFileName(remoteName string) string {
	base := filepath.Base(filepath.FromSlash(remoteName))
	if strings.HasPrefix(base, constants.FilePrefix) {
		return base
	}
	return constants.FilePrefix + base
}

// PathFor is the cache location a remote file of this kind resolves to.
func (s *Store) PathFor(kind models.Kind, remoteName string) string {
	return filepath.Join(s.AvailableDir(kind), CachedFileName(remoteName))
}

// Has reports whether the record's cached file is present and, when the
// record carries a hash, whether the bytes still match it. A stale or
// tampered file counts as absent so resolution re-downloads it.
func (s *Store) Has(record models.AddonRecord) (bool, error) {
	if record.FilePath == "" {
		return false, nil
	}

	exists, err := afero.Exists(s.fs, record.FilePath)
	if err != nil || !exists {
		return false, err
	}

	switch {
	case record.Sha1 != "":
		actual, err := hashFile(s.fs, record.FilePath, sha1.New())
		if err != nil {
			return false, err
		}
		return strings.EqualFold(record.Sha1, actual), nil
	case record.Sha512 != "":
		actual, err := hashFile(s.fs, record.FilePath, sha512.New())
		if err != nil {
			return false, err
		}
		return strings.EqualFold(record.Sha512, actual), nil
	}

	return true, nil
}

// Download fetches the remote file into the kind's available area and
// returns the final cache path. The bytes stream into a temp sibling and
// only an integrity-checked file is renamed into place, so a crash or a bad
// transfer never leaves a half-written file under the final name.
func (s *Store) Download(ctx context.Context, kind models.Kind, file RemoteFile, client httpclient.Doer, sender httpclient.Sender) (string, error) {
	destination := s.PathFor(kind, file.Name)
	availableDir := s.AvailableDir(kind)

	if err := s.fs.MkdirAll(availableDir, 0o755); err != nil {
		return "", &WriteError{Path: availableDir, Err: err}
	}

	tempFile, err := afero.TempFile(s.fs, availableDir, filepath.Base(destination)+".launcher.*.tmp")
	if err != nil {
		return "", &WriteError{Path: availableDir, Err: err}
	}
	tempPath := tempFile.Name()
	_ = tempFile.Close()

	if err := s.downloader(ctx, file.Url, tempPath, client, sender, s.fs); err != nil {
		_ = s.fs.Remove(tempPath)
		// A disk that stops taking bytes is a cache write failure, not a
		// network one, even though the downloader noticed it first.
		var fileErr *httpclient.FileWriteError
		if errors.As(err, &fileErr) {
			return "", &WriteError{Path: fileErr.Path, Err: err}
		}
		return "", err
	}

	if err := s.verify(tempPath, file); err != nil {
		_ = s.fs.Remove(tempPath)
		return "", err
	}

	if err := s.replace(tempPath, destination); err != nil {
		_ = s.fs.Remove(tempPath)
		return "", &WriteError{Path: destination, Err: err}
	}

	return destination, nil
}

func (s *Store) verify(path string, file RemoteFile) error {
	expected := file.Sha1
	hasher := hash.Hash(sha1.New())
	if expected == "" {
		expected = file.Sha512
		hasher = sha512.New()
	}
	if expected == "" {
		return nil
	}

	actual, err := hashFile(s.fs, path, hasher)
	if err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(expected), actual) {
		return &IntegrityError{FileName: file.Name, Expected: expected, Actual: actual}
	}
	return nil
}

func (s *Store) replace(sourcePath string, destinationPath string) error {
	exists, err := afero.Exists(s.fs, destinationPath)
	if err != nil {
		return err
	}
	if exists {
		if err := s.fs.Remove(destinationPath); err != nil {
			return err
		}
	}
	return s.fs.Rename(sourcePath, destinationPath)
}

// Prune removes temp leftovers from interrupted downloads in the kind's
// available area.
func (s *Store) Prune(kind models.Kind) error {
	availableDir := s.AvailableDir(kind)
	entries, err := afero.ReadDir(s.fs, availableDir)
	if err != nil {
		return nil
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.Contains(entry.Name(), ".launcher.") && strings.HasSuffix(entry.Name(), ".tmp") {
			if err := s.fs.Remove(filepath.Join(availableDir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func hashFile(fs afero.Fs, path string, hasher hash.Hash) (string, error) {
	file, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
