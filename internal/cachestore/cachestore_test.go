package cachestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/palgania/launcher/internal/httpclient"
	"github.com/palgania/launcher/internal/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sha1 of "hello world"
const helloSha1 = "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"

const gameDir = "/game"

func contentDownloader(content string) Downloader {
	return func(_ context.Context, _ string, path string, _ httpclient.Doer, _ httpclient.Sender, filesystem ...afero.Fs) error {
		return afero.WriteFile(filesystem[0], path, []byte(content), 0o644)
	}
}

func failingDownloader(err error) Downloader {
	return func(context.Context, string, string, httpclient.Doer, httpclient.Sender, ...afero.Fs) error {
		return err
	}
}

func TestCachedFileName(t *testing.T) {
	assert.Equal(t, "palgania_launcher_sodium.jar", CachedFileName("sodium.jar"))
	assert.Equal(t, "palgania_launcher_sodium.jar", CachedFileName("palgania_launcher_sodium.jar"))
	assert.Equal(t, "palgania_launcher_evil.jar", CachedFileName("../../evil.jar"))
}

func TestDirLayout(t *testing.T) {
	store := New(afero.NewMemMapFs(), gameDir, nil)

	assert.Equal(t, filepath.Join(gameDir, "mods_available"), store.AvailableDir(models.ModKind))
	assert.Equal(t, filepath.Join(gameDir, "mods"), store.ActiveDir(models.ModKind))
	assert.Equal(t, filepath.Join(gameDir, "shaderpacks_available"), store.AvailableDir(models.ShaderpackKind))
	assert.Equal(t, filepath.Join(gameDir, "mods_available", "palgania_launcher_sodium.jar"), store.PathFor(models.ModKind, "sodium.jar"))
}

func TestDownloadVerifiesAndRenames(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := New(fs, gameDir, contentDownloader("hello world"))

	path, err := store.Download(context.Background(), models.ModKind, RemoteFile{
		Name: "sodium.jar",
		Url:  "https://cdn.example/sodium.jar",
		Sha1: helloSha1,
	}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, store.PathFor(models.ModKind, "sodium.jar"), path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	entries, err := afero.ReadDir(fs, store.AvailableDir(models.ModKind))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDownloadHashMismatchLeavesNoFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := New(fs, gameDir, contentDownloader("tampered bytes"))

	_, err := store.Download(context.Background(), models.ModKind, RemoteFile{
		Name: "sodium.jar",
		Url:  "https://cdn.example/sodium.jar",
		Sha1: helloSha1,
	}, nil, nil)

	var integrity *IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, "sodium.jar", integrity.FileName)

	entries, readErr := afero.ReadDir(fs, store.AvailableDir(models.ModKind))
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestDownloadHashlessSkipsVerification(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := New(fs, gameDir, contentDownloader("anything"))

	path, err := store.Download(context.Background(), models.ModKind, RemoteFile{
		Name: "mystery.jar",
		Url:  "https://cdn.example/mystery.jar",
	}, nil, nil)
	require.NoError(t, err)

	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDownloadWriteFailureIsWriteError(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	store := New(fs, gameDir, contentDownloader("hello world"))

	_, err := store.Download(context.Background(), models.ModKind, RemoteFile{
		Name: "sodium.jar",
		Url:  "https://cdn.example/sodium.jar",
		Sha1: helloSha1,
	}, nil, nil)

	var writeErr *WriteError
	assert.ErrorAs(t, err, &writeErr)
}

func TestDownloadDiskFailureIsWriteError(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := New(fs, gameDir, failingDownloader(&httpclient.FileWriteError{
		Path: "/game/mods_available/sodium.jar",
		Err:  assert.AnError,
	}))

	_, err := store.Download(context.Background(), models.ModKind, RemoteFile{
		Name: "sodium.jar",
		Url:  "https://cdn.example/sodium.jar",
	}, nil, nil)

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "/game/mods_available/sodium.jar", writeErr.Path)
}

func TestDownloadNetworkFailurePassesThrough(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := New(fs, gameDir, failingDownloader(assert.AnError))

	_, err := store.Download(context.Background(), models.ModKind, RemoteFile{
		Name: "sodium.jar",
		Url:  "https://cdn.example/sodium.jar",
	}, nil, nil)

	assert.ErrorIs(t, err, assert.AnError)
	var writeErr *WriteError
	assert.False(t, errors.As(err, &writeErr))
}

func TestHas(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := New(fs, gameDir, contentDownloader("hello world"))

	path, err := store.Download(context.Background(), models.ModKind, RemoteFile{
		Name: "sodium.jar",
		Url:  "https://cdn.example/sodium.jar",
		Sha1: helloSha1,
	}, nil, nil)
	require.NoError(t, err)

	record := models.AddonRecord{FilePath: path, Sha1: helloSha1}

	t.Run("present with matching hash", func(t *testing.T) {
		has, err := store.Has(record)
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("tampered file counts as absent", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, path, []byte("tampered"), 0o644))
		has, err := store.Has(record)
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("hashless record checks existence only", func(t *testing.T) {
		has, err := store.Has(models.AddonRecord{FilePath: path})
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("missing file", func(t *testing.T) {
		has, err := store.Has(models.AddonRecord{FilePath: "/game/mods_available/nope.jar", Sha1: helloSha1})
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("empty path", func(t *testing.T) {
		has, err := store.Has(models.AddonRecord{})
		require.NoError(t, err)
		assert.False(t, has)
	})
}

func TestPruneRemovesTempLeftovers(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := New(fs, gameDir, nil)
	availableDir := store.AvailableDir(models.ModKind)

	require.NoError(t, afero.WriteFile(fs, filepath.Join(availableDir, "sodium.jar.launcher.123.tmp"), []byte("partial"), 0o644))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(availableDir, "palgania_launcher_sodium.jar"), []byte("good"), 0o644))

	require.NoError(t, store.Prune(models.ModKind))

	entries, err := afero.ReadDir(fs, availableDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "palgania_launcher_sodium.jar", entries[0].Name())
}
