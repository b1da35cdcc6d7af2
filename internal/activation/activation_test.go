package activation

import (
	"path/filepath"
	"testing"

	"github.com/palgania/launcher/internal/cachestore"
	"github.com/palgania/launcher/internal/models"
	"github.com/palgania/launcher/internal/resolver"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gameDir = "/game"

func cachedEntry(t *testing.T, fs afero.Fs, store *cachestore.Store, keyword string, content string) resolver.Entry {
	t.Helper()
	path := store.PathFor(models.ModKind, keyword+".jar")
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))

	return resolver.Entry{
		Keyword: keyword,
		Outcome: resolver.Outcome{
			Kind: resolver.CachedLocal,
			Record: &models.AddonRecord{
				Keyword:  keyword,
				Kind:     models.ModKind,
				FileName: cachestore.CachedFileName(keyword + ".jar"),
				FilePath: path,
			},
		},
	}
}

func TestActivateCopiesResolvedFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := cachestore.New(fs, gameDir, nil)
	manager := NewManager(fs)

	report := resolver.Report{Entries: []resolver.Entry{
		cachedEntry(t, fs, store, "sodium", "sodium bytes"),
		cachedEntry(t, fs, store, "lithium", "lithium bytes"),
		{Keyword: "ghost", Outcome: resolver.Outcome{Kind: resolver.NotFoundRemote}},
	}}

	applied, err := manager.Activate(report, store, models.ModKind)
	require.NoError(t, err)

	assert.Len(t, applied.Applied, 2)
	assert.Empty(t, applied.Removed)

	data, err := afero.ReadFile(fs, filepath.Join(store.ActiveDir(models.ModKind), "palgania_launcher_sodium.jar"))
	require.NoError(t, err)
	assert.Equal(t, "sodium bytes", string(data))
}

func TestActivateRemovesStalePrefixedFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := cachestore.New(fs, gameDir, nil)
	manager := NewManager(fs)
	activeDir := store.ActiveDir(models.ModKind)

	require.NoError(t, afero.WriteFile(fs, filepath.Join(activeDir, "palgania_launcher_oldmod.jar"), []byte("old"), 0o644))

	report := resolver.Report{Entries: []resolver.Entry{
		cachedEntry(t, fs, store, "sodium", "sodium bytes"),
	}}

	applied, err := manager.Activate(report, store, models.ModKind)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(activeDir, "palgania_launcher_oldmod.jar")}, applied.Removed)

	exists, err := afero.Exists(fs, filepath.Join(activeDir, "palgania_launcher_oldmod.jar"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestActivateNeverTouchesUserFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := cachestore.New(fs, gameDir, nil)
	manager := NewManager(fs)
	activeDir := store.ActiveDir(models.ModKind)

	userFile := filepath.Join(activeDir, "my-handmade-mod.jar")
	require.NoError(t, afero.WriteFile(fs, userFile, []byte("mine"), 0o644))

	_, err := manager.Activate(resolver.Report{}, store, models.ModKind)
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, userFile)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestActivateIsIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := cachestore.New(fs, gameDir, nil)
	manager := NewManager(fs)

	report := resolver.Report{Entries: []resolver.Entry{
		cachedEntry(t, fs, store, "sodium", "sodium bytes"),
	}}

	first, err := manager.Activate(report, store, models.ModKind)
	require.NoError(t, err)
	second, err := manager.Activate(report, store, models.ModKind)
	require.NoError(t, err)

	assert.Equal(t, first.Applied, second.Applied)
	assert.Empty(t, second.Removed)

	entries, err := afero.ReadDir(fs, store.ActiveDir(models.ModKind))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestActivateSkipsOtherKinds(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := cachestore.New(fs, gameDir, nil)
	manager := NewManager(fs)

	shaderPath := store.PathFor(models.ShaderpackKind, "complementary.zip")
	require.NoError(t, afero.WriteFile(fs, shaderPath, []byte("shader"), 0o644))

	report := resolver.Report{Entries: []resolver.Entry{
		{Keyword: "complementary", Outcome: resolver.Outcome{
			Kind: resolver.Downloaded,
			Record: &models.AddonRecord{
				Keyword:  "complementary",
				Kind:     models.ShaderpackKind,
				FileName: cachestore.CachedFileName("complementary.zip"),
				FilePath: shaderPath,
			},
		}},
	}}

	applied, err := manager.Activate(report, store, models.ModKind)
	require.NoError(t, err)
	assert.Empty(t, applied.Applied)

	shaderApplied, err := manager.Activate(report, store, models.ShaderpackKind)
	require.NoError(t, err)
	assert.Len(t, shaderApplied.Applied, 1)
}
