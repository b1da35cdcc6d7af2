package minecraft

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/palgania/launcher/internal/httpclient"
	"github.com/palgania/launcher/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestBody = `{
	"latest": {"release": "1.21.11", "snapshot": "25w30a"},
	"versions": [
		{"id": "25w30a", "type": "snapshot"},
		{"id": "1.21.11", "type": "release"},
		{"id": "1.21.1", "type": "release"}
	]
}`

type manifestRewriteDoer struct {
	target *url.URL
	client *http.Client
}

func (d *manifestRewriteDoer) Do(request *http.Request) (*http.Response, error) {
	request.URL.Scheme = d.target.Scheme
	request.URL.Host = d.target.Host
	return d.client.Do(request)
}

func newManifestServer(t *testing.T, handler http.HandlerFunc) *manifestRewriteDoer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	target, err := url.Parse(server.URL)
	require.NoError(t, err)
	return &manifestRewriteDoer{target: target, client: server.Client()}
}

type deadlineCheckingDoer struct {
	t    *testing.T
	next httpclient.Doer
}

func (d *deadlineCheckingDoer) Do(request *http.Request) (*http.Response, error) {
	_, ok := request.Context().Deadline()
	assert.True(d.t, ok, "manifest request must carry a deadline")
	return d.next.Do(request)
}

func TestManifestRequestsCarryADeadline(t *testing.T) {
	doer := newManifestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(manifestBody))
	})

	latest, err := GetLatestVersion(context.Background(), &deadlineCheckingDoer{t: t, next: doer})
	assert.NoError(t, err)
	assert.Equal(t, "1.21.11", latest)
}

func TestGetLatestVersion(t *testing.T) {
	doer := newManifestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mc/game/version_manifest.json", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(manifestBody))
	})

	latest, err := GetLatestVersion(context.Background(), doer)
	assert.NoError(t, err)
	assert.Equal(t, "1.21.11", latest)
}

func TestGetLatestVersionManifestUnavailable(t *testing.T) {
	doer := newManifestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := GetLatestVersion(context.Background(), doer)
	assert.ErrorIs(t, err, ErrManifestNotFound)
}

func TestGetLatestVersionEmptyRelease(t *testing.T) {
	doer := newManifestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"latest":{},"versions":[]}`))
	})

	_, err := GetLatestVersion(context.Background(), doer)
	assert.ErrorIs(t, err, ErrCouldNotDetermineLatestVersion)
}

func TestIsValidVersion(t *testing.T) {
	doer := newManifestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(manifestBody))
	})

	valid, err := IsValidVersion(context.Background(), "1.21.11", doer)
	assert.NoError(t, err)
	assert.True(t, valid)

	valid, err = IsValidVersion(context.Background(), "1.21.111", doer)
	assert.NoError(t, err)
	assert.False(t, valid)
}

func TestIsCompatible(t *testing.T) {
	doer := newManifestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(manifestBody))
	})

	assert.True(t, IsCompatible(context.Background(), models.FABRIC, "1.21.11", doer))
	assert.False(t, IsCompatible(context.Background(), models.FABRIC, "1.21.111", doer))
}

func TestIsCompatibleManifestTroubleNeverBlocks(t *testing.T) {
	doer := newManifestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	assert.True(t, IsCompatible(context.Background(), models.FABRIC, "1.21.11", doer))
}

func TestGetAllMinecraftVersionsKeepsManifestOrder(t *testing.T) {
	doer := newManifestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(manifestBody))
	})

	versions, err := GetAllMinecraftVersions(context.Background(), doer)
	assert.NoError(t, err)
	assert.Equal(t, []string{"25w30a", "1.21.11", "1.21.1"}, versions)
}
