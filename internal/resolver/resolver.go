// Package resolver orchestrates cache-first add-on resolution for a batch of
// keywords.
package resolver

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/palgania/launcher/internal/cachestore"
	"github.com/palgania/launcher/internal/httpclient"
	"github.com/palgania/launcher/internal/i18n"
	"github.com/palgania/launcher/internal/models"
	"github.com/palgania/launcher/internal/modrinth"
	"github.com/palgania/launcher/internal/perf"
	"github.com/palgania/launcher/internal/registry"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// maxParallel keeps batch concurrency under the catalog's 300 req/min
// ceiling together with the transport rate limiter.
const maxParallel = 4

// ErrBatchInProgress rejects a second ResolveBatch while one is running. Two
// concurrent batches would race on the registry file.
var ErrBatchInProgress = errors.New("a resolution batch is already running")

// Progress is invoked once per keyword as its outcome becomes known, in
// completion order. Calls are serialized.
type Progress func(index int, keyword string, outcome Outcome)

// Compatible is the version-catalog provider contract: whether a loader and
// game version pair is worth querying remotely. A nil provider means
// "attempt remote".
type Compatible func(models.Loader, string) bool

type Resolver struct {
	registry *registry.Registry
	store    *cachestore.Store

	catalog  httpclient.Doer
	download httpclient.Doer

	compatible Compatible
	progress   Progress
	sender     httpclient.Sender

	progressMu sync.Mutex
	batchMu    sync.Mutex
}

type Option func(*Resolver)

func WithCompatible(compatible Compatible) Option {
	return func(r *Resolver) { r.compatible = compatible }
}

func WithProgress(progress Progress) Option {
	return func(r *Resolver) { r.progress = progress }
}

// WithDownloadClient sets a separate transport for file downloads, typically
// without the metadata rate limiter.
func WithDownloadClient(download httpclient.Doer) Option {
	return func(r *Resolver) { r.download = download }
}

// WithSender streams download progress messages to a TUI program.
func WithSender(sender httpclient.Sender) Option {
	return func(r *Resolver) { r.sender = sender }
}

func New(reg *registry.Registry, store *cachestore.Store, catalog httpclient.Doer, opts ...Option) *Resolver {
	resolver := &Resolver{
		registry: reg,
		store:    store,
		catalog:  catalog,
		download: catalog,
	}
	for _, opt := range opts {
		opt(resolver)
	}
	return resolver
}

// BatchOptions tune one ResolveBatch call.
type BatchOptions struct {
	// Offline promises no network: a keyword without a valid cached file
	// reports OfflineUnavailable instead of attempting remote calls.
	Offline bool

	// AllowVersionFallback walks point releases downward (1.21.4 -> 1.21.3
	// -> ... -> 1.21) when no build matches the requested version exactly,
	// re-querying per step. Off by default: exact match never silently
	// family-matches.
	AllowVersionFallback bool
}

// ResolveBatch resolves every keyword for one kind against (loader,
// gameVersion). Keywords resolve independently with bounded parallelism;
// outcomes come back in request order. Only a cache-store WriteError aborts
// the batch: it is returned as the batch error and unstarted keywords report
// a cancelled outcome.
func (r *Resolver) ResolveBatch(ctx context.Context, keywords []string, kind models.Kind, loader models.Loader, gameVersion string, opts BatchOptions) (Report, error) {
	if !r.batchMu.TryLock() {
		return Report{}, ErrBatchInProgress
	}
	defer r.batchMu.Unlock()

	ctx, span := perf.StartSpan(ctx, "resolver.batch",
		perf.WithAttributes(
			attribute.String("kind", kind.String()),
			attribute.Int("keywords", len(keywords)),
		),
	)
	defer span.End()

	if err := r.registry.Load(); err != nil {
		return Report{}, err
	}

	entries := make([]Entry, len(keywords))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxParallel)

	for index, keyword := range keywords {
		group.Go(func() error {
			outcome, fatal := r.resolveOne(groupCtx, keyword, kind, loader, gameVersion, opts)
			entries[index] = Entry{Keyword: strings.TrimSpace(keyword), Outcome: outcome}
			r.notify(index, keyword, outcome)
			return fatal
		})
	}

	err := group.Wait()
	return Report{Entries: entries}, err
}

func (r *Resolver) notify(index int, keyword string, outcome Outcome) {
	if r.progress == nil {
		return
	}
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.progress(index, keyword, outcome)
}

// resolveOne runs the per-keyword algorithm. The second return is non-nil
// only for batch-fatal cache write failures.
func (r *Resolver) resolveOne(ctx context.Context, keyword string, kind models.Kind, loader models.Loader, gameVersion string, opts BatchOptions) (Outcome, error) {
	if ctx.Err() != nil {
		return Outcome{Kind: NetworkFailure, Reason: ReasonCancelled, Err: ctx.Err()}, nil
	}

	keyword = strings.TrimSpace(keyword)

	prior, hasPrior := r.registry.Lookup(keyword, kind, loader, gameVersion)
	if hasPrior {
		cached, err := r.store.Has(prior)
		if err == nil && cached {
			return Outcome{Kind: CachedLocal, Record: &prior}, nil
		}
	}

	if opts.Offline {
		return Outcome{Kind: OfflineUnavailable}, nil
	}

	if r.compatible != nil && !r.compatible(loader, gameVersion) {
		return Outcome{Kind: NotFoundRemote}, nil
	}

	record, err := r.fetch(ctx, keyword, kind, loader, gameVersion, opts, prior, hasPrior)
	if err != nil {
		var writeErr *cachestore.WriteError
		if errors.As(err, &writeErr) {
			return Outcome{Kind: NetworkFailure, Err: err}, err
		}
		return classify(err), nil
	}

	return Outcome{Kind: Downloaded, Record: record}, nil
}

// fetch runs the remote chain: search, list versions, pick, download, then
// record. The registry write happens only after the file is durably in
// place, so a crash can orphan a file but never a record.
func (r *Resolver) fetch(ctx context.Context, keyword string, kind models.Kind, loader models.Loader, gameVersion string, opts BatchOptions, prior models.AddonRecord, hasPrior bool) (*models.AddonRecord, error) {
	projectID := prior.ProjectID
	projectSlug := prior.ProjectSlug

	// A prior record for the same keyword remembers the project, so a
	// version bump skips the search round-trip.
	if !hasPrior || projectID == "" {
		lookup := modrinth.SearchLookup{
			Query:       keyword,
			Kind:        kind,
			Loader:      loader,
			GameVersion: gameVersion,
		}
		// The search facet must cover the same versions the pick loop will
		// walk, or a fallback-only project never makes it past the search.
		if opts.AllowVersionFallback {
			lookup.FallbackVersions = pointReleaseChain(gameVersion)
		}

		searchCtx, cancel := httpclient.WithMetadataTimeout(ctx)
		hit, err := modrinth.SearchProjects(searchCtx, lookup, r.catalog)
		cancel()
		if err != nil {
			return nil, httpclient.WrapTimeoutError(err)
		}
		projectID = hit.ProjectID
		projectSlug = hit.Slug
	}

	version, file, err := r.pickRemoteFile(ctx, keyword, projectID, kind, loader, gameVersion, opts)
	if err != nil {
		return nil, err
	}

	downloadCtx, cancel := httpclient.WithDownloadTimeout(ctx)
	defer cancel()
	path, err := r.store.Download(downloadCtx, kind, cachestore.RemoteFile{
		Name:   file.FileName,
		Url:    file.Url,
		Sha1:   file.Hashes.Sha1,
		Sha512: file.Hashes.Sha512,
	}, r.download, r.sender)
	if err != nil {
		return nil, httpclient.WrapTimeoutError(err)
	}

	record := models.AddonRecord{
		Keyword:     keyword,
		Kind:        kind,
		Loader:      loader,
		GameVersion: gameVersion,
		ProjectID:   projectID,
		ProjectSlug: projectSlug,
		VersionID:   version.VersionId,
		FileName:    cachestore.CachedFileName(file.FileName),
		FilePath:    path,
		Sha1:        file.Hashes.Sha1,
		Sha512:      file.Hashes.Sha512,
		ResolvedAt:  time.Now().UTC(),
	}

	if err := r.registry.Upsert(record); err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *Resolver) pickRemoteFile(ctx context.Context, keyword string, projectID string, kind models.Kind, loader models.Loader, gameVersion string, opts BatchOptions) (*modrinth.Version, modrinth.VersionFile, error) {
	candidates := []string{gameVersion}
	if opts.AllowVersionFallback {
		candidates = append(candidates, pointReleaseChain(gameVersion)...)
	}

	for _, candidate := range candidates {
		listCtx, cancel := httpclient.WithMetadataTimeout(ctx)
		versions, err := modrinth.GetVersionsForProject(listCtx, &modrinth.VersionLookup{
			ProjectId:    projectID,
			Loaders:      []string{kind.EffectiveFacetCategory(loader)},
			GameVersions: []string{candidate},
		}, r.catalog)
		cancel()
		if err != nil {
			return nil, modrinth.VersionFile{}, httpclient.WrapTimeoutError(err)
		}

		version, found := modrinth.PickVersion(versions, candidate)
		if !found {
			continue
		}
		file, hasFile := modrinth.PickFile(version)
		if !hasFile {
			continue
		}
		return version, file, nil
	}

	return nil, modrinth.VersionFile{}, &modrinth.ProjectNotFoundError{Query: keyword}
}

// pointReleaseChain lists the successive lower point releases of a version,
// e.g. "1.21.2" -> ["1.21.1", "1.21"]. Versions without a numeric patch
// component have no chain.
func pointReleaseChain(gameVersion string) []string {
	parts := strings.Split(gameVersion, ".")
	if len(parts) != 3 {
		return nil
	}

	patch, err := strconv.Atoi(parts[2])
	if err != nil || patch < 1 {
		return nil
	}

	var chain []string
	for p := patch - 1; p >= 1; p-- {
		chain = append(chain, parts[0]+"."+parts[1]+"."+strconv.Itoa(p))
	}
	chain = append(chain, parts[0]+"."+parts[1])
	return chain
}

// BatchInProgressMessage is the localized user-facing text for
// ErrBatchInProgress.
func BatchInProgressMessage() string {
	return i18n.T("resolve.batch_in_progress")
}
