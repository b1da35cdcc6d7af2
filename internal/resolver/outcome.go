package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"syscall"

	"github.com/palgania/launcher/internal/cachestore"
	"github.com/palgania/launcher/internal/httpclient"
	"github.com/palgania/launcher/internal/i18n"
	"github.com/palgania/launcher/internal/models"
	"github.com/palgania/launcher/internal/modrinth"
)

// OutcomeKind classifies how one keyword resolved.
type OutcomeKind string

const (
	CachedLocal        OutcomeKind = "cached_local"
	Downloaded         OutcomeKind = "downloaded"
	NotFoundRemote     OutcomeKind = "not_found_remote"
	OfflineUnavailable OutcomeKind = "offline_unavailable"
	NetworkFailure     OutcomeKind = "network_error"
)

// FailReason narrows a NetworkFailure for messaging and backoff decisions.
type FailReason string

const (
	ReasonTimeout           FailReason = "timeout"
	ReasonConnectionRefused FailReason = "connection-refused"
	ReasonRateLimited       FailReason = "rate-limited"
	ReasonHTTPError         FailReason = "http-error"
	ReasonIntegrity         FailReason = "integrity"
	ReasonCancelled         FailReason = "cancelled"
)

// Outcome is the result for one keyword. Record is set for CachedLocal and
// Downloaded; Reason and Err only for NetworkFailure.
type Outcome struct {
	Kind       OutcomeKind
	Record     *models.AddonRecord
	Reason     FailReason
	StatusCode int
	Err        error
}

// Available reports whether the keyword ended up with a usable local file.
func (o Outcome) Available() bool {
	return o.Kind == CachedLocal || o.Kind == Downloaded
}

// ReasonString renders the failure reason for user messaging.
func (o Outcome) ReasonString() string {
	switch o.Reason {
	case ReasonHTTPError:
		return string(ReasonHTTPError) + "(" + strconv.Itoa(o.StatusCode) + ")"
	case "":
		if o.Err != nil {
			return o.Err.Error()
		}
		return ""
	}
	return string(o.Reason)
}

// classify maps an error from the remote chain to a per-keyword outcome.
// Cache-store write errors never reach here; they abort the batch instead.
func classify(err error) Outcome {
	var notFound *modrinth.ProjectNotFoundError
	if errors.As(err, &notFound) {
		return Outcome{Kind: NotFoundRemote, Err: err}
	}

	var rateLimited *modrinth.RateLimitError
	if errors.As(err, &rateLimited) {
		return Outcome{Kind: NetworkFailure, Reason: ReasonRateLimited, Err: err}
	}

	var downloadLimited *httpclient.RateLimitedError
	if errors.As(err, &downloadLimited) {
		return Outcome{Kind: NetworkFailure, Reason: ReasonRateLimited, Err: err}
	}

	var integrity *cachestore.IntegrityError
	if errors.As(err, &integrity) {
		return Outcome{Kind: NetworkFailure, Reason: ReasonIntegrity, Err: err}
	}

	if httpclient.IsTimeoutError(err) {
		return Outcome{Kind: NetworkFailure, Reason: ReasonTimeout, Err: err}
	}
	var timeout *httpclient.TimeoutError
	if errors.As(err, &timeout) {
		return Outcome{Kind: NetworkFailure, Reason: ReasonTimeout, Err: err}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return Outcome{Kind: NetworkFailure, Reason: ReasonConnectionRefused, Err: err}
	}

	var apiErr *modrinth.CatalogAPIError
	if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
		return Outcome{Kind: NetworkFailure, Reason: ReasonHTTPError, StatusCode: apiErr.StatusCode, Err: err}
	}

	if errors.Is(err, context.Canceled) {
		return Outcome{Kind: NetworkFailure, Reason: ReasonCancelled, Err: err}
	}

	return Outcome{Kind: NetworkFailure, Err: err}
}

// Entry pairs a requested keyword with its outcome, in request order.
type Entry struct {
	Keyword string
	Outcome Outcome
}

// Report is the ordered result of one batch.
type Report struct {
	Entries []Entry
}

type Summary struct {
	Cached     int
	Downloaded int
	NotFound   int
	Offline    int
	Failed     int
}

func (s Summary) Unavailable() int {
	return s.NotFound + s.Offline + s.Failed
}

func (r Report) Summary() Summary {
	var summary Summary
	for _, entry := range r.Entries {
		switch entry.Outcome.Kind {
		case CachedLocal:
			summary.Cached++
		case Downloaded:
			summary.Downloaded++
		case NotFoundRemote:
			summary.NotFound++
		case OfflineUnavailable:
			summary.Offline++
		case NetworkFailure:
			summary.Failed++
		}
	}
	return summary
}

func (r Report) HasUnavailable() bool {
	return r.Summary().Unavailable() > 0
}

// Records lists the usable records in request order, for activation.
func (r Report) Records() []models.AddonRecord {
	var records []models.AddonRecord
	for _, entry := range r.Entries {
		if entry.Outcome.Available() && entry.Outcome.Record != nil {
			records = append(records, *entry.Outcome.Record)
		}
	}
	return records
}

// Lines renders one localized status line per keyword, in request order.
func (r Report) Lines() []string {
	lines := make([]string, 0, len(r.Entries))
	for _, entry := range r.Entries {
		lines = append(lines, entry.line())
	}
	return lines
}

func (e Entry) line() string {
	vars := i18n.Tvars{Data: &i18n.TData{"keyword": e.Keyword}}
	switch e.Outcome.Kind {
	case CachedLocal:
		return i18n.T("resolve.cached", vars)
	case Downloaded:
		return i18n.T("resolve.downloaded", vars)
	case NotFoundRemote:
		return i18n.T("resolve.not_found", vars)
	case OfflineUnavailable:
		return i18n.T("resolve.offline_unavailable", vars)
	default:
		return i18n.T("resolve.network_error", i18n.Tvars{Data: &i18n.TData{
			"keyword": e.Keyword,
			"reason":  e.Outcome.ReasonString(),
		}})
	}
}

// SummaryLine renders the aggregate count line.
func (r Report) SummaryLine() string {
	summary := r.Summary()
	return i18n.T("resolve.summary", i18n.Tvars{Data: &i18n.TData{
		"cached":      fmt.Sprintf("%d", summary.Cached),
		"downloaded":  fmt.Sprintf("%d", summary.Downloaded),
		"unavailable": fmt.Sprintf("%d", summary.Unavailable()),
	}})
}
