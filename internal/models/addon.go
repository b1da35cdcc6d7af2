package models

import (
	"strings"
	"time"
)

// AddonRequest is one user-supplied resolution input. Keyword keeps the
// original casing for display; lookups use NormalizedKeyword.
type AddonRequest struct {
	Keyword string
	Kind    Kind
}

// ParseRequests splits a comma-separated keyword list into requests,
// dropping empty tokens.
func ParseRequests(input string, kind Kind) []AddonRequest {
	parts := strings.Split(input, ",")
	requests := make([]AddonRequest, 0, len(parts))
	for _, part := range parts {
		keyword := strings.TrimSpace(part)
		if keyword == "" {
			continue
		}
		requests = append(requests, AddonRequest{Keyword: keyword, Kind: kind})
	}
	return requests
}

func NormalizedKeyword(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// AddonRecord is the persisted provenance of one resolved keyword for a
// specific kind, loader and game version.
type AddonRecord struct {
	Keyword     string    `json:"keyword"`
	Kind        Kind      `json:"kind"`
	Loader      Loader    `json:"loader"`
	GameVersion string    `json:"gameVersion"`
	ProjectID   string    `json:"projectId"`
	ProjectSlug string    `json:"projectSlug,omitempty"`
	VersionID   string    `json:"versionId"`
	FileName    string    `json:"fileName"`
	FilePath    string    `json:"filePath"`
	Sha1        string    `json:"sha1,omitempty"`
	Sha512      string    `json:"sha512,omitempty"`
	ResolvedAt  time.Time `json:"resolvedAt"`
}

// Key is the registry key: unique per (keyword, kind, loader, gameVersion).
func (r AddonRecord) Key() string {
	return RecordKey(r.Keyword, r.Kind, r.Loader, r.GameVersion)
}

func RecordKey(keyword string, kind Kind, loader Loader, gameVersion string) string {
	return strings.Join([]string{NormalizedKeyword(keyword), string(kind), string(loader), gameVersion}, "|")
}
