package api

import (
	"context"

	"github.com/FaiMartinez/reddit-deduplication-system/app/imaging"
	"github.com/FaiMartinez/reddit-deduplication-system/app/scan"
)

// DuplicateFinder is the scanner surface the HTTP layer consumes.
type DuplicateFinder interface {
	FindDuplicates(ctx context.Context, query imaging.Fingerprint, subreddits []string) ([]scan.Match, error)
	FindDuplicatesFromPostURL(ctx context.Context, postURL string, subreddits []string) ([]scan.Match, error)
}

// Reporter files reports against posts.
type Reporter interface {
	Report(ctx context.Context, postID, reason string) error
}

// Handler carries the dependencies for all HTTP endpoints.
type Handler struct {
	finder   DuplicateFinder
	reporter Reporter
	fetcher  *imaging.Fetcher
	hashSize int
}

type checkResponse struct {
	Success bool         `json:"success"`
	Results []scan.Match `json:"results"`
	Count   int          `json:"count"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type reportResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
