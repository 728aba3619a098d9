package reddit

import (
	"net/url"
	"strings"
)

// hostedImageOrigin is the canonical host for reddit-hosted images.
const hostedImageOrigin = "https://i.redd.it/"

// NormalizeImageURL rewrites reddit preview and media-proxy URLs onto the
// i.redd.it origin. Best-effort by design: when structured parsing fails the
// function falls back to string surgery (strip query, rewrite the preview
// host) so it always returns some URL. The result can be wrong for URL
// shapes reddit has not served yet; callers treat a dead normalized URL as
// an ordinary fetch failure.
func NormalizeImageURL(raw string) string {
	if raw == "" {
		return ""
	}

	// "/media?url=<encoded-target>" proxy shape: unwrap the real target.
	if _, target, ok := strings.Cut(raw, "/media?url="); ok {
		if decoded, err := url.QueryUnescape(target); err == nil {
			raw = decoded
		}
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Path == "" {
		return fallbackNormalize(raw)
	}
	segments := strings.Split(parsed.Path, "/")
	filename := segments[len(segments)-1]
	filename, _, _ = strings.Cut(filename, "?")
	if decoded, err := url.PathUnescape(filename); err == nil {
		filename = decoded
	}
	if filename == "" {
		return fallbackNormalize(raw)
	}
	return hostedImageOrigin + filename
}

func fallbackNormalize(raw string) string {
	base, _, _ := strings.Cut(raw, "?")
	return strings.Replace(base, "preview.redd.it", "i.redd.it", 1)
}

// NeedsNormalization reports whether an extracted image URL must go through
// NormalizeImageURL before it can be fetched. Preview and media_metadata
// URLs are directly fetchable as served; only the media-proxy shape is not.
func NeedsNormalization(imageURL string) bool {
	return strings.Contains(imageURL, "/media?url=")
}

// QueryKind classifies a user-supplied query URL.
type QueryKind int

const (
	// QueryDirectImage is a plain image URL to hash as-is.
	QueryDirectImage QueryKind = iota
	// QueryPostPermalink is a reddit post URL; the image comes from the post.
	QueryPostPermalink
	// QueryRedditMedia is a reddit preview/proxy/hosted shape; normalize
	// before hashing.
	QueryRedditMedia
)

// ClassifyQueryURL applies the routing rule for user-supplied URLs.
func ClassifyQueryURL(rawURL string) QueryKind {
	if strings.Contains(rawURL, "reddit.com") && strings.Contains(rawURL, "comments/") {
		return QueryPostPermalink
	}
	if strings.Contains(rawURL, "preview.redd.it") ||
		strings.Contains(rawURL, "/media?url=") ||
		strings.Contains(rawURL, "i.redd.it") {
		return QueryRedditMedia
	}
	return QueryDirectImage
}

// SubmissionIDFromURL pulls the submission id out of a post permalink
// (".../comments/<id>/...").
func SubmissionIDFromURL(postURL string) (string, bool) {
	_, rest, ok := strings.Cut(postURL, "comments/")
	if !ok {
		return "", false
	}
	id, _, _ := strings.Cut(rest, "/")
	id, _, _ = strings.Cut(id, "?")
	if id == "" {
		return "", false
	}
	return id, true
}
