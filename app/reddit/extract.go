package reddit

import (
	"context"
	"sort"
	"strings"
)

// supportedExtensions are the image formats the hasher can decode.
var supportedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

func hasSupportedExtension(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, ext := range supportedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ParentResolver looks up a crosspost's parent submission. A nil resolver
// disables the crosspost fallback.
type ParentResolver interface {
	PostByID(ctx context.Context, id string) (*Post, error)
}

// ExtractImageURL determines whether a post embeds an image and returns its
// URL, or "" when there is none. Post shapes are checked in fixed priority
// order, first hit wins:
//
//  1. video posts carry no image
//  2. gallery: first "Image" item in listed order
//  3. i.redd.it URL with a supported extension
//  4. first preview source
//  5. any "Image" entry in media_metadata
//  6. post URL with a supported extension
//  7. crosspost parent, one level deep
//
// Shape quirks (missing metadata, nil sources, resolver failures) yield "",
// never an error: one malformed post must not abort a feed scan.
func ExtractImageURL(ctx context.Context, p *Post, parents ParentResolver) string {
	return extractImageURL(ctx, p, parents, true)
}

func extractImageURL(ctx context.Context, p *Post, parents ParentResolver, followCrosspost bool) string {
	if p == nil || p.IsVideo {
		return ""
	}

	// Gallery posts resolve through media_metadata or not at all.
	if p.GalleryData != nil && len(p.GalleryData.Items) > 0 {
		return galleryImageURL(p)
	}

	if strings.Contains(p.URL, "i.redd.it") && hasSupportedExtension(p.URL) {
		return p.URL
	}

	if p.Preview != nil && len(p.Preview.Images) > 0 {
		if u := p.Preview.Images[0].Source.URL; u != "" {
			return u
		}
	}

	if u := metadataImageURL(p.MediaMetadata); u != "" {
		return u
	}

	if hasSupportedExtension(p.URL) {
		return p.URL
	}

	if followCrosspost && parents != nil &&
		strings.Contains(p.URL, "reddit.com") && p.CrosspostParent != "" {
		id := p.CrosspostParent
		if idx := strings.IndexByte(id, '_'); idx >= 0 {
			id = id[idx+1:]
		}
		parent, err := parents.PostByID(ctx, id)
		if err != nil {
			return ""
		}
		return extractImageURL(ctx, parent, parents, false)
	}

	return ""
}

func galleryImageURL(p *Post) string {
	if len(p.MediaMetadata) == 0 {
		return ""
	}
	for _, item := range p.GalleryData.Items {
		media, ok := p.MediaMetadata[item.MediaID]
		if !ok {
			continue
		}
		if media.E == "Image" && media.S != nil && media.S.U != "" {
			return media.S.U
		}
	}
	return ""
}

// metadataImageURL picks an "Image" entry from a bare media_metadata map.
// Keys are sorted so the choice is deterministic.
func metadataImageURL(metadata map[string]MediaItem) string {
	if len(metadata) == 0 {
		return ""
	}
	ids := make([]string, 0, len(metadata))
	for id := range metadata {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		item := metadata[id]
		if item.E == "Image" && item.S != nil && item.S.U != "" {
			return item.S.U
		}
	}
	return ""
}
