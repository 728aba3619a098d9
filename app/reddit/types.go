package reddit

import "time"

// Post is the subset of a reddit submission the duplicate scanner needs.
// Field names mirror the JSON API (raw_json=1 responses, so media URLs are
// not HTML-escaped).
type Post struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	Author          string               `json:"author"`
	Subreddit       string               `json:"subreddit"`
	CreatedUTC      float64              `json:"created_utc"`
	Permalink       string               `json:"permalink"`
	URL             string               `json:"url"`
	IsVideo         bool                 `json:"is_video"`
	GalleryData     *GalleryData         `json:"gallery_data,omitempty"`
	MediaMetadata   map[string]MediaItem `json:"media_metadata,omitempty"`
	Preview         *Preview             `json:"preview,omitempty"`
	CrosspostParent string               `json:"crosspost_parent,omitempty"`
}

// CreatedAt converts the float epoch reddit reports into a UTC time.
func (p *Post) CreatedAt() time.Time {
	return time.Unix(int64(p.CreatedUTC), 0).UTC()
}

// PermalinkURL is the canonical reddit URL for the post.
func (p *Post) PermalinkURL() string {
	return "https://reddit.com" + p.Permalink
}

// GalleryData lists gallery items in display order.
type GalleryData struct {
	Items []GalleryItem `json:"items"`
}

type GalleryItem struct {
	MediaID string `json:"media_id"`
}

// MediaItem is one media_metadata entry. E is the media type ("Image",
// "AnimatedImage", "RedditVideo"); S points at the full-size source.
type MediaItem struct {
	E string       `json:"e"`
	S *MediaSource `json:"s"`
}

type MediaSource struct {
	U string `json:"u"`
}

// Preview carries the preview images reddit renders for link posts.
type Preview struct {
	Images []PreviewImage `json:"images"`
}

type PreviewImage struct {
	Source PreviewSource `json:"source"`
}

type PreviewSource struct {
	URL string `json:"url"`
}

// listing is the envelope reddit wraps around post collections.
type listing struct {
	Data struct {
		Children []struct {
			Data Post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}
