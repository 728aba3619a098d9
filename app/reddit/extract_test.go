package reddit

import (
	"context"
	"errors"
	"testing"
)

type fakeResolver struct {
	posts map[string]*Post
}

func (f *fakeResolver) PostByID(_ context.Context, id string) (*Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

func galleryPost() *Post {
	return &Post{
		ID:  "gal1",
		URL: "https://www.reddit.com/gallery/gal1",
		GalleryData: &GalleryData{Items: []GalleryItem{
			{MediaID: "m1"},
			{MediaID: "m2"},
		}},
		MediaMetadata: map[string]MediaItem{
			"m1": {E: "AnimatedImage", S: &MediaSource{U: "https://i.redd.it/anim.gif"}},
			"m2": {E: "Image", S: &MediaSource{U: "https://i.redd.it/still.jpg"}},
		},
	}
}

func TestExtractImageURL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name string
		post *Post
		want string
	}{
		{
			name: "video has no image regardless of other fields",
			post: &Post{
				IsVideo: true,
				URL:     "https://i.redd.it/frame.jpg",
				Preview: &Preview{Images: []PreviewImage{{Source: PreviewSource{URL: "https://preview.redd.it/p.jpg"}}}},
			},
			want: "",
		},
		{
			name: "gallery picks first Image item in listed order",
			post: galleryPost(),
			want: "https://i.redd.it/still.jpg",
		},
		{
			name: "gallery without metadata yields nothing",
			post: &Post{
				URL:         "https://i.redd.it/direct.jpg",
				GalleryData: &GalleryData{Items: []GalleryItem{{MediaID: "m1"}}},
			},
			want: "",
		},
		{
			name: "hosted image with supported extension",
			post: &Post{URL: "https://i.redd.it/abc.png"},
			want: "https://i.redd.it/abc.png",
		},
		{
			name: "hosted image with unsupported extension falls through",
			post: &Post{URL: "https://i.redd.it/clip.mp4"},
			want: "",
		},
		{
			name: "preview source",
			post: &Post{
				URL:     "https://example.com/article",
				Preview: &Preview{Images: []PreviewImage{{Source: PreviewSource{URL: "https://preview.redd.it/p.jpg?s=1"}}}},
			},
			want: "https://preview.redd.it/p.jpg?s=1",
		},
		{
			name: "bare media metadata Image entry",
			post: &Post{
				URL: "https://example.com/article",
				MediaMetadata: map[string]MediaItem{
					"z": {E: "RedditVideo"},
					"a": {E: "Image", S: &MediaSource{U: "https://i.redd.it/meta.jpg"}},
				},
			},
			want: "https://i.redd.it/meta.jpg",
		},
		{
			name: "direct external url with supported extension",
			post: &Post{URL: "https://example.com/photo.webp"},
			want: "https://example.com/photo.webp",
		},
		{
			name: "nothing extractable",
			post: &Post{URL: "https://example.com/article"},
			want: "",
		},
		{
			name: "nil post",
			post: nil,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractImageURL(ctx, tt.post, nil); got != tt.want {
				t.Errorf("ExtractImageURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractImageURL_GalleryBeatsDirectURL(t *testing.T) {
	t.Parallel()

	// A post carrying both gallery data and an extension URL must resolve
	// through the gallery branch.
	post := galleryPost()
	post.URL = "https://i.redd.it/direct.jpg"

	got := ExtractImageURL(context.Background(), post, nil)
	if got != "https://i.redd.it/still.jpg" {
		t.Errorf("ExtractImageURL() = %q, want gallery image", got)
	}
}

func TestExtractImageURL_CrosspostFallback(t *testing.T) {
	t.Parallel()

	parent := &Post{ID: "parent1", URL: "https://i.redd.it/original.jpg"}
	resolver := &fakeResolver{posts: map[string]*Post{"parent1": parent}}

	post := &Post{
		URL:             "https://www.reddit.com/r/other/comments/xp1/title/",
		CrosspostParent: "t3_parent1",
	}
	got := ExtractImageURL(context.Background(), post, resolver)
	if got != "https://i.redd.it/original.jpg" {
		t.Errorf("ExtractImageURL() = %q, want parent image", got)
	}
}

func TestExtractImageURL_CrosspostFailureSwallowed(t *testing.T) {
	t.Parallel()

	post := &Post{
		URL:             "https://www.reddit.com/r/other/comments/xp1/title/",
		CrosspostParent: "t3_missing",
	}
	if got := ExtractImageURL(context.Background(), post, &fakeResolver{}); got != "" {
		t.Errorf("ExtractImageURL() = %q, want empty on resolver failure", got)
	}
}

func TestExtractImageURL_CrosspostSingleLevel(t *testing.T) {
	t.Parallel()

	// Parent is itself a crosspost; recursion must stop after one hop.
	grandparent := &Post{ID: "gp", URL: "https://i.redd.it/root.jpg"}
	parent := &Post{
		ID:              "p",
		URL:             "https://www.reddit.com/r/mid/comments/p/title/",
		CrosspostParent: "t3_gp",
	}
	resolver := &fakeResolver{posts: map[string]*Post{"p": parent, "gp": grandparent}}

	post := &Post{
		URL:             "https://www.reddit.com/r/other/comments/c/title/",
		CrosspostParent: "t3_p",
	}
	if got := ExtractImageURL(context.Background(), post, resolver); got != "" {
		t.Errorf("ExtractImageURL() = %q, want empty past one crosspost level", got)
	}
}
