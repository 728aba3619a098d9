package reddit

import "testing"

func TestNormalizeImageURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "preview url with query",
			in:   "https://preview.redd.it/abcd1234.jpg?width=640&auto=webp&s=deadbeef",
			want: "https://i.redd.it/abcd1234.jpg",
		},
		{
			name: "already canonical",
			in:   "https://i.redd.it/abcd1234.jpg",
			want: "https://i.redd.it/abcd1234.jpg",
		},
		{
			name: "media proxy shape",
			in:   "https://www.reddit.com/media?url=https%3A%2F%2Fi.redd.it%2Fxyz987.png",
			want: "https://i.redd.it/xyz987.png",
		},
		{
			name: "nested path keeps only the filename",
			in:   "https://external.example.com/images/2024/photo.webp?sig=1",
			want: "https://i.redd.it/photo.webp",
		},
		{
			name: "escaped filename is decoded",
			in:   "https://preview.redd.it/my%2Bcat%20photo.jpg?width=640",
			want: "https://i.redd.it/my+cat photo.jpg",
		},
		{
			name: "empty stays empty",
			in:   "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeImageURL(tt.in); got != tt.want {
				t.Errorf("NormalizeImageURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeImageURL_Idempotent(t *testing.T) {
	t.Parallel()

	urls := []string{
		"https://preview.redd.it/abcd1234.jpg?width=640&s=deadbeef",
		"https://i.redd.it/abcd1234.jpg",
		"https://www.reddit.com/media?url=https%3A%2F%2Fi.redd.it%2Fxyz987.png",
	}
	for _, u := range urls {
		once := NormalizeImageURL(u)
		twice := NormalizeImageURL(once)
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", u, once, twice)
		}
	}
}

func TestClassifyQueryURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want QueryKind
	}{
		{"https://www.reddit.com/r/pics/comments/abc123/some_title/", QueryPostPermalink},
		{"https://preview.redd.it/abcd.jpg?s=1", QueryRedditMedia},
		{"https://www.reddit.com/media?url=https%3A%2F%2Fi.redd.it%2Fx.png", QueryRedditMedia},
		{"https://i.redd.it/abcd.jpg", QueryRedditMedia},
		{"https://example.com/photo.jpg", QueryDirectImage},
	}
	for _, tt := range tests {
		if got := ClassifyQueryURL(tt.in); got != tt.want {
			t.Errorf("ClassifyQueryURL(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSubmissionIDFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		wantID string
		wantOK bool
	}{
		{"https://www.reddit.com/r/pics/comments/abc123/title/", "abc123", true},
		{"https://reddit.com/r/pics/comments/abc123", "abc123", true},
		{"https://www.reddit.com/r/pics/comments/abc123?sort=top", "abc123", true},
		{"https://www.reddit.com/r/pics/", "", false},
		{"https://example.com/comments/", "", false},
	}
	for _, tt := range tests {
		id, ok := SubmissionIDFromURL(tt.in)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("SubmissionIDFromURL(%q) = (%q, %v), want (%q, %v)", tt.in, id, ok, tt.wantID, tt.wantOK)
		}
	}
}
