package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/FaiMartinez/reddit-deduplication-system/app/imaging"
	"github.com/FaiMartinez/reddit-deduplication-system/app/reddit"
)

const (
	// DefaultPostLimit is the recent-posts window scanned per subreddit.
	DefaultPostLimit = 50

	// DefaultWorkers bounds concurrent fetch+hash work within one feed.
	DefaultWorkers = 4
)

var subredditNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_]{2,20}$`)

var (
	ErrNoSubreddits         = errors.New("no subreddits provided")
	ErrInvalidSubredditName = errors.New("invalid subreddit name")
	ErrInvalidPostURL       = errors.New("invalid reddit post url")
	ErrNoImageFound         = errors.New("no image found in the reddit post")
)

// ValidSubredditName reports whether name matches the subreddit naming rules.
func ValidSubredditName(name string) bool {
	return subredditNamePattern.MatchString(name)
}

// FeedAPI is the slice of the reddit client the scanner consumes.
type FeedAPI interface {
	SubredditExists(ctx context.Context, name string) error
	HotPosts(ctx context.Context, name string, limit int) ([]reddit.Post, error)
	PostByID(ctx context.Context, id string) (*reddit.Post, error)
}

// Match is one detected duplicate. Field names are the wire contract of the
// check-duplicates response.
type Match struct {
	PostID    string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Date      string `json:"date"`
	RedditURL string `json:"reddit_url"`
	ImageURL  string `json:"image_url"`
	Subreddit string `json:"subreddit"`
}

// Scanner walks subreddit hot listings looking for images perceptually close
// to a query fingerprint. Zero-value fields fall back to defaults; Feeds and
// Fetcher must be set. A Scanner holds no per-scan state and its fields are
// never written after construction, so one instance serves concurrent
// requests.
type Scanner struct {
	Feeds     FeedAPI
	Fetcher   *imaging.Fetcher
	HashSize  int // default imaging.DefaultHashSize
	Threshold int // default imaging.DefaultThreshold
	PostLimit int // default DefaultPostLimit
	Workers   int // default DefaultWorkers

	// OnFeedStats, when set, receives one report per scanned feed plus a
	// final total (Subreddit == ""). Observability only.
	OnFeedStats func(FeedStats)
}

func (s *Scanner) hashSize() int {
	if s.HashSize > 0 {
		return s.HashSize
	}
	return imaging.DefaultHashSize
}

func (s *Scanner) threshold() int {
	if s.Threshold > 0 {
		return s.Threshold
	}
	return imaging.DefaultThreshold
}

func (s *Scanner) postLimit() int {
	if s.PostLimit > 0 {
		return s.PostLimit
	}
	return DefaultPostLimit
}

func (s *Scanner) workers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return DefaultWorkers
}

// FindDuplicates scans the given subreddits, in order, for posts whose image
// matches query. Every name is pattern-checked and existence-checked before
// any feed is scanned (all-or-nothing pre-check). Per-post failures are
// counted and skipped; a feed failing mid-scan is logged and skipped; the
// scan always completes and returns whatever matches were found, in feed
// order then post order.
func (s *Scanner) FindDuplicates(ctx context.Context, query imaging.Fingerprint, subreddits []string) ([]Match, error) {
	if len(subreddits) == 0 {
		return nil, ErrNoSubreddits
	}
	for _, name := range subreddits {
		if !ValidSubredditName(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSubredditName, name)
		}
	}
	for _, name := range subreddits {
		if err := s.Feeds.SubredditExists(ctx, name); err != nil {
			return nil, fmt.Errorf("r/%s: %w", name, err)
		}
	}

	var matches []Match
	var totals FeedStats
	for _, name := range subreddits {
		if ctx.Err() != nil {
			return matches, ctx.Err()
		}

		feedMatches, stats, err := s.scanFeed(ctx, query, name)
		if err != nil {
			slog.Error("scan: subreddit failed, skipping", "subreddit", name, "error", err)
			continue
		}
		matches = append(matches, feedMatches...)
		totals.add(stats)

		slog.Info("scan: subreddit done",
			"subreddit", name,
			"posts", stats.PostsScanned,
			"images", stats.ImagesFound,
			"hashed", stats.ImagesHashed,
			"failures", stats.Failures,
			"matches", stats.Matches)
		if s.OnFeedStats != nil {
			s.OnFeedStats(stats)
		}
	}

	slog.Info("scan: complete",
		"subreddits", len(subreddits),
		"posts", totals.PostsScanned,
		"images", totals.ImagesFound,
		"hashed", totals.ImagesHashed,
		"failures", totals.Failures,
		"matches", totals.Matches)
	if s.OnFeedStats != nil {
		s.OnFeedStats(totals)
	}
	return matches, nil
}

// scanFeed checks one subreddit's hot window. Posts are fetched and hashed on
// a bounded worker pool; results land in a post-indexed slice so match order
// stays deterministic regardless of scheduling.
func (s *Scanner) scanFeed(ctx context.Context, query imaging.Fingerprint, name string) ([]Match, FeedStats, error) {
	posts, err := s.Feeds.HotPosts(ctx, name, s.postLimit())
	if err != nil {
		return nil, FeedStats{}, err
	}

	found := make([]*Match, len(posts))
	var imagesFound, imagesHashed, failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for i := range posts {
		g.Go(func() error {
			post := &posts[i]

			imageURL := reddit.ExtractImageURL(gctx, post, s.Feeds)
			if imageURL == "" {
				return nil
			}
			imagesFound.Add(1)
			if reddit.NeedsNormalization(imageURL) {
				imageURL = reddit.NormalizeImageURL(imageURL)
			}

			fp, err := s.Fetcher.FetchFingerprint(gctx, imageURL, s.hashSize())
			if err != nil {
				// One bad candidate never aborts the feed.
				failures.Add(1)
				slog.Debug("scan: candidate failed",
					"subreddit", name, "post", post.ID, "url", imageURL, "error", err)
				return nil
			}
			imagesHashed.Add(1)

			if imaging.IsMatch(query, fp, s.threshold()) {
				found[i] = &Match{
					PostID:    post.ID,
					Title:     post.Title,
					Author:    post.Author,
					Date:      post.CreatedAt().Format("2006-01-02T15:04:05"),
					RedditURL: post.PermalinkURL(),
					ImageURL:  imageURL,
					Subreddit: name,
				}
			}
			return nil
		})
	}
	// Workers never return errors, so Wait only synchronizes.
	_ = g.Wait()

	var matches []Match
	for _, m := range found {
		if m != nil {
			matches = append(matches, *m)
		}
	}
	stats := FeedStats{
		Subreddit:    name,
		PostsScanned: len(posts),
		ImagesFound:  int(imagesFound.Load()),
		ImagesHashed: int(imagesHashed.Load()),
		Failures:     int(failures.Load()),
		Matches:      len(matches),
	}
	return matches, stats, nil
}

// FindDuplicatesFromPostURL resolves a post permalink, fingerprints the image
// embedded in that post, and delegates to FindDuplicates.
func (s *Scanner) FindDuplicatesFromPostURL(ctx context.Context, postURL string, subreddits []string) ([]Match, error) {
	id, ok := reddit.SubmissionIDFromURL(postURL)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPostURL, postURL)
	}
	post, err := s.Feeds.PostByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("look up post %s: %w", id, err)
	}

	imageURL := reddit.ExtractImageURL(ctx, post, s.Feeds)
	if imageURL == "" {
		return nil, ErrNoImageFound
	}
	if reddit.NeedsNormalization(imageURL) {
		imageURL = reddit.NormalizeImageURL(imageURL)
	}

	query, err := s.Fetcher.FetchFingerprint(ctx, imageURL, s.hashSize())
	if err != nil {
		return nil, err
	}
	return s.FindDuplicates(ctx, query, subreddits)
}
