package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/FaiMartinez/reddit-deduplication-system/app/imaging"
	"github.com/FaiMartinez/reddit-deduplication-system/app/reddit"
	"github.com/FaiMartinez/reddit-deduplication-system/app/scan"
)

var allowedUploadExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

func NewHandler(finder DuplicateFinder, reporter Reporter, fetcher *imaging.Fetcher, hashSize int) *Handler {
	return &Handler{
		finder:   finder,
		reporter: reporter,
		fetcher:  fetcher,
		hashSize: hashSize,
	}
}

// CheckDuplicates handles POST /api/check-duplicates: multipart form with
// either an image_url or an uploaded image, plus one or more subreddit[]
// names to scan.
func (h *Handler) CheckDuplicates(c *gin.Context) {
	imageURL := strings.TrimSpace(c.PostForm("image_url"))
	fileHeader, fileErr := c.FormFile("image")
	hasFile := fileErr == nil && fileHeader != nil

	subreddits := c.PostFormArray("subreddit[]")
	if len(subreddits) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "No subreddits provided"})
		return
	}
	for _, name := range subreddits {
		if !scan.ValidSubredditName(name) {
			c.JSON(http.StatusBadRequest, errorResponse{
				Error: fmt.Sprintf("Invalid subreddit name: %s", name),
			})
			return
		}
	}

	if imageURL == "" && !hasFile {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "No image or URL provided"})
		return
	}

	ctx := c.Request.Context()
	var results []scan.Match
	var err error

	if imageURL != "" {
		if !strings.HasPrefix(imageURL, "http://") && !strings.HasPrefix(imageURL, "https://") {
			imageURL = "https://" + imageURL
		}
		results, err = h.checkURL(ctx, imageURL, subreddits)
		if err != nil {
			slog.Warn("api: url check failed", "url", imageURL, "error", err)
			c.JSON(http.StatusBadRequest, errorResponse{
				Error:   err.Error(),
				Details: "Failed to process URL. Make sure it points to a valid Reddit post or image.",
			})
			return
		}
	} else {
		results, err = h.checkUpload(ctx, fileHeader, subreddits)
		if err != nil {
			if resp, ok := asErrorResponse(err); ok {
				c.JSON(http.StatusBadRequest, resp)
				return
			}
			slog.Warn("api: upload check failed", "filename", fileHeader.Filename, "error", err)
			c.JSON(http.StatusBadRequest, errorResponse{
				Error:   "Failed to process image",
				Details: err.Error(),
			})
			return
		}
	}

	if results == nil {
		results = []scan.Match{}
	}
	c.JSON(http.StatusOK, checkResponse{
		Success: true,
		Results: results,
		Count:   len(results),
	})
}

// checkURL routes a query URL: reddit permalinks resolve through the post,
// reddit media shapes are normalized first, anything else is hashed as a
// direct image URL.
func (h *Handler) checkURL(ctx context.Context, imageURL string, subreddits []string) ([]scan.Match, error) {
	switch reddit.ClassifyQueryURL(imageURL) {
	case reddit.QueryPostPermalink:
		return h.finder.FindDuplicatesFromPostURL(ctx, imageURL, subreddits)
	case reddit.QueryRedditMedia:
		clean := reddit.NormalizeImageURL(imageURL)
		query, err := h.fetcher.FetchFingerprint(ctx, clean, h.hashSize)
		if err != nil {
			return nil, err
		}
		return h.finder.FindDuplicates(ctx, query, subreddits)
	default:
		query, err := h.fetcher.FetchFingerprint(ctx, imageURL, h.hashSize)
		if err != nil {
			return nil, err
		}
		return h.finder.FindDuplicates(ctx, query, subreddits)
	}
}

func (h *Handler) checkUpload(ctx context.Context, fileHeader *multipart.FileHeader, subreddits []string) ([]scan.Match, error) {
	if fileHeader.Filename == "" {
		return nil, &requestError{resp: errorResponse{Error: "No file selected"}}
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedUploadExtensions[ext] {
		return nil, &requestError{resp: errorResponse{
			Error:   "Invalid file type",
			Details: "Allowed file types are: .jpg, .jpeg, .png, .gif, .webp",
		}}
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	query, err := imaging.ComputeFingerprint(data, h.hashSize)
	if err != nil {
		return nil, err
	}
	return h.finder.FindDuplicates(ctx, query, subreddits)
}

// requestError carries a pre-shaped 400 payload out of checkUpload.
type requestError struct {
	resp errorResponse
}

func (e *requestError) Error() string { return e.resp.Error }

func asErrorResponse(err error) (errorResponse, bool) {
	if re, ok := err.(*requestError); ok {
		return re.resp, true
	}
	return errorResponse{}, false
}

// ReportPost handles POST /api/report: files a repost report against the
// given post id.
func (h *Handler) ReportPost(c *gin.Context) {
	postID := strings.TrimSpace(c.PostForm("post_id"))
	if postID == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "No post ID provided"})
		return
	}

	if err := h.reporter.Report(c.Request.Context(), postID, "Potential repost"); err != nil {
		slog.Warn("api: report failed", "post", postID, "error", err)
		c.JSON(http.StatusOK, reportResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, reportResponse{Success: true, Message: "Post reported successfully"})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
