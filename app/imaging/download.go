package imaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// minContentLength rejects tiny payloads, which are almost always
	// placeholders or broken links rather than real photos.
	minContentLength = 1024

	// maxContentLength rejects oversized payloads before any bytes are read.
	maxContentLength = 20 * 1024 * 1024

	// DefaultFetchTimeout bounds a single image download.
	DefaultFetchTimeout = 10 * time.Second
)

const defaultUserAgent = "RedditImageDuplicateChecker/1.0"

var (
	// ErrTransport means the download failed at the network level (timeout,
	// connection error, non-200 status).
	ErrTransport = errors.New("image download failed")

	// ErrNotAnImage means the response is not an image content type.
	ErrNotAnImage = errors.New("url does not point to an image")

	// ErrSizeOutOfRange means the declared content length falls outside the
	// accepted window.
	ErrSizeOutOfRange = errors.New("image size outside acceptable range")
)

// Fetcher downloads candidate images with content-type and size validation.
// The zero value is usable. Fields are only read, never written, so one
// Fetcher serves concurrent requests.
type Fetcher struct {
	HTTPClient *http.Client  // nil = http.DefaultClient
	UserAgent  string        // identifying client header
	Timeout    time.Duration // per-request timeout, default DefaultFetchTimeout
}

func (f *Fetcher) httpClient() *http.Client {
	if f.HTTPClient != nil {
		return f.HTTPClient
	}
	return http.DefaultClient
}

func (f *Fetcher) userAgent() string {
	if f.UserAgent != "" {
		return f.UserAgent
	}
	return defaultUserAgent
}

func (f *Fetcher) timeout() time.Duration {
	if f.Timeout > 0 {
		return f.Timeout
	}
	return DefaultFetchTimeout
}

// Fetch retrieves the raw bytes of the image at imageURL. It validates the
// response before reading the body: content type must be image/*, declared
// content length must lie in [1KB, 20MB]. An absent Content-Length header
// counts as out of range. Decoding is the caller's job.
func (f *Fetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("User-Agent", f.userAgent())

	resp, err := f.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("%w: content-type %q", ErrNotAnImage, ct)
	}

	if resp.ContentLength < minContentLength || resp.ContentLength > maxContentLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrSizeOutOfRange, resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxContentLength))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return data, nil
}

// FetchFingerprint downloads imageURL and pipes the bytes straight into
// ComputeFingerprint.
func (f *Fetcher) FetchFingerprint(ctx context.Context, imageURL string, hashSize int) (Fingerprint, error) {
	data, err := f.Fetch(ctx, imageURL)
	if err != nil {
		return Fingerprint{}, err
	}
	return ComputeFingerprint(data, hashSize)
}
