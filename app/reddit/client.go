package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	defaultAPIURL   = "https://oauth.reddit.com"
)

// ErrSubredditNotFound means a requested subreddit does not exist or cannot
// be read with the current credentials.
var ErrSubredditNotFound = errors.New("subreddit not found or private")

// Config holds the credentials and overridables for a Client.
type Config struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	HTTPClient   *http.Client // nil = http.DefaultClient
	TokenURL     string       // override for tests
	APIURL       string       // override for tests
}

func (c *Config) defaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.UserAgent == "" {
		c.UserAgent = "golang:reddit-image-dedup:v1.0"
	}
	if c.TokenURL == "" {
		c.TokenURL = defaultTokenURL
	}
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
}

// Client talks to the reddit JSON API with an application-only OAuth2 token.
// Safe for concurrent use.
type Client struct {
	cfg Config

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient authenticates immediately so a misconfigured credential pair is
// caught at startup rather than on the first scan.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	cfg.defaults()
	c := &Client{cfg: cfg}
	if _, err := c.token(ctx); err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}
	return c, nil
}

// token returns a valid access token, fetching a fresh one when the cached
// token is missing or about to expire.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", errors.New("token endpoint returned no access token (check credentials)")
	}

	c.accessToken = tok.AccessToken
	// Refresh one minute ahead of the reported expiry.
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

func (c *Client) do(ctx context.Context, method, path string, body url.Values) (*http.Response, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(body.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return c.cfg.HTTPClient.Do(req)
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit api returned status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// SubredditExists verifies the subreddit resolves and is readable.
// Returns ErrSubredditNotFound when it does not.
func (c *Client) SubredditExists(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodGet, "/r/"+name+"/about?raw_json=1", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusNotFound:
		return ErrSubredditNotFound
	default:
		return fmt.Errorf("reddit api returned status %d for r/%s", resp.StatusCode, name)
	}

	// Unknown names can come back as a search listing instead of a 404.
	var about struct {
		Kind string `json:"kind"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&about); err != nil {
		return err
	}
	if about.Kind != "t5" {
		return ErrSubredditNotFound
	}
	return nil
}

// HotPosts returns up to limit posts from the subreddit's hot listing, most
// active first.
func (c *Client) HotPosts(ctx context.Context, name string, limit int) ([]Post, error) {
	var l listing
	path := "/r/" + name + "/hot?raw_json=1&limit=" + strconv.Itoa(limit)
	if err := c.getJSON(ctx, path, &l); err != nil {
		return nil, err
	}
	posts := make([]Post, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

// PostByID looks up a single submission by its bare id (without the t3_
// prefix).
func (c *Client) PostByID(ctx context.Context, id string) (*Post, error) {
	var l listing
	if err := c.getJSON(ctx, "/api/info?raw_json=1&id=t3_"+url.QueryEscape(id), &l); err != nil {
		return nil, err
	}
	if len(l.Data.Children) == 0 {
		return nil, fmt.Errorf("post %s not found", id)
	}
	p := l.Data.Children[0].Data
	return &p, nil
}

// Report files a report against a submission.
func (c *Client) Report(ctx context.Context, postID, reason string) error {
	form := url.Values{
		"api_type": {"json"},
		"thing_id": {"t3_" + postID},
		"reason":   {reason},
	}
	resp, err := c.do(ctx, http.MethodPost, "/api/report", form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("report failed with status %d", resp.StatusCode)
	}
	return nil
}
