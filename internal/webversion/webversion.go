// Package webversion looks up the latest release of the companion web project.
package webversion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	githubAPI = "https://api.github.com/repos/"

	// maxBodySize caps how much of a release payload is read.
	maxBodySize = 1 << 20
)

var (
	ErrEmptyBody = errors.New("empty response body")
	ErrNoTag     = errors.New("release has no tag_name")
)

// HTTPFetcher performs a GET and returns the body of a 2xx response.
type HTTPFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// GitHubRelease is the subset of the release payload buildstamp reads.
type GitHubRelease struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// Client is the net/http backed HTTPFetcher. Redirects are followed by the
// default policy.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient creates a Client whose requests give up after timeout.
func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch issues a GET to url and returns the body.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// LatestReleaseURL returns the GitHub "latest release" endpoint for repo
// ("owner/name").
func LatestReleaseURL(repo string) string {
	return githubAPI + strings.Trim(repo, "/") + "/releases/latest"
}

// Latest fetches url and returns its tag_name without a leading "v".
func Latest(ctx context.Context, f HTTPFetcher, url string) (string, error) {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", ErrEmptyBody
	}

	var release GitHubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return "", fmt.Errorf("failed to parse release info: %w", err)
	}

	tag := strings.TrimSpace(release.TagName)
	if tag == "" {
		return "", ErrNoTag
	}

	return strings.TrimPrefix(tag, "v"), nil
}

// IsSemver reports whether v (without the "v") is a valid semantic version.
func IsSemver(v string) bool {
	return semver.IsValid("v" + v)
}
