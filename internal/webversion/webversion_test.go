package webversion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeFetcher struct {
	body []byte
	err  error
	url  string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.url = url
	return f.body, f.err
}

func TestLatestReleaseURL(t *testing.T) {
	tests := []struct {
		repo string
		want string
	}{
		{"acme/web", "https://api.github.com/repos/acme/web/releases/latest"},
		{"/acme/web/", "https://api.github.com/repos/acme/web/releases/latest"},
	}

	for _, tt := range tests {
		if got := LatestReleaseURL(tt.repo); got != tt.want {
			t.Errorf("LatestReleaseURL(%q) = %s, expected %s", tt.repo, got, tt.want)
		}
	}
}

func TestLatest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		want    string
		wantErr error
	}{
		{name: "tag with v prefix", body: `{"tag_name":"v4.2.1"}`, want: "4.2.1"},
		{name: "tag without prefix", body: `{"tag_name":"3.0.0","name":"Release 3"}`, want: "3.0.0"},
		{name: "only one v stripped", body: `{"tag_name":"vv1.0.0"}`, want: "v1.0.0"},
		{name: "empty body", body: "", wantErr: ErrEmptyBody},
		{name: "whitespace body", body: "  \n", wantErr: ErrEmptyBody},
		{name: "missing tag_name", body: `{"message":"Not Found"}`, wantErr: ErrNoTag},
		{name: "not json", body: `<html>rate limited</html>`},
		{name: "fetch error", err: errors.New("timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{body: []byte(tt.body), err: tt.err}

			got, err := Latest(context.Background(), f, "https://example.com/latest")

			if tt.want != "" {
				if err != nil {
					t.Fatalf("Latest() error = %v", err)
				}
				if got != tt.want {
					t.Errorf("Latest() = %s, expected %s", got, tt.want)
				}
				return
			}

			if err == nil {
				t.Fatalf("Latest() expected error, got %q", got)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Latest() error = %v, expected %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/latest", http.StatusMovedPermanently)
		case "/latest":
			if r.Header.Get("User-Agent") != "buildstamp-test" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte(`{"tag_name":"v1.4.0"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(time.Second, "buildstamp-test")

	got, err := Latest(context.Background(), client, server.URL+"/old")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got != "1.4.0" {
		t.Errorf("Latest() = %s, expected 1.4.0", got)
	}

	if _, err := client.Fetch(context.Background(), server.URL+"/missing"); err == nil {
		t.Error("Fetch() expected error for HTTP 404")
	}
}

func TestClient_FetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(50*time.Millisecond, "")

	if _, err := client.Fetch(context.Background(), server.URL); err == nil {
		t.Error("Fetch() expected timeout error")
	}
}

func TestIsSemver(t *testing.T) {
	if !IsSemver("4.2.1") {
		t.Error("expected 4.2.1 to be semver")
	}
	if IsSemver("nightly") {
		t.Error("expected nightly not to be semver")
	}
}
