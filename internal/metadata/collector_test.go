package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandeptwidyaop/buildstamp/internal/models"
	"github.com/pandeptwidyaop/buildstamp/internal/probe"
)

type fakeCompiler struct {
	version string
	err     error
}

func (f fakeCompiler) Version(context.Context) (string, error) { return f.version, f.err }

type fakeVCS struct {
	author, commit, describe          string
	authorErr, commitErr, describeErr error
	calls                             int
}

func (f *fakeVCS) InsideRepo(context.Context) bool { return true }

func (f *fakeVCS) Author(context.Context) (string, error) {
	f.calls++
	return f.author, f.authorErr
}

func (f *fakeVCS) Commit(context.Context) (string, error) {
	f.calls++
	return f.commit, f.commitErr
}

func (f *fakeVCS) Describe(context.Context) (string, error) {
	f.calls++
	return f.describe, f.describeErr
}

type fakeFetcher struct {
	body  string
	err   error
	block bool
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, _ string) ([]byte, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return []byte(f.body), f.err
}

var fixedNow = func() time.Time {
	return time.Date(2024, 5, 1, 9, 8, 7, 0, time.FixedZone("WIB", 7*3600))
}

func newCollector(v *fakeVCS, f *fakeFetcher) *Collector {
	c := &Collector{
		Compiler:   fakeCompiler{version: "go1.22.3 linux/amd64"},
		WebURL:     "https://api.github.com/repos/acme/web/releases/latest",
		WebTimeout: 50 * time.Millisecond,
		Now:        fixedNow,
	}
	if v != nil {
		c.VCS = v
	}
	if f != nil {
		c.Fetcher = f
	}
	return c
}

func TestCollect_AllSources(t *testing.T) {
	v := &fakeVCS{author: "Jane Doe <jane@example.com>", commit: "abc1234", describe: "v1.2.0-3-gabc1234-dirty"}
	f := &fakeFetcher{body: `{"tag_name":"v4.2.1"}`}

	m, err := newCollector(v, f).Collect(context.Background(), probe.Tools{VCS: true, HTTP: true}, "/tmp/x")
	require.NoError(t, err)

	assert.Equal(t, models.Metadata{
		OutputPath:      "/tmp/x",
		BuiltAt:         "2024-05-01 09:08:07 +0700",
		CompilerVersion: "go1.22.3 linux/amd64",
		GitAuthor:       "Jane Doe <jane@example.com>",
		GitCommit:       "abc1234",
		Version:         "v1.2.0-3-gabc1234-dirty",
		WebVersion:      "4.2.1",
	}, m)
}

func TestCollect_NoOptionalTools(t *testing.T) {
	v := &fakeVCS{}
	f := &fakeFetcher{}

	m, err := newCollector(v, f).Collect(context.Background(), probe.Tools{}, "./app")
	require.NoError(t, err)

	assert.Equal(t, "2024-05-01 09:08:07 +0700", m.BuiltAt)
	assert.Equal(t, "go1.22.3 linux/amd64", m.CompilerVersion)
	assert.Equal(t, "unknown <unknown>", m.GitAuthor)
	assert.Equal(t, "unknown", m.GitCommit)
	assert.Equal(t, "v0.0.0", m.Version)
	assert.Equal(t, "0.0.0", m.WebVersion)
	assert.Zero(t, v.calls, "git should not be consulted")
	assert.Zero(t, f.calls, "web should not be consulted")
}

func TestCollect_NilProviders(t *testing.T) {
	m, err := newCollector(nil, nil).Collect(context.Background(), probe.Tools{VCS: true, HTTP: true}, "./app")
	require.NoError(t, err)

	assert.Equal(t, models.UnknownAuthor, m.GitAuthor)
	assert.Equal(t, models.DefaultWebVersion, m.WebVersion)
}

func TestCollect_IndividualGitFailures(t *testing.T) {
	v := &fakeVCS{
		authorErr:   errors.New("no commits"),
		commit:      "abc1234",
		describeErr: errors.New("no names found"),
	}

	m, err := newCollector(v, nil).Collect(context.Background(), probe.Tools{VCS: true}, "./app")
	require.NoError(t, err)

	assert.Equal(t, "unknown <unknown>", m.GitAuthor)
	assert.Equal(t, "abc1234", m.GitCommit)
	assert.Equal(t, "v0.0.0", m.Version)
}

func TestCollect_WebVersionFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *fakeFetcher
	}{
		{"timeout", &fakeFetcher{block: true}},
		{"empty body", &fakeFetcher{body: ""}},
		{"network error", &fakeFetcher{err: errors.New("connection refused")}},
		{"no tag_name", &fakeFetcher{body: `{"message":"Not Found"}`}},
		{"garbage", &fakeFetcher{body: "<html>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := newCollector(nil, tt.fetcher).Collect(context.Background(), probe.Tools{HTTP: true}, "./app")
			require.NoError(t, err)
			assert.Equal(t, "0.0.0", m.WebVersion)
			assert.Equal(t, 1, tt.fetcher.calls)
		})
	}
}

func TestCollect_NonSemverTagIsKept(t *testing.T) {
	f := &fakeFetcher{body: `{"tag_name":"nightly"}`}

	m, err := newCollector(nil, f).Collect(context.Background(), probe.Tools{HTTP: true}, "./app")
	require.NoError(t, err)
	assert.Equal(t, "nightly", m.WebVersion)
}

func TestCollect_CompilerVersionFailureIsFatal(t *testing.T) {
	c := newCollector(nil, nil)
	c.Compiler = fakeCompiler{err: errors.New("exec: go: not found")}

	_, err := c.Collect(context.Background(), probe.Tools{}, "./app")
	assert.Error(t, err)
}

func TestCollect_UnquotableValuesFallBack(t *testing.T) {
	v := &fakeVCS{author: `O'Brien "Bob" <bob@example.com>`, commit: "abc1234", describe: `v1'2"3`}
	f := &fakeFetcher{body: `{"tag_name":"v1'\"x"}`}
	c := newCollector(v, f)
	c.Compiler = fakeCompiler{version: `go1.22 'odd' "build"`}

	m, err := c.Collect(context.Background(), probe.Tools{VCS: true, HTTP: true}, "./app")
	require.NoError(t, err)

	assert.Equal(t, models.UnknownCompiler, m.CompilerVersion)
	assert.Equal(t, models.UnknownAuthor, m.GitAuthor)
	assert.Equal(t, "abc1234", m.GitCommit)
	assert.Equal(t, models.DefaultVersion, m.Version)
	assert.Equal(t, models.DefaultWebVersion, m.WebVersion)
}

func TestCollect_SingleQuoteKindIsKept(t *testing.T) {
	v := &fakeVCS{author: "Jane O'Neil <jane@example.com>", commit: "abc1234", describe: "v1.0.0"}

	m, err := newCollector(v, nil).Collect(context.Background(), probe.Tools{VCS: true}, "./app")
	require.NoError(t, err)
	assert.Equal(t, "Jane O'Neil <jane@example.com>", m.GitAuthor)
}
