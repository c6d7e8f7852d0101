package calais

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/calaisgraph/internal/normalization"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

func newTestClient(t *testing.T, serverURL string, mutate func(*Config)) Client {
	t.Helper()
	cfg := Config{
		APIKey:         "license-123",
		URL:            serverURL,
		OutputFormat:   OutputJSON,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(logger.Nop(), cfg)
	require.NoError(t, err)
	return c
}

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestAnalyzeTextPostsFormAndGunzips(t *testing.T) {
	var got struct {
		license, content, params, ua, accept string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got.license = r.PostForm.Get("licenseID")
		got.content = r.PostForm.Get("content")
		got.params = r.PostForm.Get("paramsXML")
		got.ua = r.Header.Get("User-Agent")
		got.accept = r.Header.Get("Accept-Encoding")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(gzipped(t, `{"doc":{}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(cfg *Config) { cfg.Submitter = "tests" })
	resp, err := c.AnalyzeText(context.Background(), "Jane Doe visited Boston.", "text/raw")
	require.NoError(t, err)

	assert.Equal(t, normalization.FormatJSON, resp.Format)
	assert.Equal(t, `{"doc":{}}`, string(resp.Body))
	assert.Equal(t, "license-123", got.license)
	assert.Equal(t, "Jane Doe visited Boston.", got.content)
	assert.Equal(t, "gzip", got.accept)
	assert.NotEmpty(t, got.ua)

	assert.Contains(t, got.params, `<c:params xmlns:c="http://s.opencalais.com/1/pred/"`)
	assert.Contains(t, got.params, `c:contentType="text/raw"`)
	assert.Contains(t, got.params, `c:outputFormat="application/json"`)
	assert.Contains(t, got.params, `c:calculatedRelevanceScore="true"`)
	assert.Contains(t, got.params, `c:enableMetadataType="SocialTags"`)
	assert.Contains(t, got.params, `c:allowDistribution="false"`)
	assert.Contains(t, got.params, `c:submitter="tests"`)
	assert.Contains(t, got.params, `c:externalID="`+ExternalID("Jane Doe visited Boston.")+`"`)
}

func TestAnalyzeTextTruncates(t *testing.T) {
	var content string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		content = r.PostForm.Get("content")
		_, _ = w.Write([]byte(`<rdf:RDF/>`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(cfg *Config) { cfg.OutputFormat = OutputRDF })
	resp, err := c.AnalyzeText(context.Background(), strings.Repeat("é", MaxContentChars+10), "")
	require.NoError(t, err)
	assert.Equal(t, normalization.FormatRDF, resp.Format)
	assert.Equal(t, MaxContentChars, len([]rune(content)))
}

func TestAnalyzeTextRetriesTransientFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	_, err := c.AnalyzeText(context.Background(), "text", "text/txt")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestAnalyzeTextDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "bad license", http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	_, err := c.AnalyzeText(context.Background(), "text", "text/txt")
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusForbidden, he.HTTPStatusCode())
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestAnalyzeURLFetchesAndSubmits(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/article", http.StatusMovedPermanently)
			return
		}
		_, _ = w.Write([]byte("<p>Boston\xff</p>"))
	}))
	defer page.Close()

	var content, params string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		content = r.PostForm.Get("content")
		params = r.PostForm.Get("paramsXML")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer api.Close()

	c := newTestClient(t, api.URL, nil)
	_, err := c.AnalyzeURL(context.Background(), page.URL+"/old", "")
	require.NoError(t, err)
	assert.Equal(t, "<p>Boston</p>", content)
	assert.Contains(t, params, `c:contentType="text/html"`)
}

func TestAnalyzeURLFetchFailure(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer page.Close()

	c := newTestClient(t, "http://127.0.0.1:1/unused", nil)
	_, err := c.AnalyzeURL(context.Background(), page.URL, "text/html")
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusNotFound, he.StatusCode)
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(logger.Nop(), Config{})
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "ab", Truncate("ab", 3))
	assert.Equal(t, "éé", Truncate("ééé", 2))
}

func TestExternalID(t *testing.T) {
	// sha1("abc")
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", ExternalID("abc"))
}
