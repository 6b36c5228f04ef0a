package static

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

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/jobparser/internal/job"
)

var pageHTML = `<html><head><title>Backend Engineer</title></head><body><h1>Backend Engineer</h1>` +
	`<p>` + strings.Repeat("We build reliable systems for hiring teams. ", 8) + `</p></body></html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/plain", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(pageHTML))
	})
	mux.HandleFunc("/brotli", func(w http.ResponseWriter, _ *http.Request) {
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		_, _ = bw.Write([]byte(pageHTML))
		_ = bw.Close()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write(buf.Bytes())
	})
	mux.HandleFunc("/broken-gzip", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write([]byte(pageHTML))
	})
	mux.HandleFunc("/latin1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		body := strings.Replace(pageHTML, "<h1>Backend Engineer</h1>", "<h1>Caf\xe9 Engineer</h1>", 1)
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/ua", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(strings.Replace(pageHTML, "Backend Engineer</h1>",
			r.Header.Get("Sec-Fetch-Mode")+"</h1>", 1)))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPlainHTML(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{Timeout: 5 * time.Second}, nil)

	doc, err := f.Fetch(context.Background(), srv.URL+"/plain")
	require.NoError(t, err)
	require.Equal(t, "Backend Engineer", doc.Title())
	require.Equal(t, srv.URL+"/plain", doc.Location())
}

func TestFetchDecodesBrotliOnManualPath(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{Timeout: 5 * time.Second}, nil)

	doc, err := f.Fetch(context.Background(), srv.URL+"/brotli")
	require.NoError(t, err)
	require.Equal(t, "Backend Engineer", doc.Find("h1").Text())
}

func TestFetchFallsBackToRawBytesOnBadEncoding(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{Timeout: 5 * time.Second}, nil)

	doc, err := f.Fetch(context.Background(), srv.URL+"/broken-gzip")
	require.NoError(t, err)
	require.Equal(t, "Backend Engineer", doc.Title())
}

func TestFetchHonorsDeclaredCharset(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{Timeout: 5 * time.Second}, nil)

	doc, err := f.Fetch(context.Background(), srv.URL+"/latin1")
	require.NoError(t, err)
	require.Equal(t, "Café Engineer", doc.Find("h1").Text())
}

func TestFetchEnhancedSendsNavigationHeaders(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{Timeout: 5 * time.Second}, nil)

	doc, err := f.FetchEnhanced(context.Background(), srv.URL+"/ua")
	require.NoError(t, err)
	require.Equal(t, "navigate", doc.Find("h1").Text())
}

func TestFetchErrorsAreTyped(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{Timeout: 5 * time.Second}, nil)

	_, err := f.Fetch(context.Background(), srv.URL+"/missing")
	require.ErrorIs(t, err, job.ErrIO)

	_, err = f.Fetch(context.Background(), "ftp://example.com/file")
	require.ErrorIs(t, err, job.ErrIO)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fetch(ctx, srv.URL+"/plain")
	require.Error(t, err)
	require.True(t, job.IsFetchFailure(err))
}

type countingLimiter struct {
	calls atomic.Int64
	err   error
}

func (l *countingLimiter) Wait(context.Context, string) error {
	l.calls.Add(1)
	return l.err
}

func TestFetchConsultsLimiter(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	limiter := &countingLimiter{}
	f := New(Config{Timeout: 5 * time.Second, Limiter: limiter}, nil)

	_, err := f.Fetch(context.Background(), srv.URL+"/plain")
	require.NoError(t, err)
	require.Equal(t, int64(1), limiter.calls.Load())

	// The manual path paces its own request.
	_, err = f.Fetch(context.Background(), srv.URL+"/brotli")
	require.NoError(t, err)
	require.GreaterOrEqual(t, limiter.calls.Load(), int64(2))
}

func TestFetchLimiterRefusalIsIOFailure(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{Timeout: 5 * time.Second, Limiter: &countingLimiter{err: context.DeadlineExceeded}}, nil)

	_, err := f.Fetch(context.Background(), srv.URL+"/plain")
	require.ErrorIs(t, err, job.ErrIO)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil)
	var body []byte
	var fetchErr error

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, http.Header{"X-Trace": {"yes"}, "User-Agent": {"agent"}}, &body, &fetchErr)
	require.NotNil(t, hooks.onRequest)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	collyReq := &colly.Request{Headers: &http.Header{"User-Agent": {"colly"}}}
	hooks.onRequest(collyReq)
	require.Equal(t, "yes", collyReq.Headers.Get("X-Trace"))
	require.Equal(t, "agent", collyReq.Headers.Get("User-Agent"))

	hooks.onResponse(&colly.Response{StatusCode: http.StatusOK, Body: []byte("body")})
	require.Equal(t, "body", string(body))

	hooks.onError(&colly.Response{StatusCode: http.StatusForbidden}, errors.New("Forbidden"))
	require.ErrorContains(t, fetchErr, "http status 403")
}

func TestDecompress(t *testing.T) {
	t.Parallel()

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write([]byte("hello"))
	require.NoError(t, zw.Close())

	out, err := decompress("gzip", gz.Bytes())
	require.NoError(t, err)
	require.Equal(t, "hello", string(out))

	out, err = decompress("", []byte("plain"))
	require.NoError(t, err)
	require.Equal(t, "plain", string(out))

	out, err = decompress("gzip", []byte("not gzip"))
	require.Error(t, err)
	require.Equal(t, "not gzip", string(out))

	_, err = decompress("zstd", []byte("x"))
	require.Error(t, err)
}

func TestIsGarbled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", true},
		{"clean", "Senior engineer in Zürich, remote-friendly.", false},
		{"replacement char", "caf�", true},
		{"control chars", "abc\x01\x02def", true},
		{"mojibake", "Ã©tÃ© â€œquotedâ€\u009d", true},
		{"single artifact", "donâ€™t", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, IsGarbled(tt.text))
		})
	}
}

func TestDeclaredCharset(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ISO-8859-1", declaredCharset(`text/html; charset="ISO-8859-1"`))
	require.Empty(t, declaredCharset("text/html"))
	require.Empty(t, declaredCharset(""))
}

type stubHooks struct {
	onRequest  colly.RequestCallback
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnRequest(cb colly.RequestCallback) {
	s.onRequest = cb
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
