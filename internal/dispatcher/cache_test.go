package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/jobparser/internal/cache"
	"github.com/JakeFAU/jobparser/internal/cache/memory"
	"github.com/JakeFAU/jobparser/internal/extract"
	"github.com/JakeFAU/jobparser/internal/job"
)

func TestParseJobURLServesSuccessFromCache(t *testing.T) {
	t.Parallel()

	e := &stubExtractor{name: "Board", prefix: "https://boards.example/"}
	c := memory.New(cache.Options{})
	d := New([]extract.Extractor{e}, nil).WithCache(c, time.Minute)

	first := d.ParseJobURL(context.Background(), "https://boards.example/acme/1")
	second := d.ParseJobURL(context.Background(), " https://boards.example/acme/1 ")

	require.True(t, first.Successful)
	require.Equal(t, first, second)
	require.EqualValues(t, 1, e.calls.Load())
	require.Equal(t, 1, c.Len())
}

func TestParseJobURLDoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	e := &stubExtractor{
		name:   "Board",
		prefix: "https://boards.example/",
		result: func(url string) job.ParseResult { return job.Failure("Board", url, "Failed to fetch job page") },
	}
	c := memory.New(cache.Options{})
	d := New([]extract.Extractor{e}, nil).WithCache(c, time.Minute)

	for range 2 {
		res := d.ParseJobURL(context.Background(), "https://boards.example/acme/1")
		require.False(t, res.Successful)
	}
	require.EqualValues(t, 2, e.calls.Load())
	require.Zero(t, c.Len())
}

func TestParseJobURLIgnoresCorruptCacheEntries(t *testing.T) {
	t.Parallel()

	e := &stubExtractor{name: "Board", prefix: "https://boards.example/"}
	c := memory.New(cache.Options{})
	url := "https://boards.example/acme/1"
	require.NoError(t, c.Set(context.Background(), cacheKey(url), []byte("not json"), 0))

	d := New([]extract.Extractor{e}, nil).WithCache(c, time.Minute)
	res := d.ParseJobURL(context.Background(), url)

	require.True(t, res.Successful)
	require.EqualValues(t, 1, e.calls.Load())
}

func TestParseJobURLSurvivesClosedCache(t *testing.T) {
	t.Parallel()

	e := &stubExtractor{name: "Board", prefix: "https://boards.example/"}
	c := memory.New(cache.Options{})
	require.NoError(t, c.Close())

	d := New([]extract.Extractor{e}, nil).WithCache(c, time.Minute)
	res := d.ParseJobURL(context.Background(), "https://boards.example/acme/1")
	require.True(t, res.Successful)
}

func TestCacheKeyIsStable(t *testing.T) {
	t.Parallel()

	require.Equal(t, cacheKey("https://a.example/1"), cacheKey("https://a.example/1"))
	require.NotEqual(t, cacheKey("https://a.example/1"), cacheKey("https://a.example/2"))
	require.Contains(t, cacheKey("x"), cacheKeyPrefix)
}
