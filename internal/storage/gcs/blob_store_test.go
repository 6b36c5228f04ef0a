package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestNewValidatesInputs(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "bucket"})
	require.ErrorContains(t, err, "client")

	_, err = New(&storage.Client{}, Config{Bucket: " "})
	require.ErrorContains(t, err, "bucket")
}

func TestPutObjectRequiresPath(t *testing.T) {
	t.Parallel()

	store, err := New(&storage.Client{}, Config{Bucket: "bucket"})
	require.NoError(t, err)
	for _, p := range []string{"", "  ", "/"} {
		_, err = store.PutObject(context.Background(), p, "text/html", strings.NewReader("x"))
		require.ErrorContains(t, err, "path is required")
	}
}

func TestURI(t *testing.T) {
	t.Parallel()

	store, err := New(&storage.Client{}, Config{Bucket: " snaps "})
	require.NoError(t, err)
	require.Equal(t, "gs://snaps/snapshots/example.com/abc.html", store.URI("/snapshots/example.com/abc.html"))
}

func TestAlreadyStored(t *testing.T) {
	t.Parallel()

	precondition := &googleapi.Error{Code: http.StatusPreconditionFailed}
	require.True(t, alreadyStored(precondition))
	require.True(t, alreadyStored(fmt.Errorf("close: %w", precondition)))
	require.False(t, alreadyStored(&googleapi.Error{Code: http.StatusForbidden}))
	require.False(t, alreadyStored(errors.New("network down")))
}
