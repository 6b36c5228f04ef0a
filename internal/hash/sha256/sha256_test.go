package sha256

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigestKnownVectors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":            "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		"abc":         "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		"hello world": "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
	}
	for in, want := range tests {
		require.Equal(t, want, DigestString(in), "input %q", in)
		require.Equal(t, want, Digest([]byte(in)), "input %q", in)
	}
}

func TestHasherMatchesDigest(t *testing.T) {
	t.Parallel()

	body := []byte("<html><h1>Engineer</h1></html>")
	got, err := New().Hash(body)
	require.NoError(t, err)
	require.Equal(t, Digest(body), got)
	require.Len(t, got, 64)
}
