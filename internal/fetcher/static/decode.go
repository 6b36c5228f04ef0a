package static

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/JakeFAU/jobparser/internal/metrics"
)

type namedDecoder struct {
	name   string
	decode func([]byte) (string, error)
}

// fallbackCharsets is tried in order when the declared charset is absent or yields garbled text.
var fallbackCharsets = []namedDecoder{
	{name: "UTF-8", decode: decodeWith(unicode.UTF8)},
	{name: "ISO-8859-1", decode: decodeWith(charmap.ISO8859_1)},
	{name: "windows-1252", decode: decodeWith(charmap.Windows1252)},
	{name: "US-ASCII", decode: decodeASCII},
}

func decodeWith(enc encoding.Encoding) func([]byte) (string, error) {
	return func(b []byte) (string, error) {
		out, err := enc.NewDecoder().Bytes(b)
		if err != nil {
			return "", fmt.Errorf("decode: %w", err)
		}
		return string(out), nil
	}
}

func decodeASCII(b []byte) (string, error) {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if c > 0x7f {
			sb.WriteRune(replacementMarker)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String(), nil
}

// decompress undoes the Content-Encoding chain. When a declared encoding cannot be
// decoded the raw bytes are returned unchanged alongside the error.
func decompress(contentEncoding string, raw []byte) ([]byte, error) {
	encodings := strings.Split(contentEncoding, ",")
	body := raw
	for i := len(encodings) - 1; i >= 0; i-- {
		enc := strings.ToLower(strings.TrimSpace(encodings[i]))
		var (
			out []byte
			err error
		)
		switch enc {
		case "", "identity":
			continue
		case "gzip", "x-gzip":
			out, err = gunzip(body)
		case "deflate":
			out, err = inflate(body)
		case "br":
			out, err = io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		default:
			return raw, fmt.Errorf("unsupported content encoding %q", enc)
		}
		if err != nil {
			return raw, fmt.Errorf("decompress %s: %w", enc, err)
		}
		body = out
	}
	return body, nil
}

func gunzip(b []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer zr.Close() //nolint:errcheck // read-only
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}
	return out, nil
}

// inflate accepts both zlib-wrapped and raw DEFLATE streams; servers send either.
func inflate(b []byte) ([]byte, error) {
	if zr, err := zlib.NewReader(bytes.NewReader(b)); err == nil {
		out, readErr := io.ReadAll(zr)
		_ = zr.Close()
		if readErr == nil {
			return out, nil
		}
	}
	fr := flate.NewReader(bytes.NewReader(b))
	defer fr.Close() //nolint:errcheck // read-only
	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return out, nil
}

// declaredCharset returns the charset parameter of a Content-Type header.
func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["charset"])
}

// decodeBody converts body bytes to text. The declared charset wins when it produces
// clean text; otherwise the fallback list is walked, and as a last resort UTF-8 is used.
func decodeBody(body []byte, contentType string, logger *zap.Logger) (string, string) {
	if label := declaredCharset(contentType); label != "" {
		if enc, name := charset.Lookup(label); enc != nil {
			if text, err := decodeWith(enc)(body); err == nil && !IsGarbled(text) {
				return text, name
			}
		} else {
			logger.Debug("unknown declared charset", zap.String("charset", label))
		}
	}

	for _, cand := range fallbackCharsets {
		text, err := cand.decode(body)
		if err == nil && !IsGarbled(text) {
			return text, cand.name
		}
	}

	guess := "unknown"
	if res, err := chardet.NewHtmlDetector().DetectBest(body); err == nil && res != nil {
		guess = res.Charset
	}
	logger.Warn("content garbled under every candidate charset; forcing UTF-8",
		zap.String("content_type", contentType),
		zap.String("detected_charset", guess),
		zap.Int("bytes", len(body)),
	)
	metrics.ObserveCharsetFallback()
	text, _ := fallbackCharsets[0].decode(body)
	return text, "UTF-8"
}
