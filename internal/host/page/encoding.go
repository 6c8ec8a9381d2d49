package page

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// AcceptEncoding is sent with every fetch.
const AcceptEncoding = "br, zstd, gzip"

// ErrTooLarge is returned when a decoded body exceeds the configured limit.
var ErrTooLarge = errors.New("script body exceeds size limit")

// decodeBody reads body according to its Content-Encoding and returns at
// most limit decoded bytes. A larger body fails with ErrTooLarge.
func decodeBody(body io.Reader, contentEncoding string, limit int64) ([]byte, error) {
	var r io.Reader

	switch enc := strings.ToLower(strings.TrimSpace(contentEncoding)); enc {
	case "", "identity":
		r = body

	case "br":
		r = brotli.NewReader(body)

	case "zstd":
		dec, err := zstd.NewReader(body, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("open zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec

	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer func() { _ = gz.Close() }()
		r = gz

	default:
		return nil, fmt.Errorf("unsupported Content-Encoding: %q", enc)
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	return data, nil
}
