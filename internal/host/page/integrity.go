package page

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"
	"strings"
)

// ErrIntegrity is returned when a body matches none of the expected digests.
var ErrIntegrity = errors.New("integrity check failed")

var integrityAlgorithms = map[string]struct {
	rank int
	hash func() hash.Hash
}{
	"sha256": {1, sha256.New},
	"sha384": {2, sha512.New384},
	"sha512": {3, sha512.New},
}

type digest struct {
	alg   string
	value []byte
}

// parseIntegrity returns the digests of the strongest algorithm present in
// metadata. Unknown algorithms and malformed tokens are ignored; ok is false
// when nothing usable remains.
func parseIntegrity(metadata string) (digests []digest, ok bool) {
	best := 0
	for _, token := range strings.Fields(metadata) {
		// Options after '?' are reserved and ignored.
		if i := strings.IndexByte(token, '?'); i >= 0 {
			token = token[:i]
		}
		alg, b64, found := strings.Cut(token, "-")
		if !found {
			continue
		}
		spec, known := integrityAlgorithms[strings.ToLower(alg)]
		if !known {
			continue
		}
		value, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			continue
		}

		switch {
		case spec.rank > best:
			best = spec.rank
			digests = []digest{{alg: strings.ToLower(alg), value: value}}
		case spec.rank == best:
			digests = append(digests, digest{alg: strings.ToLower(alg), value: value})
		}
	}
	return digests, len(digests) > 0
}

// verifyIntegrity checks body against subresource-integrity metadata.
// Empty metadata, or metadata with no supported algorithm, passes.
func verifyIntegrity(body []byte, metadata string) error {
	digests, ok := parseIntegrity(metadata)
	if !ok {
		return nil
	}

	alg := digests[0].alg
	h := integrityAlgorithms[alg].hash()
	h.Write(body)
	sum := h.Sum(nil)

	for _, d := range digests {
		if subtle.ConstantTimeCompare(sum, d.value) == 1 {
			return nil
		}
	}
	return fmt.Errorf("%w: no %s digest matched", ErrIntegrity, alg)
}

// Integrity returns the sha384 integrity metadata for body.
func Integrity(body []byte) string {
	sum := sha512.Sum384(body)
	return "sha384-" + base64.StdEncoding.EncodeToString(sum[:])
}
