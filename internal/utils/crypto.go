// internal/utils/crypto.go
package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// CanonicalJSON renders v with object keys sorted at every depth, null
// object members removed and HTML escaping disabled. Numbers keep their
// original literal form.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal for canonical form")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, errors.Wrap(err, "decode for canonical form")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// encoding/json writes map keys in sorted order.
	if err := enc.Encode(dropNulls(tree)); err != nil {
		return nil, errors.Wrap(err, "encode canonical form")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func dropNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if val == nil {
				continue
			}
			out[k] = dropNulls(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = dropNulls(val)
		}
		return out
	default:
		return v
	}
}

// HashMetadata returns the SHA-256 of the canonical JSON form of v as 64
// lowercase hex characters.
func HashMetadata(v any) (string, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// HashContent fingerprints raw bytes.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NormalizeHash32 accepts a 32-byte digest as bare hex, 0x-prefixed hex or
// sha256:-prefixed hex and returns the 0x-prefixed lowercase form.
func NormalizeHash32(s string) (string, error) {
	h := strings.TrimSpace(s)
	h = strings.TrimPrefix(h, "sha256:")
	if strings.HasPrefix(h, "0x") || strings.HasPrefix(h, "0X") {
		h = h[2:]
	}
	if len(h) != 64 {
		return "", fmt.Errorf("hash %q is not 32 bytes", s)
	}
	if _, err := hex.DecodeString(h); err != nil {
		return "", fmt.Errorf("hash %q is not hex", s)
	}
	return "0x" + strings.ToLower(h), nil
}

// Hash32Bytes is NormalizeHash32 returning the raw digest.
func Hash32Bytes(s string) ([32]byte, error) {
	var out [32]byte
	norm, err := NormalizeHash32(s)
	if err != nil {
		return out, err
	}
	b, _ := hex.DecodeString(norm[2:])
	copy(out[:], b)
	return out, nil
}
