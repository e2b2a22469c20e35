package utils

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalJSONSortsKeysAndDropsNulls(t *testing.T) {
	doc := map[string]any{
		"z": 1,
		"a": map[string]any{"y": "<b>", "b": nil, "c": []any{nil, 2}},
		"m": nil,
	}

	out, err := CanonicalJSON(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"c":[null,2],"y":"<b>"},"z":1}`, string(out))
}

func TestHashMetadataIgnoresKeyOrder(t *testing.T) {
	first := map[string]any{"title": "Sunset", "creators": []any{map[string]any{"name": "Alice", "share": 100}}}
	second := map[string]any{"creators": []any{map[string]any{"share": 100, "name": "Alice"}}, "title": "Sunset"}

	h1, err := HashMetadata(first)
	require.NoError(t, err)
	h2, err := HashMetadata(second)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.Regexp(t, `^[0-9a-f]{64}$`, h1)

	again, err := HashMetadata(first)
	require.NoError(t, err)
	assert.Equal(t, h1, again)
}

func TestCanonicalJSONKeepsLargeNumbersExact(t *testing.T) {
	doc := map[string]any{"fee": json.RawMessage("123456789012345678901234567890")}
	out, err := CanonicalJSON(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"fee":123456789012345678901234567890}`, string(out))
}

func TestHashContent(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", HashContent([]byte("abc")))
}

func TestNormalizeHash32(t *testing.T) {
	hex := strings.Repeat("ab", 32)

	for _, in := range []string{hex, "0x" + hex, "0X" + strings.ToUpper(hex), "sha256:" + hex} {
		got, err := NormalizeHash32(in)
		require.NoError(t, err, in)
		assert.Equal(t, "0x"+hex, got)
	}

	for _, in := range []string{"", "0x1234", strings.Repeat("zz", 32), "0x" + hex + "00"} {
		_, err := NormalizeHash32(in)
		assert.Error(t, err, in)
	}

	raw, err := Hash32Bytes("0x" + hex)
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), raw[0])
	assert.Equal(t, byte(0xab), raw[31])
}

func TestBase64RoundTripPreservesBytes(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 0x10}
	decoded, err := base64.StdEncoding.DecodeString(base64.StdEncoding.EncodeToString(payload))
	require.NoError(t, err)
	assert.Equal(t, HashContent(payload), HashContent(decoded))
}
