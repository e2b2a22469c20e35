package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBundle(t *testing.T) *I18n {
	t.Helper()
	fsys := fstest.MapFS{
		"locales/en.json":    {Data: []byte(`{"greeting":"Hello","retry":"retry after %d seconds"}`)},
		"locales/zh_TW.json": {Data: []byte(`{"greeting":"你好"}`)},
	}
	b := New("en")
	require.NoError(t, b.LoadTranslations(fsys, "locales"))
	return b
}

func TestTranslateFallsBack(t *testing.T) {
	b := testBundle(t)

	assert.Equal(t, "你好", b.T("zh_TW", "greeting"))
	assert.Equal(t, "Hello", b.T("fr", "greeting"))
	assert.Equal(t, "retry after 3 seconds", b.T("zh_TW", "retry", 3))
	assert.Equal(t, "missing.key", b.T("en", "missing.key"))

	assert.True(t, b.Has("zh_TW", "retry"))
	assert.False(t, b.Has("en", "missing.key"))
}

func TestLoadTranslationsErrors(t *testing.T) {
	assert.Error(t, New("en").LoadTranslations(fstest.MapFS{}, "locales"))

	bad := fstest.MapFS{"locales/en.json": {Data: []byte(`{"a": 1}`)}}
	assert.Error(t, New("en").LoadTranslations(bad, "locales"))
}

func TestEmbeddedLocalesAgree(t *testing.T) {
	require.NoError(t, Initialize())
	assert.Equal(t, []string{"en", "zh_TW"}, GetSupportedLanguages())

	keys := []string{
		KeyErrValidation, KeyErrParameter, KeyErrConfiguration, KeyErrInsufficientFunds,
		KeyErrExternalService, KeyErrRateLimited, KeyErrPayloadRejected, KeyErrInternal,
		KeyAuthInvalidToken, KeyPayloadTooLarge, KeyPayloadContentType, KeyRouteNotFound, KeyMethodNotAllowed,
	}
	for _, key := range keys {
		_, ok := instance.lookup("en", key)
		assert.True(t, ok, "en %s", key)
		_, ok = instance.lookup("zh_TW", key)
		assert.True(t, ok, "zh_TW %s", key)
	}

	assert.Equal(t, "Rate limit exceeded, retry after 7 seconds", T("en", KeyErrRateLimited, 7))
	assert.Equal(t, "Request body exceeds 1.0 MiB", T("en", KeyPayloadTooLarge, "1.0 MiB"))
}
