// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/story-txprep/internal/i18n"
	"github.com/javajoker/story-txprep/internal/utils"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.ContextKeyLang, parseLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// parseLanguage handles headers like "zh-TW,zh;q=0.9,en;q=0.8" by taking
// the first preference.
func parseLanguage(header string) string {
	if header == "" {
		return i18n.DefaultLang
	}
	first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
	switch strings.ToLower(first) {
	case "zh-tw", "zh-hant", "zh_tw", "zh-hk", "zh":
		return "zh_TW"
	default:
		return i18n.DefaultLang
	}
}
