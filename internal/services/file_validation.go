// internal/services/file_validation.go
package services

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/javajoker/story-txprep/internal/utils"
)

type FileCategory string

const (
	CategoryImage    FileCategory = "image"
	CategoryVideo    FileCategory = "video"
	CategoryAudio    FileCategory = "audio"
	CategoryDocument FileCategory = "document"
	CategoryModel    FileCategory = "model"
)

// DefaultFileLimit applies to categories without their own ceiling.
const DefaultFileLimit int64 = 10 << 20

var categoryLimits = map[FileCategory]int64{
	CategoryImage:    10 << 20,
	CategoryVideo:    100 << 20,
	CategoryAudio:    25 << 20,
	CategoryDocument: 5 << 20,
}

var documentTypes = map[string]bool{
	"application/json":   true,
	"application/msword": true,
	"application/pdf":    true,
	"application/rtf":    true,
	"text/csv":           true,
	"text/markdown":      true,
	"text/plain":         true,

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

var modelTypes = map[string]bool{
	"model/gltf+json":    true,
	"model/gltf-binary":  true,
	"model/obj":          true,
	"model/stl":          true,
	"model/vnd.usdz+zip": true,
}

// Non-canonical names callers commonly declare.
var mimeAliases = map[string]string{
	"image/jpg":   "image/jpeg",
	"audio/mp3":   "audio/mpeg",
	"audio/x-wav": "audio/wav",
}

// ValidatedFile is a file that passed type and size checks.
type ValidatedFile struct {
	Filename    string
	ContentType string
	Category    FileCategory
	Size        int64
	ContentHash string
	Purpose     string
	Data        []byte
}

func isDocumentType(contentType string) bool {
	return documentTypes[baseMIME(contentType)]
}

func baseMIME(contentType string) string {
	base := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	if alias, ok := mimeAliases[base]; ok {
		return alias
	}
	return base
}

func categoryOf(contentType string) (FileCategory, bool) {
	ct := baseMIME(contentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return CategoryImage, true
	case strings.HasPrefix(ct, "video/"):
		return CategoryVideo, true
	case strings.HasPrefix(ct, "audio/"):
		return CategoryAudio, true
	case documentTypes[ct]:
		return CategoryDocument, true
	case modelTypes[ct]:
		return CategoryModel, true
	}
	return "", false
}

// SizeLimit returns the ceiling for a category.
func SizeLimit(category FileCategory) int64 {
	if limit, ok := categoryLimits[category]; ok {
		return limit
	}
	return DefaultFileLimit
}

// media types are only accepted with magic-byte confirmation
func isMediaCategory(c FileCategory) bool {
	return c == CategoryImage || c == CategoryVideo || c == CategoryAudio
}

// magic-byte results that say nothing specific about the content
func isGenericDetection(m *mimetype.MIME) bool {
	return m.Is("application/octet-stream") || m.Is("text/plain")
}

// matchesDetected reports whether declared names the detected type or one
// of its ancestors.
func matchesDetected(detected *mimetype.MIME, declared string) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(declared) {
			return true
		}
	}
	return false
}

// ValidateFile resolves the content type (magic bytes, then extension, then
// the declared type) and enforces the per-category size ceiling.
func ValidateFile(data []byte, filename, declared string) (*ValidatedFile, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty", filename)
	}

	declared = baseMIME(declared)
	detected := mimetype.Detect(data)

	var contentType string
	if !isGenericDetection(detected) {
		if declared != "" && !matchesDetected(detected, declared) {
			return nil, fmt.Errorf("%s declared as %s but content is %s", filename, declared, baseMIME(detected.String()))
		}
		contentType = baseMIME(detected.String())
	} else if byExt := baseMIME(mime.TypeByExtension(filepath.Ext(filename))); byExt != "" {
		contentType = byExt
	} else {
		contentType = declared
	}
	if contentType == "" {
		return nil, fmt.Errorf("%s has an undeterminable content type", filename)
	}

	category, ok := categoryOf(contentType)
	if !ok {
		return nil, fmt.Errorf("%s has unsupported content type %s", filename, contentType)
	}
	if declared != "" {
		if declaredCategory, ok := categoryOf(declared); ok && declaredCategory != category {
			return nil, fmt.Errorf("%s declared as %s but content is %s", filename, declared, contentType)
		}
	}
	if isMediaCategory(category) {
		switch {
		case detected.Is("text/plain"):
			return nil, fmt.Errorf("%s claims %s but content is plain text", filename, contentType)
		case detected.Is("application/octet-stream"):
			return nil, fmt.Errorf("%s claims %s but content is not a recognized media format", filename, contentType)
		}
	}

	size := int64(len(data))
	if limit := SizeLimit(category); size > limit {
		return nil, fmt.Errorf("%s is %s, above the %s limit for %s files",
			filename, humanize.IBytes(uint64(size)), humanize.IBytes(uint64(limit)), category)
	}

	return &ValidatedFile{
		Filename:    filepath.Base(filename),
		ContentType: contentType,
		Category:    category,
		Size:        size,
		ContentHash: utils.HashContent(data),
		Data:        data,
	}, nil
}
