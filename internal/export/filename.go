package export

import (
	"strings"
	"unicode"

	"github.com/Veraticus/dead-stock/internal/model"
)

// ExtCSV is the default export file extension.
const ExtCSV = ".csv"

// Filename builds {supplier_slug}_{tool_slug}_{delete|survivors}{ext}.
func Filename(supplier, tool string, mode model.ExportMode, ext string) string {
	if ext == "" {
		ext = ExtCSV
	}
	if mode != model.ExportSurvivors {
		mode = model.ExportDeleteOnly
	}
	return Slug(supplier) + "_" + Slug(tool) + "_" + string(mode) + ext
}

// Slug lowercases s and collapses every run of non-alphanumeric characters
// into a single underscore.
func Slug(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

type extensioner interface {
	Extension() string
}

func extensionOf(g any) string {
	if e, ok := g.(extensioner); ok {
		return e.Extension()
	}
	return ExtCSV
}
