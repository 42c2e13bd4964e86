// Package naming derives the name variants exposed to scaffolding stubs.
package naming

import (
	"path"
	"regexp"
	"strings"

	"github.com/iancoleman/strcase"
)

var splitWordsPattern = regexp.MustCompile(`[_\-\s.]+`)

// Base returns the last path segment of name without its extension, so
// "admin/user-list.html" becomes "user-list".
func Base(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// Properties returns the name variants for name's base segment:
//
//	Properties("admin/user-list") // name=user-list namePascal=UserList nameCamel=userList ...
func Properties(name string) map[string]any {
	base := Base(name)
	return map[string]any{
		"name":       base,
		"namePascal": strcase.ToCamel(base),
		"nameCamel":  strcase.ToLowerCamel(base),
		"nameSnake":  strcase.ToSnake(base),
		"nameKebab":  strcase.ToKebab(base),
		"nameLabel":  Label(base),
	}
}

// Label converts a name into a human-friendly label. It splits on
// separators and camelCase boundaries.
func Label(name string) string {
	if name == "" {
		return ""
	}

	words := splitWordsPattern.Split(name, -1)
	var segments []string
	for _, word := range words {
		if word == "" {
			continue
		}
		for _, part := range strings.Fields(strcase.ToDelimited(word, ' ')) {
			segments = append(segments, titleCase(part))
		}
	}
	return strings.Join(segments, " ")
}

func titleCase(word string) string {
	if word == "" {
		return ""
	}
	lower := strings.ToLower(word)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
