package render

import (
	"embed"
	"io/fs"
	"strings"
)

//go:embed testdata/docs testdata/code
var defaultTemplates embed.FS

// DefaultStore returns the built-in template set shipped with the
// controller, keyed exactly as TemplateKey produces them. An operator's
// override ConfigMap is layered in front of this via FallbackStore
// (spec.md §4.1: "a missing override key falls back to the shipped
// default template").
func DefaultStore() MapTemplateStore {
	store := make(MapTemplateStore)
	for _, kind := range []string{"docs", "code"} {
		dir := "testdata/" + kind
		entries, err := fs.ReadDir(defaultTemplates, dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			content, err := fs.ReadFile(defaultTemplates, dir+"/"+entry.Name())
			if err != nil {
				continue
			}
			key := TemplateKey(kind, entry.Name())
			store[key] = strings.ReplaceAll(string(content), "\r\n", "\n")
		}
	}
	return store
}
