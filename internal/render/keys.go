package render

import "strings"

// TemplateKey flattens a task kind and a logical template filename into the
// storage key used by TemplateStore, e.g. ("code", "CLAUDE.md.hbs") ->
// "code_CLAUDE.md.hbs". Every "/" in the resulting logical path
// (taskKind + "/" + filename) becomes "_"; underscores already present in
// filename are left untouched (spec.md §8 boundary behavior).
func TemplateKey(taskKind, filename string) string {
	return strings.ReplaceAll(taskKind+"/"+filename, "/", "_")
}
