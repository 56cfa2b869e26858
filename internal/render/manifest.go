package render

// docsManifest lists the files rendered into every DocsRun bundle
// (spec.md §3.2, §4.1): a main prompt, agent settings, and the init
// script.
var docsManifest = []string{
	"init.sh.hbs",
	"MEMORY.md.hbs",
	"PROMPT.md.hbs",
	"managed-settings.json.hbs",
}

// codeManifest extends docsManifest with the code-kind-only files: the
// system-prompt addendum, the tool-aggregator client config, and the two
// guideline documents (spec.md §3.2).
var codeManifest = append(append([]string{}, docsManifest...),
	"SYSTEM_PROMPT_ADDENDUM.md.hbs",
	"toolhub-client.json.hbs",
	"CODING_GUIDELINES.md.hbs",
	"VCS_GUIDELINES.md.hbs",
)

func manifestFor(taskKind string) []string {
	if taskKind == "code" {
		return codeManifest
	}
	return docsManifest
}
