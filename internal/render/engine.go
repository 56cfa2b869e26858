package render

import (
	"bytes"
	"strings"
	"text/template"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
)

// Bundle is a filename-to-rendered-content map (spec.md §3.2), materialized
// by the resource builders into a per-task ConfigMap.
type Bundle map[string]string

// Engine renders a task's Workspace Bundle from a TemplateStore. It holds
// no mutable state and performs no API calls, matching the teacher's
// RenderPrompt shape (internal/source/prompt.go) generalized to a whole
// manifest of files instead of one.
type Engine struct {
	Store TemplateStore
}

// NewEngine constructs an Engine backed by store. Callers typically pass a
// FallbackStore layering an operator's override ConfigMap over
// DefaultStore().
func NewEngine(store TemplateStore) *Engine {
	return &Engine{Store: store}
}

// Render produces the Workspace Bundle for task: every manifest entry for
// its kind is looked up in the store under its flattened, kind-prefixed
// key, parsed, and executed against the task's Context. A render failure is
// fatal (RenderError), per spec.md §7's classification of missing template
// data as a terminal precondition failure — there is no raw-text fallback
// here, unlike the teacher's resolvePromptTemplate.
func (e *Engine) Render(task agentrunv1alpha1.TaskType) (Bundle, error) {
	kind := task.TaskKind()
	ctxData := buildContext(task)

	if err := ctxData.validate(kind); err != nil {
		return nil, err
	}

	bundle := make(Bundle, len(manifestFor(kind)))
	for _, filename := range manifestFor(kind) {
		key := TemplateKey(kind, filename)

		raw, ok := e.Store.Get(key)
		if !ok {
			return nil, &TemplateNotFoundError{Key: key}
		}

		tmpl, err := template.New(key).Option("missingkey=error").Parse(raw)
		if err != nil {
			return nil, &RenderError{Key: key, Err: err}
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, ctxData); err != nil {
			return nil, &RenderError{Key: key, Err: err}
		}

		outputName := strings.TrimSuffix(filename, ".hbs")
		bundle[outputName] = buf.String()
	}

	return bundle, nil
}
