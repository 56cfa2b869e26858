package render

import "testing"

func TestTemplateKey(t *testing.T) {
	cases := []struct {
		taskKind string
		filename string
		want     string
	}{
		{"docs", "init.sh.hbs", "docs_init.sh.hbs"},
		{"code", "PROMPT.md.hbs", "code_PROMPT.md.hbs"},
		{"code", "already_has_underscores.hbs", "code_already_has_underscores.hbs"},
	}

	for _, tc := range cases {
		got := TemplateKey(tc.taskKind, tc.filename)
		if got != tc.want {
			t.Errorf("TemplateKey(%q, %q) = %q, want %q", tc.taskKind, tc.filename, got, tc.want)
		}
	}
}
