package render

// OverconfidenceNotice is the fixed overconfidence-mitigation paragraph
// appended to every CodeRun's system-prompt addendum (spec.md §4.1). It is
// never used for DocsRun, which has no addendum template.
const OverconfidenceNotice = `Before reporting a task as complete, verify each claim against the ` +
	`actual state of the repository: run the tests you changed, read the diff you produced, and ` +
	`confirm the behavior you describe actually happened. Do not report success on the basis of what ` +
	`the change was intended to do rather than what it was observed to do.`
