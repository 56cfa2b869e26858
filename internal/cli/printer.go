package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"k8s.io/apimachinery/pkg/util/duration"
	"sigs.k8s.io/yaml"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
)

// taskAge matches the teacher printer.go's duration.HumanDuration use for
// CreationTimestamp and status timestamps.
func taskAge(createdAt time.Time) string {
	return duration.HumanDuration(time.Since(createdAt))
}

func printDocsRunTable(w io.Writer, items []agentrunv1alpha1.DocsRun) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPHASE\tREPOSITORY\tBRANCH\tMESSAGE\tAGE")
	for _, d := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Name, orDash(string(d.Status.Phase)), d.Spec.RepositoryURL, d.Spec.Branch,
			orDash(d.Status.Message), taskAge(d.CreationTimestamp.Time))
	}
	tw.Flush()
}

func printDocsRunDetail(w io.Writer, d *agentrunv1alpha1.DocsRun) {
	printField(w, "Name", d.Name)
	printField(w, "Namespace", d.Namespace)
	printField(w, "Repository", d.Spec.RepositoryURL)
	printField(w, "Branch", d.Spec.Branch)
	if d.Spec.WorkingDirectory != "" {
		printField(w, "Working Directory", d.Spec.WorkingDirectory)
	}
	printField(w, "Model", d.Spec.Model)
	printField(w, "GitHub User", d.Spec.GitHubUser)
	printField(w, "Phase", string(d.Status.Phase))
	if d.Status.Message != "" {
		printField(w, "Message", d.Status.Message)
	}
	if d.Status.PullRequestURL != nil {
		printField(w, "Pull Request", *d.Status.PullRequestURL)
	}
	for _, c := range d.Status.Conditions {
		printField(w, "Condition["+c.Type+"]", fmt.Sprintf("%s: %s", c.Status, c.Message))
	}
}

func printCodeRunTable(w io.Writer, items []agentrunv1alpha1.CodeRun) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSERVICE\tTASK\tATTEMPT\tPHASE\tMESSAGE\tAGE")
	for _, c := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			c.Name, c.Spec.Service, c.Spec.TaskID, c.Spec.ContextVersion,
			orDash(string(c.Status.Phase)), orDash(c.Status.Message), taskAge(c.CreationTimestamp.Time))
	}
	tw.Flush()
}

func printCodeRunDetail(w io.Writer, c *agentrunv1alpha1.CodeRun) {
	printField(w, "Name", c.Name)
	printField(w, "Namespace", c.Namespace)
	printField(w, "Service", c.Spec.Service)
	printField(w, "Task ID", fmt.Sprintf("%d", c.Spec.TaskID))
	printField(w, "Context Version", fmt.Sprintf("%d", c.Spec.ContextVersion))
	printField(w, "Repository", c.Spec.RepositoryURL)
	printField(w, "Source Branch", c.Spec.SourceBranch)
	printField(w, "Platform Repository", c.Spec.PlatformRepositoryURL)
	printField(w, "Platform Branch", c.Spec.PlatformBranch)
	if c.Spec.WorkingDirectory != "" {
		printField(w, "Working Directory", c.Spec.WorkingDirectory)
	}
	printField(w, "Model", c.Spec.Model)
	printField(w, "GitHub User", c.Spec.GitHubUser)
	if c.Spec.PromptModification != "" {
		printField(w, "Prompt Modification", fmt.Sprintf("(%s) %s", c.EffectivePromptMode(), c.Spec.PromptModification))
	}
	printField(w, "Phase", string(c.Status.Phase))
	if c.Status.Message != "" {
		printField(w, "Message", c.Status.Message)
	}
	if c.Status.PullRequestURL != nil {
		printField(w, "Pull Request", *c.Status.PullRequestURL)
	}
	for _, cond := range c.Status.Conditions {
		printField(w, "Condition["+cond.Type+"]", fmt.Sprintf("%s: %s", cond.Status, cond.Message))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%-22s%s\n", label+":", value)
}

func printYAML(w io.Writer, obj interface{}) error {
	data, err := yaml.Marshal(obj)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func printJSON(w io.Writer, obj interface{}) error {
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
