package types

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

func formatErrorSection(err *FieldError) string {
	var buf strings.Builder
	buf.WriteString("# Error: ")
	buf.WriteString(err.Title)
	buf.WriteString("\n")
	if err.Description != "" {
		buf.WriteString(err.Description)
		buf.WriteString("\n")
	}
	if len(err.AffectedFields) > 0 {
		table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
		table.Header("Affected field")
		for _, name := range err.AffectedFields {
			_ = table.Append(name)
		}
		_ = table.Render()
	}
	if err.Recommendation != "" {
		buf.WriteString("> ")
		buf.WriteString(err.Recommendation)
		buf.WriteString("\n")
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatDuplicateSection(choice *DuplicateChoice) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "# Duplicate: %s\n", choice.Title)
	if choice.Description != "" {
		buf.WriteString(choice.Description)
		buf.WriteString("\n")
	}
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Option", "Allowed")
	_ = table.Append("keep both", yesNo(choice.AllowKeepBoth))
	_ = table.Append("keep new", yesNo(choice.AllowKeepNew))
	_ = table.Append("cancel", "yes")
	_ = table.Render()
	return strings.TrimRight(buf.String(), "\n")
}

func formatDestructiveSection(warning *DestructiveWarning) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "# Warning (%s): %s\n", warning.Kind, warning.Title)
	if warning.Description != "" {
		buf.WriteString(warning.Description)
		buf.WriteString("\n")
	}
	if warning.Impact != "" {
		fmt.Fprintf(&buf, "Impact: %s\n", warning.Impact)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// FormatState renders the mode and the visible pane as markdown.
func FormatState(state FormState) string {
	sections := []string{fmt.Sprintf("# Mode: %s", state.Mode)}
	switch state.Pane() {
	case PaneError:
		sections = append(sections, formatErrorSection(state.Error))
	case PaneDuplicate:
		sections = append(sections, formatDuplicateSection(state.Duplicate))
	case PaneDestructive:
		sections = append(sections, formatDestructiveSection(state.Destructive))
	}
	return strings.Join(sections, "\n\n")
}

// FormatOptions renders a reference dropdown as a markdown table.
func FormatOptions(options []Selection) string {
	if len(options) == 0 {
		return "(no matches)"
	}
	var buf strings.Builder
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("ID", "Option")
	for _, opt := range options {
		_ = table.Append(fmt.Sprint(opt.ID), opt.Text)
	}
	_ = table.Render()
	return strings.TrimRight(buf.String(), "\n")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
