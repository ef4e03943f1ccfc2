package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/petereon/fix-stl/internal/operations"
)

// OutputFormat represents the type of output format
type OutputFormat int

const (
	FormatText OutputFormat = iota
	FormatJSON
	FormatMarkdown
)

// ParseFormat converts a string to OutputFormat
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return FormatText, fmt.Errorf("invalid format: %s (valid: text, json, markdown)", s)
	}
}

// Formatter defines the interface for output formatters
type Formatter interface {
	FormatRepair(input string, resp *operations.Response) string
	FormatBatchRepair(result *operations.BatchResult, summaryOnly bool) string
}

// NewFormatter creates a formatter based on format and options
func NewFormatter(format OutputFormat, colorEnabled bool) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TextFormatter{ColorEnabled: colorEnabled}
	}
}

// TextFormatter formats output as human-readable text
type TextFormatter struct {
	ColorEnabled bool
}

func (f *TextFormatter) FormatRepair(input string, resp *operations.Response) string {
	var b strings.Builder

	b.WriteString(f.header("Mesh Repair Report"))
	b.WriteString("\n")
	b.WriteString(f.field("Input", input))
	if resp.OutputPath != nil {
		b.WriteString(f.field("Output", *resp.OutputPath))
	}
	b.WriteString("\n")

	if resp.Success {
		b.WriteString(f.success("✓ " + resp.Message))
	} else {
		b.WriteString(f.error("✗ " + resp.Message))
	}
	b.WriteString("\n")

	return b.String()
}

func (f *TextFormatter) header(s string) string {
	if f.ColorEnabled {
		return color.New(color.Bold, color.FgCyan).Sprintf("═══ %s ═══\n", s)
	}
	return fmt.Sprintf("=== %s ===\n", s)
}

func (f *TextFormatter) subheader(s string) string {
	if f.ColorEnabled {
		return color.New(color.Bold).Sprintf("%s:\n", s)
	}
	return fmt.Sprintf("%s:\n", s)
}

func (f *TextFormatter) field(key, value string) string {
	if f.ColorEnabled {
		return fmt.Sprintf("  %s: %s\n", color.CyanString(key), value)
	}
	return fmt.Sprintf("  %s: %s\n", key, value)
}

func (f *TextFormatter) success(s string) string {
	if f.ColorEnabled {
		return color.GreenString(s)
	}
	return s
}

func (f *TextFormatter) error(s string) string {
	if f.ColorEnabled {
		return color.RedString(s)
	}
	return s
}

func (f *TextFormatter) muted(s string) string {
	if f.ColorEnabled {
		return color.New(color.Faint).Sprint(s)
	}
	return s
}

func (f *TextFormatter) FormatBatchRepair(result *operations.BatchResult, summaryOnly bool) string {
	var b strings.Builder

	b.WriteString(f.header("Batch Repair Report"))
	b.WriteString("\n")

	b.WriteString(f.subheader("Summary"))
	b.WriteString(f.field("Total Files", fmt.Sprintf("%d", result.Total)))
	b.WriteString(f.field("Repaired", fmt.Sprintf("%d", len(result.Repaired))))
	b.WriteString(f.field("Failed", fmt.Sprintf("%d", len(result.Failed))))
	if len(result.Errored) > 0 {
		b.WriteString(f.field("System Errors", fmt.Sprintf("%d", len(result.Errored))))
	}
	b.WriteString(f.field("Duration", result.Duration.Round(time.Millisecond).String()))
	b.WriteString("\n")

	if result.OK() {
		b.WriteString(f.success("✓ All meshes repaired successfully!"))
	} else {
		b.WriteString(f.error(fmt.Sprintf("✗ %d mesh(es) failed to repair", len(result.Failed))))
		if len(result.Errored) > 0 {
			b.WriteString("\n")
			b.WriteString(f.error(fmt.Sprintf("⚠ Encountered %d system error(s)", len(result.Errored))))
		}
	}
	b.WriteString("\n\n")

	if summaryOnly {
		return b.String()
	}

	if len(result.Repaired) > 0 {
		b.WriteString(f.subheader("Repaired"))
		for _, r := range result.Repaired {
			line := "  ✓ " + filepath.Base(r.FilePath)
			if r.Response.OutputPath != nil {
				line += f.muted(" → " + *r.Response.OutputPath)
			}
			b.WriteString(f.success(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(result.Failed) > 0 || len(result.Errored) > 0 {
		b.WriteString(f.subheader("Issues Found"))

		for _, r := range result.Errored {
			b.WriteString(f.error(fmt.Sprintf("  ⚠ %s: System Error: %s\n", filepath.Base(r.FilePath), errorText(r))))
		}
		for _, r := range result.Failed {
			b.WriteString(f.error(fmt.Sprintf("  ✗ %s: %s\n", filepath.Base(r.FilePath), r.Response.Message)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func errorText(r operations.Result) string {
	if r.Error != nil {
		return r.Error.Error()
	}
	return "no response"
}

// JSONFormatter formats output as JSON
type JSONFormatter struct{}

func (f *JSONFormatter) FormatRepair(_ string, resp *operations.Response) string {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to marshal response: %s"}`, err)
	}
	return string(data) + "\n"
}

func (f *JSONFormatter) FormatBatchRepair(result *operations.BatchResult, summaryOnly bool) string {
	output := map[string]interface{}{
		"total":    result.Total,
		"repaired": len(result.Repaired),
		"failed":   len(result.Failed),
		"errored":  len(result.Errored),
		"duration": result.Duration.Milliseconds(),
	}

	if !summaryOnly {
		output["results"] = result
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to marshal batch result: %s"}`, err)
	}
	return string(data) + "\n"
}

// MarkdownFormatter formats output as GitHub-flavored Markdown
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) FormatRepair(input string, resp *operations.Response) string {
	var b strings.Builder

	b.WriteString("# Mesh Repair Report\n\n")
	b.WriteString(fmt.Sprintf("**Input:** `%s`\n\n", input))
	if resp.OutputPath != nil {
		b.WriteString(fmt.Sprintf("**Output:** `%s`\n\n", *resp.OutputPath))
	}

	if resp.Success {
		b.WriteString(fmt.Sprintf("**Status:** ✅ %s\n", resp.Message))
	} else {
		b.WriteString(fmt.Sprintf("**Status:** ❌ %s\n", resp.Message))
	}

	return b.String()
}

func (f *MarkdownFormatter) FormatBatchRepair(result *operations.BatchResult, summaryOnly bool) string {
	var b strings.Builder

	b.WriteString("# Batch Repair Report\n\n")

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	b.WriteString(fmt.Sprintf("| Total Files | %d |\n", result.Total))
	b.WriteString(fmt.Sprintf("| Repaired | %d |\n", len(result.Repaired)))
	b.WriteString(fmt.Sprintf("| Failed | %d |\n", len(result.Failed)))
	b.WriteString(fmt.Sprintf("| System Errors | %d |\n", len(result.Errored)))
	b.WriteString(fmt.Sprintf("| Duration | %s |\n\n", result.Duration.Round(time.Millisecond)))

	if result.OK() {
		b.WriteString("**Status:** ✅ All meshes repaired successfully\n\n")
	} else {
		b.WriteString(fmt.Sprintf("**Status:** ❌ %d mesh(es) not repaired\n\n", len(result.Failed)+len(result.Errored)))
	}

	if !summaryOnly && (len(result.Failed) > 0 || len(result.Errored) > 0) {
		b.WriteString("## Failed Files\n\n")
		for _, r := range result.Errored {
			b.WriteString(fmt.Sprintf("- ⚠️ **%s**: %s\n", filepath.Base(r.FilePath), errorText(r)))
		}
		for _, r := range result.Failed {
			b.WriteString(fmt.Sprintf("- ❌ **%s**: %s\n", filepath.Base(r.FilePath), r.Response.Message))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// WriteOutput writes formatted output to a writer or file
func WriteOutput(w io.Writer, content string) error {
	_, err := fmt.Fprint(w, content)
	return err
}
