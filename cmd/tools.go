package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Sefaria/sefaria-mcp/internal/api"
	"github.com/Sefaria/sefaria-mcp/internal/sefaria"
	"github.com/Sefaria/sefaria-mcp/internal/tools"
	pkgstrings "github.com/Sefaria/sefaria-mcp/pkg/strings"
)

// Output formats of the tools command.
const (
	formatTable    = "table"
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

const (
	descriptionWidth = 64
	maxSummaryLen    = 240
)

func newToolsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the server offers",
		Long: `Lists every tool in the order clients see it, with its arguments.
Required arguments are marked with *, defaults are shown after =.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors := tools.NewCatalog(sefaria.NewClient(), nil).Descriptors()
			out, err := renderTools(descriptors, format)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", formatTable, "Output format: table, markdown or json")
	return cmd
}

// toolSummary is the JSON form of one catalog entry.
type toolSummary struct {
	Name        string   `json:"name"`
	Arguments   []string `json:"arguments"`
	Description string   `json:"description"`
}

func renderTools(descriptors []api.ToolDescriptor, format string) (string, error) {
	switch format {
	case formatJSON:
		summaries := make([]toolSummary, 0, len(descriptors))
		for _, d := range descriptors {
			summaries = append(summaries, toolSummary{
				Name:        d.Name,
				Arguments:   argLabels(d.Args),
				Description: summary(d.Description),
			})
		}
		data, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode tools: %w", err)
		}
		return string(data) + "\n", nil

	case formatTable, formatMarkdown:
		t := table.NewWriter()
		t.AppendHeader(table.Row{"#", "NAME", "ARGUMENTS", "DESCRIPTION"})
		for i, d := range descriptors {
			t.AppendRow(table.Row{i + 1, d.Name, strings.Join(argLabels(d.Args), "\n"), summary(d.Description)})
		}
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 4, WidthMax: descriptionWidth, WidthMaxEnforcer: text.WrapSoft},
		})
		if format == formatMarkdown {
			return t.RenderMarkdown() + "\n", nil
		}
		t.SetStyle(table.StyleRounded)
		return t.Render() + "\n", nil

	default:
		return "", fmt.Errorf("unknown output format %q (want %s, %s or %s)", format, formatTable, formatMarkdown, formatJSON)
	}
}

// argLabels renders arguments as name*, name=default or name.
func argLabels(args []api.ArgSpec) []string {
	labels := make([]string, 0, len(args))
	for _, a := range args {
		label := a.Name
		switch {
		case a.Required:
			label += "*"
		case a.Default != nil:
			label += fmt.Sprintf("=%v", a.Default)
		}
		labels = append(labels, label)
	}
	return labels
}

// summary returns the first paragraph of a tool description on one line.
func summary(description string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(description), "\n\n")
	return pkgstrings.Summary(first, maxSummaryLen)
}
