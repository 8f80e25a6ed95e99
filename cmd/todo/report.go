package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ImL1s/TodoListDemo-sub002/internal/markdown"
	"github.com/ImL1s/TodoListDemo-sub002/internal/service"
	"github.com/ImL1s/TodoListDemo-sub002/internal/ui"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// todo report
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a markdown summary of the list",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

var (
	reportRaw   bool
	reportWidth int
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().BoolVar(&reportRaw, "raw", false, "Print markdown without rendering it")
	reportCmd.Flags().IntVar(&reportWidth, "width", 0, "Wrap width (default terminal width or 80)")
}

func runReport(cmd *cobra.Command, _ []string) error {
	return withService(cmd, func(ctx context.Context, svc service.Service) error {
		listing, err := svc.List(ctx, todo.Query{Filter: todo.FilterAll, Sort: todo.SortPriority, Descending: true})
		if err != nil {
			return err
		}
		report := buildReport(listing.Todos, listing.Stats)
		if reportRaw {
			fmt.Fprint(cmd.OutOrStdout(), report)
			return nil
		}
		rendered := markdown.SafeRender(report, markdown.Options{Width: reportRenderWidth(), Color: ui.ColorEnabled()})
		fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return nil
	})
}

func reportRenderWidth() int {
	if reportWidth > 0 {
		return reportWidth
	}
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return min(width, 120)
	}
	return 80
}

// buildReport renders todos as a markdown document grouped by state.
func buildReport(todos []todo.Todo, stats todo.Stats) string {
	var b strings.Builder
	b.WriteString("# Todos\n\n")
	if stats.Total == 0 {
		b.WriteString("Nothing to do.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%d active, %d completed (%d%% done)\n", stats.Active, stats.Completed, stats.CompletionRate)

	writeSection := func(title string, completed bool) {
		var items []todo.Todo
		for _, item := range todos {
			if item.Completed == completed {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n## %s\n\n", title)
		for _, item := range items {
			text := escapeMarkdown(item.Text)
			if completed {
				text = "~~" + text + "~~"
			} else if item.Priority == todo.PriorityHigh {
				text = "**" + text + "**"
			}
			fmt.Fprintf(&b, "- %s (%s, `%s`)\n", text, item.Priority, item.ID)
		}
	}
	writeSection("Active", false)
	writeSection("Completed", true)
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "~", `\~`, "[", `\[`, "]", `\]`, "#", `\#`,
)

func escapeMarkdown(value string) string {
	return markdownEscaper.Replace(value)
}
