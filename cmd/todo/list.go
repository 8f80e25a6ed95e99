package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ImL1s/TodoListDemo-sub002/internal/service"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
	"github.com/spf13/cobra"
)

// todo list
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List todos",
	Long: `List todos.

Without --filter the current view filter is used, which is "all" unless
a server was told otherwise. Passing --filter also sets the current filter.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listFilter string
	listSearch string
	listSort   string
	listDesc   bool
	listJSON   bool
)

// todo show
var showCmd = &cobra.Command{
	Use:   "show <id>...",
	Short: "Show details of todos",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runShow,
}

var showJSON bool

// todo stats
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many todos are active and completed",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var statsJSON bool

func init() {
	rootCmd.AddCommand(listCmd, showCmd, statsCmd)

	listCmd.Flags().StringVar(&listFilter, "filter", "", "Show all, active or completed todos")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Only show todos containing this text")
	listCmd.Flags().StringVar(&listSort, "sort", "", "Sort by created, priority or text")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "Reverse the sort order")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	addFilterFlagAliases(listCmd)

	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
}

func runList(cmd *cobra.Command, _ []string) error {
	sortKey, err := todo.ParseSortKey(listSort)
	if err != nil {
		return err
	}
	query := todo.Query{Search: listSearch, Sort: sortKey, Descending: listDesc}
	if cmd.Flags().Changed("filter") {
		filter, err := todo.ParseFilter(listFilter)
		if err != nil {
			return err
		}
		query.Filter = filter
	}

	return withService(cmd, func(ctx context.Context, svc service.Service) error {
		if query.Filter != "" {
			if err := svc.SetFilter(ctx, query.Filter); err != nil {
				return err
			}
		}
		listing, err := svc.List(ctx, query)
		if err != nil {
			return err
		}
		if listJSON {
			return encodeJSON(cmd.OutOrStdout(), listing.Todos)
		}

		all, err := svc.List(ctx, todo.Query{Filter: todo.FilterAll})
		if err != nil {
			return err
		}
		lengths := todo.NewIDIndex(all.Todos).PrefixLengths()
		printTodoTable(cmd.OutOrStdout(), listing.Todos, lengths, time.Now())
		printStatsLine(cmd.OutOrStdout(), listing.Stats, listing.Filter)
		return nil
	})
}

func runShow(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc service.Service) error {
		items := make([]todo.Todo, 0, len(args))
		for _, id := range args {
			item, err := svc.Get(ctx, id)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		if showJSON {
			return encodeJSON(cmd.OutOrStdout(), items)
		}

		highlight, err := idHighlighter(ctx, svc)
		if err != nil {
			return err
		}
		for i, item := range items {
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			printTodoDetail(cmd.OutOrStdout(), item, highlight, time.Now())
		}
		return nil
	})
}

func runStats(cmd *cobra.Command, _ []string) error {
	return withService(cmd, func(ctx context.Context, svc service.Service) error {
		stats, err := svc.Stats(ctx)
		if err != nil {
			return err
		}
		if statsJSON {
			return encodeJSON(cmd.OutOrStdout(), stats)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Total:     %d\n", stats.Total)
		fmt.Fprintf(cmd.OutOrStdout(), "Active:    %d\n", stats.Active)
		fmt.Fprintf(cmd.OutOrStdout(), "Completed: %d\n", stats.Completed)
		fmt.Fprintf(cmd.OutOrStdout(), "Done:      %d%%\n", stats.CompletionRate)
		return nil
	})
}

func printStatsLine(w io.Writer, stats todo.Stats, filter todo.Filter) {
	line := fmt.Sprintf("%d active, %d completed, %d%% done", stats.Active, stats.Completed, stats.CompletionRate)
	if filter != "" && filter != todo.FilterAll {
		line += fmt.Sprintf(" (showing %s)", filter)
	}
	fmt.Fprintln(w, line)
}
