package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ImL1s/TodoListDemo-sub002/internal/editor"
	"github.com/ImL1s/TodoListDemo-sub002/internal/service"
	"github.com/ImL1s/TodoListDemo-sub002/internal/ui"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
	"github.com/spf13/cobra"
)

// todo add
var addCmd = &cobra.Command{
	Use:   "add [<text>...]",
	Short: "Add a todo",
	Long: `Add a todo.

All arguments are joined with spaces to form the text. Without arguments
the todo is written in $EDITOR.`,
	Args: cobra.ArbitraryArgs,
	RunE: runAdd,
}

var addPriority string

// todo toggle
var toggleCmd = &cobra.Command{
	Use:   "toggle <id>...",
	Short: "Mark todos completed, or active again",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runToggle,
}

// todo edit
var editCmd = &cobra.Command{
	Use:   "edit <id> [<text>...]",
	Short: "Replace the text of a todo",
	Long: `Replace the text of a todo.

Without text the todo opens in $EDITOR, where its priority and
completion can be changed too.`,
	Args: cobra.MinimumNArgs(1),
	RunE:  runEdit,
}

// todo priority
var priorityCmd = &cobra.Command{
	Use:       "priority <id> <low|medium|high>",
	Short:     "Change the priority of a todo",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(todo.PriorityLow), string(todo.PriorityMedium), string(todo.PriorityHigh)},
	RunE:      runPriority,
}

// todo delete
var deleteCmd = &cobra.Command{
	Use:     "delete <id>...",
	Aliases: []string{"rm"},
	Short:   "Delete todos",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runDelete,
}

// todo clear-completed
var clearCompletedCmd = &cobra.Command{
	Use:   "clear-completed",
	Short: "Delete every completed todo",
	Args:  cobra.NoArgs,
	RunE:  runClearCompleted,
}

// todo toggle-all
var toggleAllCmd = &cobra.Command{
	Use:   "toggle-all",
	Short: "Complete every todo, or reopen all when all are completed",
	Args:  cobra.NoArgs,
	RunE:  runToggleAll,
}

func init() {
	rootCmd.AddCommand(addCmd, toggleCmd, editCmd, priorityCmd, deleteCmd, clearCompletedCmd, toggleAllCmd)

	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "Priority (low, medium, high; default from config)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	var priority todo.Priority
	if addPriority != "" {
		parsed, err := todo.ParsePriority(addPriority)
		if err != nil {
			return err
		}
		priority = parsed
	}
	text := strings.Join(args, " ")
	if len(args) == 0 {
		if !editor.IsInteractive() {
			return errTextRequired
		}
		parsed, err := editor.EditTodo(nil, priority)
		if err != nil {
			return err
		}
		text, priority = parsed.Text, parsed.Priority
	}

	return withService(cmd, func(ctx context.Context, svc service.Service) error {
		created, err := svc.Add(ctx, text, priority)
		if err != nil {
			return err
		}
		highlight, err := idHighlighter(ctx, svc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s\n", highlight(created.ID), created.Text)
		return nil
	})
}

func runToggle(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc service.Service) error {
		highlight, err := idHighlighter(ctx, svc)
		if err != nil {
			return err
		}
		for _, id := range args {
			updated, err := svc.Toggle(ctx, id)
			if err != nil {
				return err
			}
			verb := "Reopened"
			if updated.Completed {
				verb = "Completed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", verb, highlight(updated.ID), updated.Text)
		}
		return nil
	})
}

func runEdit(cmd *cobra.Command, args []string) error {
	if len(args) == 1 && !editor.IsInteractive() {
		return errTextRequired
	}
	return withService(cmd, func(ctx context.Context, svc service.Service) error {
		var updated todo.Todo
		var err error
		if len(args) == 1 {
			updated, err = editInEditor(ctx, svc, args[0])
		} else {
			updated, err = svc.Edit(ctx, args[0], strings.Join(args[1:], " "))
		}
		if err != nil {
			return err
		}
		highlight, err := idHighlighter(ctx, svc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s\n", highlight(updated.ID), updated.Text)
		return nil
	})
}

var errTextRequired = errors.New("todo text is required when stdin is not a terminal")

// editInEditor applies the changes made to a todo in $EDITOR. Reopening
// happens before text changes so locked completed todos can be edited in
// one pass.
func editInEditor(ctx context.Context, svc service.Service, id string) (todo.Todo, error) {
	current, err := svc.Get(ctx, id)
	if err != nil {
		return todo.Todo{}, err
	}
	parsed, err := editor.EditTodo(&current, "")
	if err != nil {
		return todo.Todo{}, err
	}

	toggle := parsed.Completed != nil && *parsed.Completed != current.Completed
	if toggle && current.Completed {
		if current, err = svc.Toggle(ctx, current.ID); err != nil {
			return todo.Todo{}, err
		}
		toggle = false
	}
	if parsed.Text != current.Text {
		if current, err = svc.Edit(ctx, current.ID, parsed.Text); err != nil {
			return todo.Todo{}, err
		}
	}
	if parsed.Priority != "" && parsed.Priority != current.Priority {
		if current, err = svc.SetPriority(ctx, current.ID, parsed.Priority); err != nil {
			return todo.Todo{}, err
		}
	}
	if toggle {
		if current, err = svc.Toggle(ctx, current.ID); err != nil {
			return todo.Todo{}, err
		}
	}
	return current, nil
}

func runPriority(cmd *cobra.Command, args []string) error {
	priority, err := todo.ParsePriority(args[1])
	if err != nil {
		return err
	}
	return withService(cmd, func(ctx context.Context, svc service.Service) error {
		updated, err := svc.SetPriority(ctx, args[0], priority)
		if err != nil {
			return err
		}
		highlight, err := idHighlighter(ctx, svc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Priority of %s is now %s\n", highlight(updated.ID), updated.Priority)
		return nil
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc service.Service) error {
		for _, id := range args {
			deleted, err := svc.Delete(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s: %s\n", deleted.ID, deleted.Text)
		}
		return nil
	})
}

func runClearCompleted(cmd *cobra.Command, _ []string) error {
	return withService(cmd, func(ctx context.Context, svc service.Service) error {
		removed, err := svc.ClearCompleted(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed %s\n", removed, pluralize(removed, "todo", "todos"))
		return nil
	})
}

func runToggleAll(cmd *cobra.Command, _ []string) error {
	return withService(cmd, func(ctx context.Context, svc service.Service) error {
		stats, err := svc.Stats(ctx)
		if err != nil {
			return err
		}
		if stats.Total == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No todos.")
			return nil
		}
		completed, err := svc.ToggleAll(ctx)
		if err != nil {
			return err
		}
		if completed {
			fmt.Fprintf(cmd.OutOrStdout(), "Completed all %d todos\n", stats.Total)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Reopened all %d todos\n", stats.Total)
		}
		return nil
	})
}

// idHighlighter returns a function that highlights the unique prefix of
// an ID among all todos.
func idHighlighter(ctx context.Context, svc service.Service) (func(string) string, error) {
	listing, err := svc.List(ctx, todo.Query{Filter: todo.FilterAll})
	if err != nil {
		return nil, err
	}
	lengths := todo.NewIDIndex(listing.Todos).PrefixLengths()
	return func(id string) string {
		return ui.HighlightID(id, ui.PrefixLength(lengths, id))
	}, nil
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
