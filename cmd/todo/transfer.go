package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ImL1s/TodoListDemo-sub002/internal/service"
	"github.com/ImL1s/TodoListDemo-sub002/storage/filestore"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
	"github.com/spf13/cobra"
)

// todo move
var moveCmd = &cobra.Command{
	Use:   "move <id> <position>",
	Short: "Move a todo to a position in the list",
	Long: `Move a todo to a position in the list.

Positions start at 1. A position past the end moves the todo last.`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

// todo export
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every todo as JSON",
	Long: `Write every todo as JSON.

The output uses the same format as the file backend and can be read back
with "todo import".`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

// todo import
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load todos from an export",
	Long: `Load todos from an export.

The list is replaced unless --merge is given, in which case todos whose
IDs are already taken are skipped. Use - to read standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	exportOutput string
	exportFormat string
	importFormat string
	importMerge  bool
)

func init() {
	rootCmd.AddCommand(moveCmd, exportCmd, importCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file instead of stdout")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "json or jsonl (default from --output extension, else json)")
	importCmd.Flags().StringVar(&importFormat, "format", "", "json or jsonl (default from file extension, else json)")
	importCmd.Flags().BoolVar(&importMerge, "merge", false, "Keep existing todos and add the new ones")
}

func runMove(cmd *cobra.Command, args []string) error {
	position, err := strconv.Atoi(args[1])
	if err != nil || position < 1 {
		return fmt.Errorf("invalid position %q: must be a number from 1", args[1])
	}
	return withService(cmd, func(ctx context.Context, svc service.Service) error {
		moved, err := svc.Move(ctx, args[0], position-1)
		if err != nil {
			return err
		}
		listing, err := svc.List(ctx, todo.Query{Filter: todo.FilterAll})
		if err != nil {
			return err
		}
		for i, item := range listing.Todos {
			if item.ID == moved.ID {
				position = i + 1
				break
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to position %d: %s\n", moved.ID, position, moved.Text)
		return nil
	})
}

func runExport(cmd *cobra.Command, _ []string) error {
	format, err := transferFormat(exportFormat, exportOutput)
	if err != nil {
		return err
	}
	return withService(cmd, func(ctx context.Context, svc service.Service) error {
		todos, err := svc.Export(ctx)
		if err != nil {
			return err
		}
		data, err := filestore.Marshal(todos, format)
		if err != nil {
			return err
		}
		if exportOutput == "" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := filestore.WriteFileAtomic(exportOutput, data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d %s to %s\n", len(todos), pluralize(len(todos), "todo", "todos"), exportOutput)
		return nil
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	name := path
	if path == "-" {
		name = ""
	}
	format, err := transferFormat(importFormat, name)
	if err != nil {
		return err
	}

	var data []byte
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}
	todos, err := filestore.Unmarshal(data, format)
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}

	mode := todo.ImportReplace
	if importMerge {
		mode = todo.ImportMerge
	}
	return withService(cmd, func(ctx context.Context, svc service.Service) error {
		result, err := svc.Import(ctx, todos, mode)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Imported %d %s\n", result.Added, pluralize(result.Added, "todo", "todos"))
		if result.Skipped > 0 {
			fmt.Fprintf(out, "Skipped %d with existing IDs\n", result.Skipped)
		}
		if result.Removed > 0 {
			fmt.Fprintf(out, "Replaced %d previous %s\n", result.Removed, pluralize(result.Removed, "todo", "todos"))
		}
		return nil
	})
}

// transferFormat picks the export encoding from the flag, or from the
// file name when the flag is empty.
func transferFormat(flag, path string) (filestore.Format, error) {
	switch format := filestore.Format(flag); format {
	case "":
		if path == "" {
			return filestore.FormatJSON, nil
		}
		return filestore.FormatFor(path), nil
	case filestore.FormatJSON, filestore.FormatJSONL:
		return format, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json or jsonl)", flag)
	}
}
