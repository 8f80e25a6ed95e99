package main

import (
	"context"

	"github.com/ImL1s/TodoListDemo-sub002/internal/service"
	"github.com/ImL1s/TodoListDemo-sub002/internal/tui"
	"github.com/spf13/cobra"
)

// todo tui
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive todo list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc service.Service) error {
			return tui.Run(ctx, svc)
		})
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
