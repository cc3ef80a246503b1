package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-easel/pkg/queue"
)

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the most recently submitted job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

			store, err := ctx.settingsStore()
			if err != nil {
				return err
			}
			record := store.LastJob()
			if record == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No job to cancel")
				return nil
			}

			client, err := ctx.queueClient()
			if err != nil {
				return err
			}
			handle := queue.Handle{
				RequestID:   record.RequestID,
				StatusURL:   record.StatusURL,
				ResponseURL: record.ResponseURL,
				CancelURL:   record.CancelURL,
			}
			if err := client.Cancel(cmd.Context(), handle); err != nil {
				return fmt.Errorf("cancel request %s: %w", record.RequestID, err)
			}
			if err := store.ClearLastJob(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled request %s on %s\n", record.RequestID, record.Endpoint)
			return nil
		},
	}
}
