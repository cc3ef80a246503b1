package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-easel/pkg/gallery"
	"github.com/goliatone/go-easel/pkg/viewer"
)

func newGalleryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Inspect and maintain saved images",
	}
	cmd.AddCommand(newGalleryListCommand(ctx))
	cmd.AddCommand(newGalleryRemoveCommand(ctx))
	cmd.AddCommand(newGalleryClearCommand(ctx))
	cmd.AddCommand(newGalleryDownloadCommand(ctx))
	return cmd
}

func newGalleryListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved images, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var records []gallery.Record
			err := ctx.withGallery(func(service *gallery.Service) error {
				listed, err := service.List(cmd.Context())
				if err != nil {
					return err
				}
				records = listed
				return nil
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Gallery is empty")
				return nil
			}

			headers := []string{"Index", "Endpoint", "Prompt", "Saved", "URL"}
			rows := make([][]string, 0, len(records))
			for index, record := range records {
				rows = append(rows, []string{
					strconv.Itoa(index),
					record.Endpoint,
					promptLabel(record.Prompt),
					record.SavedAt.Local().Format("2006-01-02 15:04"),
					record.URL,
				})
			}
			aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output records as JSON")
	return cmd
}

func newGalleryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <index|timestamp>",
		Short: "Remove a saved image by list index or RFC 3339 save time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

			return ctx.withGallery(func(service *gallery.Service) error {
				if index, convErr := strconv.Atoi(args[0]); convErr == nil {
					if err := service.Delete(cmd.Context(), index); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed record %d\n", index)
					return nil
				}
				savedAt, parseErr := time.Parse(time.RFC3339Nano, args[0])
				if parseErr != nil {
					return fmt.Errorf("argument %q is neither an index nor an RFC 3339 timestamp", args[0])
				}
				if err := service.DeleteAt(cmd.Context(), savedAt); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed record saved at %s\n", args[0])
				return nil
			})
		},
	}
}

func newGalleryClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every saved image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the gallery without --yes")
			}

			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

			return ctx.withGallery(func(service *gallery.Service) error {
				if err := service.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Gallery cleared")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm removing every record")
	return cmd
}

func newGalleryDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download <index>",
		Short: "Download a saved image to the downloads directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}

			var record gallery.Record
			err = ctx.withGallery(func(service *gallery.Service) error {
				records, err := service.List(cmd.Context())
				if err != nil {
					return err
				}
				if index < 0 || index >= len(records) {
					return fmt.Errorf("index %d out of range (have %d records)", index, len(records))
				}
				record = records[index]
				return nil
			})
			if err != nil {
				return err
			}

			downloader, err := ctx.downloader(progressWriter(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			path, err := downloader.Download(cmd.Context(), viewer.Item{
				URL:       record.URL,
				FileName:  record.FileName,
				GalleryID: record.ID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s\n", path)
			return nil
		},
	}
}

// promptLabel keeps table rows readable for long prompts.
func promptLabel(prompt string) string {
	const max = 48
	if len(prompt) <= max {
		return prompt
	}
	return prompt[:max-3] + "..."
}
