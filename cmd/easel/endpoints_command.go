package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-easel/pkg/catalog"
)

func newEndpointsCommand(ctx *commandContext) *cobra.Command {
	var category string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "List the available generation endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := ctx.openCatalog(cmd.Context())
			if err != nil {
				return err
			}

			entries := cat.Endpoints()
			if category != "" {
				entries = cat.ByCategory(category)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No endpoints found")
				return nil
			}

			if jsonOutput {
				return writeJSON(cmd, endpointListing(entries))
			}

			table := renderTable(
				[]string{"Endpoint", "Category", "Title", "Form"},
				buildEndpointRows(entries),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list endpoints in this category")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the listing as JSON")
	return cmd
}

func buildEndpointRows(entries []catalog.Endpoint) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.ID,
			entry.Category,
			entry.Title,
			yesNo(entry.HasSchema()),
		})
	}
	return rows
}

type endpointSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
	HasForm  bool   `json:"has_form"`
	Manual   bool   `json:"manual,omitempty"`
}

func endpointListing(entries []catalog.Endpoint) []endpointSummary {
	listing := make([]endpointSummary, 0, len(entries))
	for _, entry := range entries {
		listing = append(listing, endpointSummary{
			ID:       entry.ID,
			Title:    entry.Title,
			Category: entry.Category,
			HasForm:  entry.HasSchema(),
			Manual:   entry.Manual,
		})
	}
	return listing
}
