package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-easel/pkg/catalog"
	"github.com/goliatone/go-easel/pkg/model"
	"github.com/goliatone/go-easel/pkg/orchestrator"
	"github.com/goliatone/go-easel/pkg/render"
	"github.com/goliatone/go-easel/pkg/widgets"
)

func newFormCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var htmlOutput bool

	cmd := &cobra.Command{
		Use:   "form <endpoint>",
		Short: "Show the generated form for an endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput && htmlOutput {
				return fmt.Errorf("specify only one of --json or --html")
			}

			cat, err := ctx.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			endpoint, ok := cat.Endpoint(args[0])
			if !ok {
				return fmt.Errorf("unknown endpoint %q", args[0])
			}
			if !endpoint.HasSchema() {
				return fmt.Errorf("endpoint %q has no descriptor to build a form from", endpoint.ID)
			}

			if htmlOutput {
				generator, err := ctx.generator()
				if err != nil {
					return err
				}
				cfg := ctx.configValue()
				operation := endpoint.Operation
				output, err := generator.Generate(cmd.Context(), orchestrator.Request{
					Operation: &operation,
					Theme:     cfg.UI.Theme,
					Variant:   cfg.UI.Variant,
					RenderOptions: render.RenderOptions{
						Action: cfg.API.BaseURL + endpoint.SubmissionPath(),
					},
				})
				if err != nil {
					return fmt.Errorf("render form: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(output)
				return err
			}

			form, err := buildEndpointForm(ctx, endpoint)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, form)
			}

			out := cmd.OutOrStdout()
			title := endpoint.Title
			if title == "" {
				title = endpoint.ID
			}
			fmt.Fprintf(out, "Endpoint: %s\n", endpoint.ID)
			fmt.Fprintf(out, "Title:    %s\n", title)
			if endpoint.Category != "" {
				fmt.Fprintf(out, "Category: %s\n", endpoint.Category)
			}
			table := renderTable(
				[]string{"Field", "Widget", "Group", "Required", "Default"},
				buildFormRows(form.Fields, ""),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(out, table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the form model as JSON")
	cmd.Flags().BoolVar(&htmlOutput, "html", false, "Emit the rendered HTML form")
	return cmd
}

// buildEndpointForm generates the decorated form model the way the studio
// does, hint overlays included.
func buildEndpointForm(ctx *commandContext, endpoint catalog.Endpoint) (model.FormModel, error) {
	form, err := model.NewBuilder().Build(endpoint.Operation)
	if err != nil {
		return model.FormModel{}, fmt.Errorf("build form: %w", err)
	}
	if err := widgets.Decorate(&form); err != nil {
		return model.FormModel{}, fmt.Errorf("decorate form: %w", err)
	}

	decorators, err := ctx.hintDecorators()
	if err != nil {
		return model.FormModel{}, err
	}
	for _, decorator := range decorators {
		if err := decorator.Decorate(&form); err != nil {
			return model.FormModel{}, fmt.Errorf("decorate form: %w", err)
		}
	}
	return form, nil
}

func buildFormRows(fields []model.Field, prefix string) [][]string {
	var rows [][]string
	for _, field := range fields {
		path := field.Name
		if prefix != "" {
			path = prefix + "." + field.Name
		}

		var kind, group string
		if field.Widget != nil {
			kind = string(field.Widget.Kind)
			group = string(field.Widget.Group)
		}

		rows = append(rows, []string{
			path,
			kind,
			group,
			yesNo(field.Required),
			defaultLabel(field.Default),
		})

		rows = append(rows, buildFormRows(field.Nested, path)...)
		if field.Items != nil {
			rows = append(rows, buildFormRows(field.Items.Nested, path+"[]")...)
		}
	}
	return rows
}

func defaultLabel(value any) string {
	if value == nil {
		return ""
	}
	label := fmt.Sprint(value)
	if len(label) > 40 {
		label = label[:37] + "..."
	}
	return strings.ReplaceAll(label, "\n", " ")
}
