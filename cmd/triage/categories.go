package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/inbox-triage/internal/cli"
)

func categoriesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List classification categories",
		Long:  `Display every built-in category with its state in the current settings.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), appConfig, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			defs := a.classifier.Registry().Categories()
			out := cmd.OutOrStdout()
			if asJSON {
				return cli.WriteJSON(out, defs)
			}

			fmt.Fprintln(out, cli.FormatTitle("Categories"))
			fmt.Fprintln(out, cli.RenderCategories(defs, a.store.Get()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print categories as JSON")
	return cmd
}
