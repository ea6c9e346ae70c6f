package main

import (
	"fmt"
	"os"

	"famorg/application/services"

	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file.json]",
		Short: "Bulk import records from a JSON file",
		Long: `Import a JSON array of records (or {"records": [...]}).

Each record needs levelRootName and level1Name; level2Name and level3Name
are optional. The remaining fields become the knowledge item.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			records, err := services.ParseImportPayload(data)
			if err != nil {
				return err
			}

			container, cleanup, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := container.Imports.Import(cmd.Context(), records)
			if result != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Imported: %d\nSkipped:  %d\n", result.Imported, result.Skipped)
				for _, leaf := range result.Leaves {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", leaf)
				}
			}
			return err
		},
	}
}
