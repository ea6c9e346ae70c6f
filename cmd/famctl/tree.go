package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"famorg/domain/core/entities"

	"github.com/spf13/cobra"
)

func treeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the knowledge tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, cleanup, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			tree, err := container.Structure.Structure(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(tree)
			}
			if len(tree) == 0 {
				fmt.Fprintln(out, "(empty)")
				return nil
			}
			for _, node := range tree {
				printNode(out, node, 0)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}

func printNode(w io.Writer, node *entities.TreeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	if node.IsFile() {
		fmt.Fprintf(w, "%s%s (%d items)\n", indent, node.Name, len(node.KnowledgeItems))
		return
	}
	fmt.Fprintf(w, "%s%s/\n", indent, node.Name)
	for _, child := range node.Children {
		printNode(w, child, depth+1)
	}
}
