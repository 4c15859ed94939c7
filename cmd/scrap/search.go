package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search manifests across all local buckets",
		Aliases: []string{
			"find",
		},
		Args: cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			manager, err := getScrap(cmd)
			if err != nil {
				return err
			}

			update, err := cmd.Flags().GetBool("update")
			if err != nil {
				return fmt.Errorf("error reading update flag: %w", err)
			}

			var query string
			if len(args) == 1 {
				query = args[0]
			}
			matches, err := manager.Search(query, update)
			if err != nil {
				return err
			}

			for _, match := range matches {
				fmt.Println(match)
			}
			return nil
		}),
	}

	cmd.Flags().BoolP("update", "u", false, "Fast-forward all buckets before searching")

	return cmd
}
