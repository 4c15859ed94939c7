package main

import (
	"strings"

	"github.com/cuinixam/scrap/internal/cli"
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed apps",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			manager, err := getScrap(cmd)
			if err != nil {
				return err
			}

			installed, err := manager.ListInstalled()
			if err != nil {
				return err
			}

			tbl, _, _ := cli.CreateTable("Name", "Version", "Bucket", "Bin")
			for _, app := range installed {
				tbl.AddRow(app.Name, app.Version, app.Bucket,
					strings.Join(app.BinDirs, ", "))
			}
			tbl.Print()
			return nil
		}),
	}

	return cmd
}
