package main

import (
	"fmt"

	"github.com/cuinixam/scrap/pkg/scrap"
	"github.com/spf13/cobra"
)

func uninstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall [app[@version]...]",
		Short: "Uninstall installed apps (download cache is kept by default)",
		Aliases: []string{
			"remove",
			"delete",
			"rm",
		},
		Args: cobra.ArbitraryArgs,
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			manager, err := getScrap(cmd)
			if err != nil {
				return err
			}

			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return fmt.Errorf("error reading all flag: %w", err)
			}
			wipeCache, err := cmd.Flags().GetBool("wipe-cache")
			if err != nil {
				return fmt.Errorf("error reading wipe-cache flag: %w", err)
			}

			if all {
				if len(args) > 0 {
					return fmt.Errorf("--all can't be combined with app arguments")
				}
				if err := manager.UninstallAll(wipeCache); err != nil {
					return err
				}
				fmt.Println("Uninstalled all apps.")
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("pass apps to uninstall, or --all")
			}
			for _, arg := range args {
				name, version := scrap.ParseAppSpec(arg)
				if err := manager.Uninstall(name, version); err != nil {
					return err
				}
				fmt.Printf("Uninstalled '%s'.\n", arg)
			}
			if wipeCache {
				if err := manager.WipeCache(); err != nil {
					return err
				}
			}
			return nil
		}),
	}

	cmd.Flags().BoolP("all", "a", false, "Uninstall every installed app")
	cmd.Flags().Bool("wipe-cache", false, "Also delete the download cache")

	return cmd
}
