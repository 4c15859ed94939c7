package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuinixam/scrap/internal/cli"
	"github.com/cuinixam/scrap/pkg/scrap"
	"github.com/spf13/cobra"
)

func bucketCmd() *cobra.Command {
	bucketRoot := &cobra.Command{
		Use:   "bucket",
		Short: "Manage manifest buckets",
	}

	bucketRoot.AddCommand(
		&cobra.Command{
			Use:   "add url [name]",
			Short: "Clone a bucket and remember it in the registry",
			Args:  cobra.RangeArgs(1, 2),
			RunE: RunE(func(cmd *cobra.Command, args []string) error {
				manager, err := getScrap(cmd)
				if err != nil {
					return err
				}

				bucket := scrap.Bucket{URL: args[0], ID: scrap.BucketID(args[0])}
				if len(args) == 2 {
					bucket.Name = args[1]
				}

				registry := scrap.LoadRegistry(manager.RegistryPath())
				registry.AddOrUpdate(bucket)
				if err := manager.SaveRegistry(registry); err != nil {
					return err
				}

				dir := filepath.Join(manager.BucketsDir(), bucket.DirName())
				if err := manager.Syncer.Sync(bucket.URL, dir); err != nil {
					return fmt.Errorf("error syncing bucket: %w", err)
				}
				fmt.Printf("Added bucket '%s'.\n", bucket.DirName())
				return nil
			}),
		},
		&cobra.Command{
			Use:   "rm name",
			Short: "Remove a bucket from the registry and delete its checkout",
			Args:  cobra.MinimumNArgs(1),
			RunE: RunE(func(cmd *cobra.Command, args []string) error {
				manager, err := getScrap(cmd)
				if err != nil {
					return err
				}

				registry := scrap.LoadRegistry(manager.RegistryPath())
				for _, ref := range args {
					bucket := registry.GetByName(ref)
					if bucket == nil {
						bucket = registry.GetByURL(ref)
					}
					if bucket == nil {
						return fmt.Errorf("bucket '%s' is not registered", ref)
					}

					dir := filepath.Join(manager.BucketsDir(), bucket.DirName())
					if err := os.RemoveAll(dir); err != nil {
						return fmt.Errorf("error removing bucket checkout: %w", err)
					}
					registry.Remove(bucket.ID)
					fmt.Printf("Removed bucket '%s'.\n", ref)
				}
				return manager.SaveRegistry(registry)
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List registered buckets",
			Args:  cobra.NoArgs,
			RunE: RunE(func(cmd *cobra.Command, args []string) error {
				manager, err := getScrap(cmd)
				if err != nil {
					return err
				}

				registry := scrap.LoadRegistry(manager.RegistryPath())
				tbl, _, _ := cli.CreateTable("Name", "ID", "URL")
				for _, bucket := range registry.Buckets {
					tbl.AddRow(bucket.Name, bucket.ID, bucket.URL)
				}
				tbl.Print()
				return nil
			}),
		},
	)

	return bucketRoot
}
