package main

import (
	"fmt"
	"sort"

	"github.com/cuinixam/scrap/pkg/scrap"
	"github.com/spf13/cobra"
)

func installCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install [app@version]",
		Short: "Install apps from a config file, a bucket or a manifest",
		Aliases: []string{
			"add",
			"i",
		},
		Args: cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			manager, err := getScrap(cmd)
			if err != nil {
				return err
			}

			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("error reading config flag: %w", err)
			}
			manifestPath, err := cmd.Flags().GetString("manifest")
			if err != nil {
				return fmt.Errorf("error reading manifest flag: %w", err)
			}
			bucketRef, err := cmd.Flags().GetString("bucket")
			if err != nil {
				return fmt.Errorf("error reading bucket flag: %w", err)
			}

			switch {
			case configPath != "":
				config, err := scrap.LoadConfig(configPath)
				if err != nil {
					return err
				}
				result, err := manager.Install(config)
				if err != nil {
					return err
				}
				printResult(result)
				return nil
			case manifestPath != "":
				if len(args) != 1 {
					return fmt.Errorf("a version is required when installing from a manifest")
				}
				_, version := scrap.ParseAppSpec(args[0])
				if version == "" {
					version = args[0]
				}
				installed, err := manager.InstallFromManifest(manifestPath, version)
				if err != nil {
					return err
				}
				printResult(&scrap.InstallResult{Apps: []scrap.InstalledApp{*installed}})
				return nil
			case len(args) == 1:
				name, version := scrap.ParseAppSpec(args[0])
				if version == "" {
					return fmt.Errorf("a version is required, use '%s@<version>'", name)
				}
				installed, err := manager.InstallApp(name, version, bucketRef)
				if err != nil {
					return err
				}
				printResult(&scrap.InstallResult{Apps: []scrap.InstalledApp{*installed}})
				return nil
			default:
				return fmt.Errorf("pass an app spec, --config or --manifest")
			}
		}),
	}

	cmd.Flags().StringP("config", "c", "", "Install every app of the given config file")
	cmd.Flags().String("manifest", "", "Install directly from a manifest file")
	cmd.Flags().String("bucket", "", "Bucket name or repository URL to install from")

	return cmd
}

func printResult(result *scrap.InstallResult) {
	for _, app := range result.Apps {
		fmt.Printf("Installed '%s@%s' into '%s'\n", app.Name, app.Version, app.InstallDir)
	}

	if binDirs := result.BinDirs(); len(binDirs) > 0 {
		fmt.Println("\nAdd to your PATH:")
		for _, dir := range binDirs {
			fmt.Printf("  %s\n", dir)
		}
	}

	env := result.Env()
	delete(env, "PATH")
	if len(env) > 0 {
		keys := make([]string, 0, len(env))
		for key := range env {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Println("\nEnvironment variables:")
		for _, key := range keys {
			fmt.Printf("  %s=%s\n", key, env[key])
		}
	}
}
