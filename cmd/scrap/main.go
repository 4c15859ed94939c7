package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	// This seems to provide no value whatsoever, it seemingly doesn't even do
	// what's documented. All it does, is take time.
	cobra.MousetrapHelpText = ""

	rootCmd := cobra.Command{
		Use:   "scrap",
		Short: "Reproducible developer tool installs from versioned manifests.",
		// By default, subcommand aliases aren't autocompleted.
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			var aliases []string
			for _, subCmd := range cmd.Commands() {
				aliases = append(aliases, subCmd.Aliases...)
			}
			return aliases, cobra.ShellCompDirectiveNoFileComp
		},
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().String("root", "",
		"Root directory for apps, buckets and the download cache (defaults to $SCRAP_ROOT or ~/.scrap)")

	rootCmd.AddCommand(installCmd())
	rootCmd.AddCommand(uninstallCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(bucketCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
