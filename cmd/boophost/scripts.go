package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"codeberg.org/sigterm-de/boophost/internal/app"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every loaded script",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, s := range a.Catalog.Search("*") {
			fmt.Fprintln(out, app.Describe(s))
		}
		if skipped := a.Catalog.Skipped(); len(skipped) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d file(s) skipped, see %s\n", len(skipped), a.LogPath)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy-search the scripts",
	Long: `Fuzzy-search script names, tags, categories and descriptions.
"cat:json" or "category:json,format" narrows the result to those categories.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		for _, s := range a.Catalog.Search(strings.Join(args, " ")) {
			fmt.Fprintln(cmd.OutOrStdout(), app.Describe(s))
		}
		return nil
	},
}

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a user script from the template",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		path, err := a.NewScript(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd, searchCmd, newCmd)
}
