package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every preference with its effective value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", a.Config.PreferencesPath)
		for _, s := range a.Prefs.Settings() {
			fmt.Fprintf(out, "%s = %s\n", s.Key, s.Value)
		}
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change one preference",
	Long: `Change one preference and save it. An empty value resets text settings.

Keys: history.depth, require.keyword, script.timeout, fetch.timeout and
runtime.<id>.{enabled,path,launcher,require} with <id> one of py, rb, pl,
lua, node.`,
	Example: `  boophost prefs set runtime.lua.path "boophost lua-bridge"
  boophost prefs set runtime.rb.enabled false`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if err := a.Prefs.Set(args[0], strings.Join(args[1:], " ")); err != nil {
			return err
		}
		return a.SavePreferences()
	},
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd, prefsSetCmd)
	rootCmd.AddCommand(prefsCmd)
}
