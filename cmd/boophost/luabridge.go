package main

import (
	"os"

	"github.com/spf13/cobra"

	"codeberg.org/sigterm-de/boophost/internal/bridge"
	"codeberg.org/sigterm-de/boophost/internal/bridge/luahost"
)

// luaBridgeCmd is the Lua runtime when runtime.lua.path is set to
// "boophost lua-bridge". It is invoked as lua-bridge <launcher> <script>; the
// launcher is ignored.
var luaBridgeCmd = &cobra.Command{
	Use:    "lua-bridge [launcher] <script>",
	Short:  "Run a Lua script under the bridge protocol",
	Hidden: true,
	Args:   cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		script := args[len(args)-1]
		out, err := (&luahost.Host{}).Run(cmd.Context(), os.Getenv(bridge.EnvState), script, luahost.EnvFromOS())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(luaBridgeCmd)
}
