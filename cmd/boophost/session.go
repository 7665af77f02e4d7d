package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"codeberg.org/sigterm-de/boophost/internal/app"
	"codeberg.org/sigterm-de/boophost/internal/textedit"
)

var (
	sessionFile  string
	sessionWrite bool
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Edit a document interactively",
	Long: `Start a line-oriented session on the document from --file (or an empty one).
Scripts run against the document in memory; undo and redo step through the
runs. Type help for the command list.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := ""
		if sessionFile != "" {
			b, err := os.ReadFile(sessionFile)
			if err != nil {
				return err
			}
			text = string(b)
		}

		a, err := newApp(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		doc := textedit.NewBuffer(text)
		s := app.NewSession(a, doc, cmd.OutOrStdout())
		if f, ok := cmd.InOrStdin().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			s.Prompt = "boop> "
		}
		if err := s.Run(cmd.Context(), cmd.InOrStdin()); err != nil {
			return err
		}

		if sessionWrite && sessionFile != "" {
			return os.WriteFile(sessionFile, []byte(doc.Text()), 0o644)
		}
		return nil
	},
}

func init() {
	sessionCmd.Flags().StringVarP(&sessionFile, "file", "f", "", "document to edit")
	sessionCmd.Flags().BoolVarP(&sessionWrite, "write", "w", false, "write the document back to --file on quit")
	rootCmd.AddCommand(sessionCmd)
}
