package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"codeberg.org/sigterm-de/boophost/internal/app"
	"codeberg.org/sigterm-de/boophost/internal/textedit"
)

var (
	runFile   string
	runRanges []string
	runWrite  bool
)

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Run a script on a file or stdin",
	Long: `Run a script on the text read from --file (or stdin) and print the result.

Without --range the script sees the whole document and inserts at its end.
Each --range start:length (character offsets) selects a part of the text;
the script then runs once per non-empty range.`,
	Example: `  echo hello | boophost run Upcase
  boophost run "Sort lines" -f notes.txt -w
  boophost run Upcase -f notes.txt -r 0:5 -r 12:3`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if runWrite && runFile == "" {
			return fmt.Errorf("--write needs --file")
		}
		text, err := readDocument(cmd.InOrStdin(), runFile)
		if err != nil {
			return err
		}
		doc := textedit.NewBuffer(text)
		ranges, err := app.ParseRanges(runRanges)
		if err != nil {
			return err
		}
		if len(ranges) == 0 {
			ranges = []textedit.Range{{Start: len([]rune(text))}}
		}
		if err := doc.SetRanges(ranges); err != nil {
			return err
		}

		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		script, err := a.Script(strings.Join(args, " "))
		if err != nil {
			return err
		}
		if err := a.Runner.Run(cmd.Context(), script, doc, a.Status); err != nil {
			return err
		}

		if runWrite {
			return os.WriteFile(runFile, []byte(doc.Text()), 0o644)
		}
		_, err = io.WriteString(cmd.OutOrStdout(), doc.Text())
		return err
	},
}

func readDocument(stdin io.Reader, path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "read the document from this file instead of stdin")
	runCmd.Flags().StringArrayVarP(&runRanges, "range", "r", nil, "selection range start:length (repeatable)")
	runCmd.Flags().BoolVarP(&runWrite, "write", "w", false, "write the result back to --file")
	rootCmd.AddCommand(runCmd)
}
