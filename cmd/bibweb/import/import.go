// Package importcmder provides the import command, which replaces the web
// with the contents of an exported document or archive.
package importcmder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
)

const importLongDesc string = `Import an exported web.

Accepts the .json documents and .zip archives written by "bibweb export"
and replaces the current web with their contents. Archive assets are
stored under new names when the name is taken by a different file, and
paper links are updated to match. Assets that cannot be stored are
reported without failing the import.

Pass "-" to read from stdin.

Examples:
  bibweb import paper-web-20260101-120000.zip
  cat web.json | bibweb import -`

const importShortDesc string = "Import an exported web"

type importCommander struct {
	flags *cmdutil.WorkspaceFlags
}

func NewImportCmd() *cobra.Command {
	cmder := &importCommander{}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: importShortDesc,
		Long:  importLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *importCommander) run(cmd *cobra.Command, path string) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx := cmd.Context()
	report, err := ws.Bundler.Import(ctx, data)
	if err != nil {
		return err
	}

	if path != "-" {
		if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
			if err := ws.Blobs.SaveSetting(ctx, blob.SettingLastImportDir, abs); err != nil {
				ws.Logger.Debug("could not remember import directory", zap.Error(err))
			}
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  %s Imported %d papers and %d references from %s %s\n",
		cliui.SuccessMark, report.Papers, report.References, report.Format,
		cliui.DimStyle.Render(fmt.Sprintf("(%d assets)", len(report.Assets))),
	)

	for _, from := range sortedKeys(report.Renamed) {
		fmt.Fprintf(out, "  %s %s stored as %s\n", cliui.WarnMark, from, report.Renamed[from])
	}
	for _, name := range sortedKeys(report.Failed) {
		fmt.Fprintf(out, "  %s %s: %v\n", cliui.FailMark, name, report.Failed[name])
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
