// Package exportcmder provides the export command, which writes the web to a
// JSON document or, when assets exist, a ZIP archive.
package exportcmder

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/backup"
	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/bundle"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
)

const exportLongDesc string = `Export the web.

Writes paper-web-<timestamp>.json when no assets are stored, otherwise
paper-web-<timestamp>.zip holding web.json and every asset under assets/.
Either file can be loaded back with "bibweb import".

The file goes to the given directory, or the directory of the previous
export, or the working directory. Use --output to pick the exact path, or
"--output -" to write to stdout.

Examples:
  bibweb export
  bibweb export ~/Documents/papers
  bibweb export --output - > web.json`

const exportShortDesc string = "Export the web to a file"

type exportCommander struct {
	output string
	flags  *cmdutil.WorkspaceFlags
}

func NewExportCmd() *cobra.Command {
	cmder := &exportCommander{}

	cmd := &cobra.Command{
		Use:   "export [dir]",
		Short: exportShortDesc,
		Long:  exportLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return cmder.run(cmd, dir)
		},
	}

	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "Write to this path (\"-\" for stdout)")
	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *exportCommander) run(cmd *cobra.Command, dir string) error {
	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx := cmd.Context()

	if c.output == "-" {
		_, err := ws.Bundler.Export(ctx, cmd.OutOrStdout())
		return err
	}

	var buf bytes.Buffer
	format, err := ws.Bundler.Export(ctx, &buf)
	if err != nil {
		return err
	}

	path := c.output
	if path == "" {
		if dir == "" {
			dir = c.lastDir(cmd, ws)
		}
		path = filepath.Join(dir, backup.FileName(time.Now(), format))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}

	if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
		if err := ws.Blobs.SaveSetting(ctx, blob.SettingLastExportDir, abs); err != nil {
			ws.Logger.Debug("could not remember export directory", zap.Error(err))
		}
	}

	kind := "document"
	if format == bundle.FormatArchive {
		kind = "archive"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %s Exported %s %s %s\n",
		cliui.SuccessMark,
		kind,
		path,
		cliui.DimStyle.Render("("+cliui.FormatBytes(int64(buf.Len()))+")"),
	)
	return nil
}

func (c *exportCommander) lastDir(cmd *cobra.Command, ws *cmdutil.Workspace) string {
	dir, ok, err := ws.Blobs.GetSetting(cmd.Context(), blob.SettingLastExportDir)
	if err != nil || !ok {
		return "."
	}
	return dir
}
