package assetcmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

const getLongDesc string = `Write a stored asset to disk.

The name may be given with or without the assets/ prefix. The file is
written to the working directory under its asset name unless --output is
given; "--output -" writes to stdout.

Examples:
  bibweb asset get 1706.03762.pdf
  bibweb asset get assets/talk.mp4 -o ~/Videos/talk.mp4`

const getShortDesc string = "Write an asset to disk"

type getCommander struct {
	output string
	flags  *cmdutil.WorkspaceFlags
}

func newGetCmd() *cobra.Command {
	cmder := &getCommander{}

	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: getShortDesc,
		Long:  getLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "Write to this path (\"-\" for stdout)")
	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

// assetName accepts both "name" and "assets/name".
func assetName(arg string) string {
	if paper.IsAssetLink(arg) {
		return paper.AssetName(arg)
	}
	return arg
}

func (c *getCommander) run(cmd *cobra.Command, arg string) error {
	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	name := assetName(arg)
	a, err := ws.Blobs.Get(cmd.Context(), name)
	if err != nil {
		if blob.IsNotFound(err) {
			return fmt.Errorf("no asset named %q", name)
		}
		return err
	}

	if c.output == "-" {
		_, err := cmd.OutOrStdout().Write(a.Data)
		return err
	}

	path := c.output
	if path == "" {
		path = a.Name
	}
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "  %s Wrote %s %s\n", cliui.SuccessMark, path,
		cliui.DimStyle.Render("("+cliui.FormatBytes(a.Size)+")"))
	return nil
}
