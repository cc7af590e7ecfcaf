package assetcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

const rmLongDesc string = `Delete stored assets.

Papers linking to a deleted asset keep their link; "bibweb status" lists
such links as missing.

Examples:
  bibweb asset rm old-draft.pdf`

const rmShortDesc string = "Delete assets"

type rmCommander struct {
	flags *cmdutil.WorkspaceFlags
}

func newRmCmd() *cobra.Command {
	cmder := &rmCommander{}

	cmd := &cobra.Command{
		Use:   "rm <name>...",
		Short: rmShortDesc,
		Long:  rmLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *rmCommander) run(cmd *cobra.Command, args []string) error {
	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	linked := make(map[string]*paper.Paper)
	for _, p := range ws.Store.Papers() {
		if name := paper.AssetName(p.Link); name != "" {
			linked[name] = p
		}
	}

	out := cmd.OutOrStdout()
	for _, arg := range args {
		name := assetName(arg)
		if err := ws.Blobs.Delete(cmd.Context(), name); err != nil {
			return fmt.Errorf("deleting %q: %w", name, err)
		}
		fmt.Fprintf(out, "  - Deleted %s\n", name)
		if p, ok := linked[name]; ok {
			fmt.Fprintf(out, "  %s still linked from %s\n", cliui.WarnMark, cliui.PaperLine(p))
		}
	}
	return nil
}
