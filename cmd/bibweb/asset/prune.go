package assetcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
)

const pruneLongDesc string = `Delete assets no paper links to.

Use --dry-run to list them without deleting anything.

Examples:
  bibweb asset prune --dry-run
  bibweb asset prune`

const pruneShortDesc string = "Delete unlinked assets"

type pruneCommander struct {
	dryRun bool
	flags  *cmdutil.WorkspaceFlags
}

func newPruneCmd() *cobra.Command {
	cmder := &pruneCommander{}

	cmd := &cobra.Command{
		Use:   "prune",
		Short: pruneShortDesc,
		Long:  pruneLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.dryRun, "dry-run", false, "List unlinked assets without deleting them")
	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *pruneCommander) run(cmd *cobra.Command) error {
	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx := cmd.Context()
	orphans, err := blob.Orphans(ctx, ws.Blobs, ws.Store.Papers())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(orphans) == 0 {
		fmt.Fprintln(out, cliui.DimStyle.Render("No unlinked assets."))
		return nil
	}

	var freed int64
	for _, info := range orphans {
		if c.dryRun {
			fmt.Fprintf(out, "  would delete %s %s\n", info.Name, cliui.DimStyle.Render(cliui.FormatBytes(info.Size)))
			continue
		}
		if err := ws.Blobs.Delete(ctx, info.Name); err != nil {
			return fmt.Errorf("deleting %q: %w", info.Name, err)
		}
		freed += info.Size
		fmt.Fprintf(out, "  - Deleted %s\n", info.Name)
	}

	if !c.dryRun {
		fmt.Fprintf(out, "  %s Freed %s\n", cliui.SuccessMark, cliui.FormatBytes(freed))
	}
	return nil
}
