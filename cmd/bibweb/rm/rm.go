// Package rmcmder provides the rm command, which deletes a paper and every
// reference touching it.
package rmcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
)

const rmLongDesc string = `Remove papers from the web.

Papers can be named by id or by title. Every reference from or to a
removed paper is removed with it. Attached assets stay in the asset store
until "bibweb asset prune" collects them.

Examples:
  bibweb rm 4
  bibweb rm "Attention Is All You Need"`

const rmShortDesc string = "Remove papers"

type rmCommander struct {
	flags *cmdutil.WorkspaceFlags
}

func NewRmCmd() *cobra.Command {
	cmder := &rmCommander{}

	cmd := &cobra.Command{
		Use:   "rm <paper>...",
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

	for _, arg := range args {
		p, err := cmdutil.ResolvePaper(ws.Store, arg)
		if err != nil {
			return err
		}
		if err := ws.Store.RemovePaper(p.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  - Removed %s\n", cliui.PaperLine(p))
	}
	return nil
}
