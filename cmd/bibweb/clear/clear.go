// Package clearcmder provides the clear command, which empties the web.
package clearcmder

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
)

const clearLongDesc string = `Remove every paper and reference.

Asks for confirmation unless --yes is given. Assets are kept; run
"bibweb asset prune" afterwards to delete them. Export first if you may
want the web back.

Examples:
  bibweb clear
  bibweb clear --yes`

const clearShortDesc string = "Remove every paper and reference"

var errAborted = errors.New("aborted")

type clearCommander struct {
	yes   bool
	flags *cmdutil.WorkspaceFlags
}

func NewClearCmd() *cobra.Command {
	cmder := &clearCommander{}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: clearShortDesc,
		Long:  clearLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVarP(&cmder.yes, "yes", "y", false, "Do not ask for confirmation")
	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *clearCommander) run(cmd *cobra.Command) error {
	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	out := cmd.OutOrStdout()
	papers, refs := ws.Store.Len()
	if papers == 0 {
		fmt.Fprintln(out, cliui.DimStyle.Render("Nothing to clear."))
		return nil
	}

	if !c.yes {
		fmt.Fprintf(out, "Remove %d papers and %d references? [y/N] ", papers, refs)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			return errAborted
		}
	}

	ws.Store.Clear()
	fmt.Fprintf(out, "  %s Cleared %d papers and %d references\n", cliui.SuccessMark, papers, refs)
	return nil
}
