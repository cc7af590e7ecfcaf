// Package listcmder provides the list command, which prints the papers in
// the web and optionally the references between them.
package listcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
)

const listLongDesc string = `List papers.

Prints one line per paper: its id on its palette color, title, nickname,
link type and a pin marker for papers excluded from automatic layout.

Use --refs to print the references of each paper below it, and --json to
print the snapshot document instead.

Examples:
  bibweb list
  bibweb list --refs
  bibweb list --json | jq '.nodes[].title'`

const listShortDesc string = "List papers"

type listCommander struct {
	refs    bool
	jsonOut bool
	flags   *cmdutil.WorkspaceFlags
}

func NewListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   listShortDesc,
		Long:    listLongDesc,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.refs, "refs", false, "Show references under each paper")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the snapshot document as JSON")
	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *listCommander) run(cmd *cobra.Command) error {
	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	out := cmd.OutOrStdout()

	if c.jsonOut {
		return ws.Bundler.WriteDocument(out)
	}

	papers := ws.Store.Papers()
	if len(papers) == 0 {
		fmt.Fprintln(out, cliui.DimStyle.Render("No papers yet. Add one with: bibweb add <title>"))
		return nil
	}

	refs := ws.Store.References()
	for _, p := range papers {
		fmt.Fprintf(out, "%s\n", cliui.PaperLine(p))
		if !c.refs {
			continue
		}
		for _, r := range refs {
			if r.From != p.ID {
				continue
			}
			to, ok := ws.Store.Paper(r.To)
			if !ok {
				continue
			}
			line := "    → " + cliui.PaperLine(to)
			if r.Label != "" {
				line += cliui.StepStyle.Render(" (" + r.Label + ")")
			}
			fmt.Fprintln(out, line)
		}
	}

	fmt.Fprintf(out, "\n%s\n", cliui.DimStyle.Render(fmt.Sprintf("%d papers, %d references", len(papers), len(refs))))
	return nil
}
