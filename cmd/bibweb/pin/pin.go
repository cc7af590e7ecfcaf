// Package pincmder provides the pin and unpin commands, which take papers
// out of automatic layout or give them back to it.
package pincmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
	"github.com/Ben-Eze/BibWeb/pkg/graph"
)

const pinLongDesc string = `Pin papers in place.

Pinned papers keep their canvas position and are skipped by automatic
layout. Papers can be named by id or by title, or use --all.

Examples:
  bibweb pin 1 2
  bibweb pin --all`

const pinShortDesc string = "Pin papers in place"

const unpinLongDesc string = `Unpin papers so automatic layout may move them again.

Examples:
  bibweb unpin "BERT"
  bibweb unpin --all`

const unpinShortDesc string = "Unpin papers"

type pinCommander struct {
	pinned bool
	all    bool
	flags  *cmdutil.WorkspaceFlags
}

func NewPinCmd() *cobra.Command {
	return newCmd(&pinCommander{pinned: true}, "pin", pinShortDesc, pinLongDesc)
}

func NewUnpinCmd() *cobra.Command {
	return newCmd(&pinCommander{pinned: false}, "unpin", unpinShortDesc, unpinLongDesc)
}

func newCmd(cmder *pinCommander, use, short, long string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " [paper]...",
		Short: short,
		Long:  long,
		Args: func(_ *cobra.Command, args []string) error {
			if cmder.all && len(args) > 0 {
				return errors.New("papers cannot be named together with --all")
			}
			if !cmder.all && len(args) == 0 {
				return errors.New("name at least one paper or use --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&cmder.all, "all", false, "Apply to every paper")
	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *pinCommander) run(cmd *cobra.Command, args []string) error {
	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	out := cmd.OutOrStdout()
	verb := "Unpinned"
	if c.pinned {
		verb = "Pinned"
	}

	if c.all {
		if err := ws.Store.SetAllPinned(c.pinned); err != nil {
			return err
		}
		papers, _ := ws.Store.Len()
		fmt.Fprintf(out, "  %s %s %d papers\n", cliui.SuccessMark, verb, papers)
		return nil
	}

	physics := !c.pinned
	patches := make([]graph.Patch, 0, len(args))
	for _, arg := range args {
		p, err := cmdutil.ResolvePaper(ws.Store, arg)
		if err != nil {
			return err
		}
		patches = append(patches, graph.Patch{ID: p.ID, Physics: &physics})
	}
	if err := ws.Store.UpdatePapers(patches); err != nil {
		return err
	}

	for _, patch := range patches {
		p, _ := ws.Store.Paper(patch.ID)
		fmt.Fprintf(out, "  %s %s %s\n", cliui.SuccessMark, verb, cliui.PaperLine(p))
	}
	return nil
}
