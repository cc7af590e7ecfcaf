// Package refcmder provides the ref and unref commands, which add and remove
// references between papers.
package refcmder

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

const refLongDesc string = `Record that one paper references another.

Papers can be named by id or by title. When both are titles, missing
papers are created first, so a citation chain can be sketched before any
details are known. When either is an id, both papers must already exist.

A pair of papers holds at most one reference in each direction.

Examples:
  bibweb ref "BERT" "Attention Is All You Need"
  bibweb ref 3 1 --label "extends"`

const refShortDesc string = "Add a reference from one paper to another"

const unrefLongDesc string = `Remove the reference from one paper to another.

Examples:
  bibweb unref "BERT" "Attention Is All You Need"
  bibweb unref 3 1`

const unrefShortDesc string = "Remove a reference"

type refCommander struct {
	label string
	flags *cmdutil.WorkspaceFlags
}

func NewRefCmd() *cobra.Command {
	cmder := &refCommander{}

	cmd := &cobra.Command{
		Use:   "ref <from> <to>",
		Short: refShortDesc,
		Long:  refLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&cmder.label, "label", "", "Reference label")
	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *refCommander) run(cmd *cobra.Command, from, to string) error {
	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	var ref *paper.Reference
	if isID(from) || isID(to) {
		src, err := cmdutil.ResolvePaper(ws.Store, from)
		if err != nil {
			return err
		}
		dst, err := cmdutil.ResolvePaper(ws.Store, to)
		if err != nil {
			return err
		}
		ref, err = ws.Store.AddReference(src.ID, dst.ID, c.label)
		if err != nil {
			return err
		}
	} else {
		ref, err = ws.Store.Cite(from, to, c.label)
		if err != nil {
			return err
		}
	}

	printReference(cmd, ws, cliui.SuccessMark, *ref)
	return nil
}

type unrefCommander struct {
	flags *cmdutil.WorkspaceFlags
}

func NewUnrefCmd() *cobra.Command {
	cmder := &unrefCommander{}

	cmd := &cobra.Command{
		Use:   "unref <from> <to>",
		Short: unrefShortDesc,
		Long:  unrefLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0], args[1])
		},
	}

	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *unrefCommander) run(cmd *cobra.Command, from, to string) error {
	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	src, err := cmdutil.ResolvePaper(ws.Store, from)
	if err != nil {
		return err
	}
	dst, err := cmdutil.ResolvePaper(ws.Store, to)
	if err != nil {
		return err
	}

	ref, ok := ws.Store.ReferenceBetween(src.ID, dst.ID)
	if !ok {
		return fmt.Errorf("%q does not reference %q", src.Title, dst.Title)
	}
	if err := ws.Store.RemoveReference(ref.ID); err != nil {
		return err
	}

	printReference(cmd, ws, "-", *ref)
	return nil
}

func printReference(cmd *cobra.Command, ws *cmdutil.Workspace, mark string, ref paper.Reference) {
	from, _ := ws.Store.Paper(ref.From)
	to, _ := ws.Store.Paper(ref.To)
	line := fmt.Sprintf("  %s %s → %s", mark, cliui.PaperLine(from), cliui.PaperLine(to))
	if ref.Label != "" {
		line += cliui.StepStyle.Render(" (" + ref.Label + ")")
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
}

func isID(arg string) bool {
	_, err := strconv.Atoi(arg)
	return err == nil
}
