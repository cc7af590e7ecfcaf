// Package notescmder provides the notes command, which combines the notes
// of every paper into one markdown document.
package notescmder

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
	"github.com/Ben-Eze/BibWeb/pkg/notes"
)

const notesLongDesc string = `Combine paper notes into one markdown document.

Papers are ordered so that a paper comes after the papers it references,
and each paper's notes appear under a heading with its title, authors and
link. Papers without notes are left out.

The document is rendered for the terminal when stdout is one; use --raw
for the markdown source or --output to write it to a file.

Examples:
  bibweb notes
  bibweb notes --output reading-notes.md`

const notesShortDesc string = "Combine paper notes into markdown"

type notesCommander struct {
	raw    bool
	output string
	flags  *cmdutil.WorkspaceFlags
}

func NewNotesCmd() *cobra.Command {
	cmder := &notesCommander{}

	cmd := &cobra.Command{
		Use:   "notes",
		Short: notesShortDesc,
		Long:  notesLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print markdown source even on a terminal")
	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "Write the markdown to this file")
	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *notesCommander) run(cmd *cobra.Command) error {
	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	out := cmd.OutOrStdout()

	doc, err := notes.Combine(ws.Bundler.Snapshot())
	if errors.Is(err, notes.ErrNoNotes) {
		fmt.Fprintln(out, cliui.DimStyle.Render("No papers have notes yet."))
		return nil
	}
	if err != nil {
		return err
	}

	if c.output != "" {
		if err := os.WriteFile(c.output, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", c.output, err)
		}
		fmt.Fprintf(out, "  %s Wrote %s\n", cliui.SuccessMark, c.output)
		return nil
	}

	if c.raw || !cliui.IsTerminal(out) {
		fmt.Fprint(out, doc)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(doc)
	if err != nil {
		ws.Logger.Debug("markdown rendering failed, printing source")
		fmt.Fprint(out, doc)
		return nil
	}
	fmt.Fprint(out, rendered)
	return nil
}
