// Package editcmder provides the edit command, which overwrites individual
// fields of an existing paper.
package editcmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

const editLongDesc string = `Edit a paper.

Only the flags given are changed, and unlike "bibweb add" an empty value
clears the field. Renaming to a title another paper already has fails.

--x and --y move the paper on the canvas and must be given together.

Examples:
  bibweb edit 2 --nickname "Transformer"
  bibweb edit "BERT" --doi "" --color purple
  bibweb edit 2 --x 120 --y -40`

const editShortDesc string = "Edit a paper"

type editCommander struct {
	title    string
	nickname string
	authors  string
	doi      string
	link     string
	kind     string
	notes    string
	color    string
	x, y     float64
	flags    *cmdutil.WorkspaceFlags
}

func NewEditCmd() *cobra.Command {
	cmder := &editCommander{}

	cmd := &cobra.Command{
		Use:   "edit <paper>",
		Short: editShortDesc,
		Long:  editLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&cmder.title, "title", "", "New title")
	cmd.Flags().StringVar(&cmder.nickname, "nickname", "", "Short label shown on the canvas")
	cmd.Flags().StringVar(&cmder.authors, "authors", "", "Authors")
	cmd.Flags().StringVar(&cmder.doi, "doi", "", "DOI")
	cmd.Flags().StringVar(&cmder.link, "link", "", "URL or assets/<name> link")
	cmd.Flags().StringVar(&cmder.kind, "type", "", "Link type (paper-url, paper-file, video)")
	cmd.Flags().StringVar(&cmder.notes, "notes", "", "Markdown notes")
	cmd.Flags().StringVar(&cmder.color, "color", "", "Palette color id")
	cmd.Flags().Float64Var(&cmder.x, "x", 0, "Canvas x coordinate")
	cmd.Flags().Float64Var(&cmder.y, "y", 0, "Canvas y coordinate")
	cmd.MarkFlagsRequiredTogether("x", "y")
	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *editCommander) patch(cmd *cobra.Command, id int) (graph.Patch, error) {
	patch := graph.Patch{ID: id}
	changed := cmd.Flags().Changed

	str := func(name string, v *string) *string {
		if changed(name) {
			return v
		}
		return nil
	}
	patch.Title = str("title", &c.title)
	patch.Nickname = str("nickname", &c.nickname)
	patch.Authors = str("authors", &c.authors)
	patch.DOI = str("doi", &c.doi)
	patch.Link = str("link", &c.link)
	patch.Notes = str("notes", &c.notes)
	patch.ColorID = str("color", &c.color)

	if changed("type") {
		t := paper.Type(c.kind)
		if !t.Valid() {
			return patch, fmt.Errorf("unknown paper type %q", c.kind)
		}
		patch.Type = &t
	}
	if c.color != "" && !paper.IsColorID(c.color) {
		return patch, fmt.Errorf("unknown color %q", c.color)
	}
	if changed("x") {
		patch.Position = &paper.Point{X: c.x, Y: c.y}
	}

	return patch, nil
}

func (c *editCommander) run(cmd *cobra.Command, arg string) error {
	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	p, err := cmdutil.ResolvePaper(ws.Store, arg)
	if err != nil {
		return err
	}

	patch, err := c.patch(cmd, p.ID)
	if err != nil {
		return err
	}
	if err := ws.Store.UpdatePaper(patch); err != nil {
		if errors.Is(err, graph.ErrDuplicateTitle) {
			return fmt.Errorf("cannot rename to %q: %w", c.title, err)
		}
		return err
	}

	p, _ = ws.Store.Paper(p.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "  %s Updated %s\n", cliui.SuccessMark, cliui.PaperLine(p))
	return nil
}
