// Package addcmder provides the add command, which puts a paper into the
// web or merges new details into the paper with the same title.
package addcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

const addLongDesc string = `Add a paper to the web.

Titles are compared ignoring case, surrounding whitespace and Unicode
composition, so adding a paper that already exists merges the given
details into it instead of creating a duplicate. Empty flags never clear
existing details.

--cites and --cited-by connect the paper to others by title, creating
them when needed.

Examples:
  bibweb add "Attention Is All You Need" --authors "Vaswani et al." \
    --link https://arxiv.org/abs/1706.03762
  bibweb add "BERT" --cites "Attention Is All You Need" --color green`

const addShortDesc string = "Add a paper"

type addCommander struct {
	meta    paper.Metadata
	kind    string
	cites   []string
	citedBy []string
	label   string
	flags   *cmdutil.WorkspaceFlags
}

func NewAddCmd() *cobra.Command {
	cmder := &addCommander{}

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: addShortDesc,
		Long:  addLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&cmder.meta.Nickname, "nickname", "", "Short label shown on the canvas")
	cmd.Flags().StringVar(&cmder.meta.Authors, "authors", "", "Authors")
	cmd.Flags().StringVar(&cmder.meta.DOI, "doi", "", "DOI")
	cmd.Flags().StringVar(&cmder.meta.Link, "link", "", "URL or assets/<name> link")
	cmd.Flags().StringVar(&cmder.kind, "type", "", "Link type (paper-url, paper-file, video); inferred from --link when empty")
	cmd.Flags().StringVar(&cmder.meta.Notes, "notes", "", "Markdown notes")
	cmd.Flags().StringVar(&cmder.meta.ColorID, "color", "", "Palette color id")
	cmd.Flags().StringSliceVar(&cmder.cites, "cites", nil, "Titles this paper references")
	cmd.Flags().StringSliceVar(&cmder.citedBy, "cited-by", nil, "Titles that reference this paper")
	cmd.Flags().StringVar(&cmder.label, "label", "", "Label for the references created by --cites and --cited-by")
	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *addCommander) run(cmd *cobra.Command, title string) error {
	c.meta.Type = paper.Type(c.kind)
	if !c.meta.Type.Valid() {
		return fmt.Errorf("unknown paper type %q", c.kind)
	}
	if c.meta.ColorID != "" && !paper.IsColorID(c.meta.ColorID) {
		return fmt.Errorf("unknown color %q", c.meta.ColorID)
	}

	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	p, created, err := ws.Store.AddPaper(title, c.meta)
	if err != nil {
		return err
	}

	for _, cited := range c.cites {
		if _, err := ws.Store.Cite(p.Title, cited, c.label); err != nil {
			return fmt.Errorf("citing %q: %w", cited, err)
		}
	}
	for _, citing := range c.citedBy {
		if _, err := ws.Store.Cite(citing, p.Title, c.label); err != nil {
			return fmt.Errorf("cited by %q: %w", citing, err)
		}
	}

	verb := "Updated"
	if created {
		verb = "Added"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %s %s %s\n", cliui.SuccessMark, verb, cliui.PaperLine(p))
	return nil
}
