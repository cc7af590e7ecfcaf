package assetcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

const addLongDesc string = `Store a file in the asset store.

The file keeps its base name unless another asset already uses it, in
which case a numbered name is chosen ("paper (1).pdf"). Storing a file
identical to an existing asset reuses that asset.

With --paper the paper's link is pointed at the stored asset.

Examples:
  bibweb asset add ~/Downloads/1706.03762.pdf
  bibweb asset add notes.pdf --paper "Attention Is All You Need"`

const addShortDesc string = "Store a file"

type addCommander struct {
	paper string
	flags *cmdutil.WorkspaceFlags
}

func newAddCmd() *cobra.Command {
	cmder := &addCommander{}

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: addShortDesc,
		Long:  addLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&cmder.paper, "paper", "", "Link the stored asset from this paper (id or title)")
	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *addCommander) run(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	var target *paper.Paper
	if c.paper != "" {
		target, err = cmdutil.ResolvePaper(ws.Store, c.paper)
		if err != nil {
			return err
		}
	}

	a := blob.NewAsset(filepath.Base(path), data, "")
	var name string
	err = cliui.Step(cmd.OutOrStdout(), "Storing "+a.Name, func() error {
		var err error
		name, err = ws.Registrar.Register(cmd.Context(), a, blob.ReuseIdentical())
		return err
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  %s %s %s\n", cliui.KeyStyle.Render(paper.AssetLink(name)),
		cliui.DimStyle.Render(cliui.FormatBytes(a.Size)), cliui.DimStyle.Render(a.MimeType))

	if target == nil {
		return nil
	}

	link := paper.AssetLink(name)
	kind := paper.TypeFile
	if err := ws.Store.UpdatePaper(graph.Patch{ID: target.ID, Link: &link, Type: &kind}); err != nil {
		return err
	}
	target, _ = ws.Store.Paper(target.ID)
	fmt.Fprintf(out, "  %s Linked from %s\n", cliui.SuccessMark, cliui.PaperLine(target))
	return nil
}
