package assetcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

const listLongDesc string = `List stored assets.

Shows each asset's name, size, mime type and the papers linking to it.

Examples:
  bibweb asset ls`

const listShortDesc string = "List stored assets"

type listCommander struct {
	flags *cmdutil.WorkspaceFlags
}

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   listShortDesc,
		Long:    listLongDesc,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *listCommander) run(cmd *cobra.Command) error {
	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	infos, err := ws.Blobs.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, cliui.DimStyle.Render("No assets stored."))
		return nil
	}

	linkedBy := make(map[string][]*paper.Paper)
	for _, p := range ws.Store.Papers() {
		if name := paper.AssetName(p.Link); name != "" {
			linkedBy[name] = append(linkedBy[name], p)
		}
	}

	var total int64
	for _, info := range infos {
		total += info.Size
		fmt.Fprintf(out, "%s  %s  %s\n",
			cliui.KeyStyle.Render(info.Name),
			cliui.ValueStyle.Render(cliui.FormatBytes(info.Size)),
			cliui.DimStyle.Render(info.MimeType),
		)
		for _, p := range linkedBy[info.Name] {
			fmt.Fprintf(out, "    ← %s\n", cliui.PaperLine(p))
		}
	}

	fmt.Fprintf(out, "\n%s\n", cliui.DimStyle.Render(fmt.Sprintf("%d assets, %s", len(infos), cliui.FormatBytes(total))))
	return nil
}
