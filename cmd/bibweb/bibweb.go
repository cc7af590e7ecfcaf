// Package bibwebcmder
package bibwebcmder

import (
	"github.com/spf13/cobra"

	addcmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/add"
	assetcmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/asset"
	clearcmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/clear"
	configcmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/config"
	editcmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/edit"
	exportcmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/export"
	importcmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/import"
	initcmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/init"
	listcmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/list"
	notescmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/notes"
	pincmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/pin"
	refcmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/ref"
	rmcmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/rm"
	servecmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/serve"
	statuscmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/status"
	versioncmder "github.com/Ben-Eze/BibWeb/cmd/version"
)

const bibwebLongDesc string = `BibWeb keeps a web of research papers and the references between them.

Papers are deduplicated by title, placed on a canvas and saved to the
.bibweb/ directory after every change. Attached PDFs and other files live in
a pluggable asset store and travel with the graph in ZIP exports.

Common commands:
  bibweb add "Attention Is All You Need" --link https://arxiv.org/abs/1706.03762
  bibweb ref "BERT" "Attention Is All You Need"
  bibweb list
  bibweb export
  bibweb serve`

const bibwebShortDesc string = "BibWeb - a web of papers"

func NewBibWebCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bibweb",
		Short:         bibwebShortDesc,
		Long:          bibwebLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .bibweb directory")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(addcmder.NewAddCmd())
	cmd.AddCommand(refcmder.NewRefCmd())
	cmd.AddCommand(refcmder.NewUnrefCmd())
	cmd.AddCommand(rmcmder.NewRmCmd())
	cmd.AddCommand(editcmder.NewEditCmd())
	cmd.AddCommand(listcmder.NewListCmd())
	cmd.AddCommand(pincmder.NewPinCmd())
	cmd.AddCommand(pincmder.NewUnpinCmd())
	cmd.AddCommand(clearcmder.NewClearCmd())
	cmd.AddCommand(exportcmder.NewExportCmd())
	cmd.AddCommand(importcmder.NewImportCmd())
	cmd.AddCommand(assetcmder.NewAssetCmd())
	cmd.AddCommand(notescmder.NewNotesCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
