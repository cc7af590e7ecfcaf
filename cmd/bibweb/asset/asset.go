// Package assetcmder provides the asset command for managing the files
// papers link to with "assets/<name>" links.
package assetcmder

import (
	"github.com/spf13/cobra"
)

const assetLongDesc string = `Manage stored assets.

Assets are the PDFs, videos and other files attached to papers. They live
in the configured asset store (a directory, SQLite, PostgreSQL or an S3
bucket) and papers refer to them with links of the form assets/<name>.

Use subcommands to manage assets:
  bibweb asset add <file> [--paper <paper>]   Store a file
  bibweb asset ls                             List stored assets
  bibweb asset get <name> [-o path]           Write an asset to disk
  bibweb asset rm <name>...                   Delete assets
  bibweb asset prune [--dry-run]              Delete assets no paper links to`

const assetShortDesc string = "Manage stored assets"

func NewAssetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: assetShortDesc,
		Long:  assetLongDesc,
	}

	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newRmCmd())
	cmd.AddCommand(newPruneCmd())

	return cmd
}
