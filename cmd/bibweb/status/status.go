// Package statuscmder provides the status command for displaying the state
// of the current .bibweb workspace.
package statuscmder

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdutil"
	"github.com/Ben-Eze/BibWeb/pkg/cliui"
	"github.com/Ben-Eze/BibWeb/pkg/dotdir"
	"github.com/Ben-Eze/BibWeb/pkg/session"
	"github.com/Ben-Eze/BibWeb/pkg/utils"
)

const statusLongDesc string = `Show the workspace status.

Reads the local .bibweb/ directory (or ~/.bibweb/) and reports the number
of papers and references, how much of the snapshot quota is used, the
asset store with any paper links it cannot resolve, and the last backup
written by "bibweb serve".

Examples:
  bibweb status
  bibweb status --json`

const statusShortDesc string = "Show workspace status"

type statusCommander struct {
	jsonOut bool
	flags   *cmdutil.WorkspaceFlags
}

// report is the --json document.
type report struct {
	*session.Status
	Backup *dotdir.BackupState `json:"backup,omitempty"`
}

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print status as JSON")
	cmder.flags = cmdutil.AddWorkspaceFlags(cmd)

	return cmd
}

func (c *statusCommander) run(cmd *cobra.Command) error {
	ws, err := cmdutil.Open(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	st, err := ws.Status(cmd.Context())
	if err != nil {
		return err
	}

	backup, err := dotdir.NewManager().LoadBackupState(ws.ConfigDir)
	if err != nil {
		return fmt.Errorf("loading backup state: %w", err)
	}

	out := cmd.OutOrStdout()
	if c.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report{Status: st, Backup: backup})
	}

	printStatus(out, ws, st, backup)
	return nil
}

func row(out io.Writer, key, value string) {
	fmt.Fprintf(out, "  %s  %s\n", cliui.KeyStyle.Render(fmt.Sprintf("%-11s", key)), cliui.ValueStyle.Render(value))
}

func printStatus(out io.Writer, ws *cmdutil.Workspace, st *session.Status, backup *dotdir.BackupState) {
	fmt.Fprintln(out)
	row(out, "Workspace:", st.Dir)
	row(out, "Papers:", strconv.Itoa(st.Papers))
	row(out, "References:", strconv.Itoa(st.References))

	storage := fmt.Sprintf("%s of %s", cliui.FormatBytes(st.Storage.Used), cliui.FormatBytes(st.Storage.Quota))
	if st.Storage.Path != "" {
		storage += cliui.DimStyle.Render("  " + st.Storage.Path)
	}
	row(out, "Snapshot:", storage)
	if st.Storage.Exceeded {
		fmt.Fprintf(out, "  %s The last save did not fit the quota; export to keep a copy.\n", cliui.WarnMark)
	}

	row(out, "Assets:", fmt.Sprintf("%d (%s) via %s", st.Assets.Count, cliui.FormatBytes(st.Assets.Bytes), st.Assets.Provider))

	ids := make([]int, 0, len(st.Assets.Missing))
	for id := range st.Assets.Missing {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		title := strconv.Itoa(id)
		if p, ok := ws.Store.Paper(id); ok {
			title = utils.Truncate(p.Title, 48)
		}
		fmt.Fprintf(out, "  %s %s links missing asset %s\n", cliui.WarnMark, title, st.Assets.Missing[id])
	}

	if backup == nil {
		row(out, "Backup:", cliui.DimStyle.Render("none yet"))
	} else {
		line := backup.LastBackupAt.Local().Format("2006-01-02 15:04:05") + "  " + backup.Path
		row(out, "Backup:", line)
		if backup.Failures > 0 {
			fmt.Fprintf(out, "  %s %d failed attempts since\n", cliui.WarnMark, backup.Failures)
		}
	}
	fmt.Fprintln(out)
}
