package statuscmder_test

import (
	"context"
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdtest"
	statuscmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/status"
	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/dotdir"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
	"github.com/Ben-Eze/BibWeb/pkg/session"
)

var _ = Describe("NewStatusCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := statuscmder.NewStatusCmd()
		Expect(cmd.Use).To(Equal("status"))
	})

	It("rejects any arguments", func() {
		cmd := statuscmder.NewStatusCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})
})

var _ = Describe("Status command execution", func() {
	var ws *cmdtest.Workspace

	BeforeEach(func() {
		ws = cmdtest.Setup()
	})

	AfterEach(func() {
		ws.Teardown()
	})

	It("runs on an empty workspace", func() {
		out, err := ws.Run(statuscmder.NewStatusCmd())
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Papers:"))
		Expect(out).To(ContainSubstring("none yet"))
	})

	It("reports counts, assets, missing links and the last backup", func() {
		ws.Seed(func(s *session.Session) {
			_, err := s.Registrar.Register(context.Background(), blob.NewAsset("a.pdf", []byte("%PDF a"), ""))
			Expect(err).NotTo(HaveOccurred())
			_, _, err = s.Store.AddPaper("Has File", paper.Metadata{Link: "assets/a.pdf"})
			Expect(err).NotTo(HaveOccurred())
			_, _, err = s.Store.AddPaper("Lost File", paper.Metadata{Link: "assets/gone.pdf"})
			Expect(err).NotTo(HaveOccurred())
		})
		Expect(dotdir.NewManager().SaveBackupState(&dotdir.BackupState{
			LastBackupAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			Path:         "/backups/paper-web-20260102-030405.zip",
			Format:       "zip",
		}, ws.Dir)).To(Succeed())

		out, err := ws.Run(statuscmder.NewStatusCmd(), "--json")
		Expect(err).NotTo(HaveOccurred())

		var got struct {
			Papers int `json:"papers"`
			Assets struct {
				Count   int               `json:"count"`
				Missing map[string]string `json:"missing"`
			} `json:"assets"`
			Backup *dotdir.BackupState `json:"backup"`
		}
		Expect(json.Unmarshal([]byte(out), &got)).To(Succeed())
		Expect(got.Papers).To(Equal(2))
		Expect(got.Assets.Count).To(Equal(1))
		Expect(got.Assets.Missing).To(HaveLen(1))
		Expect(got.Assets.Missing).To(ContainElement("gone.pdf"))
		Expect(got.Backup).NotTo(BeNil())
		Expect(got.Backup.Format).To(Equal("zip"))
	})

	It("warns about missing assets in the text report", func() {
		ws.Seed(func(s *session.Session) {
			_, _, err := s.Store.AddPaper("Lost File", paper.Metadata{Link: "assets/gone.pdf"})
			Expect(err).NotTo(HaveOccurred())
		})

		out, err := ws.Run(statuscmder.NewStatusCmd())
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Lost File links missing asset gone.pdf"))
	})
})
