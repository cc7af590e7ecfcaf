package addcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	addcmder "github.com/Ben-Eze/BibWeb/cmd/bibweb/add"
	"github.com/Ben-Eze/BibWeb/cmd/bibweb/cmdtest"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

var _ = Describe("NewAddCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := addcmder.NewAddCmd()
		Expect(cmd.Use).To(Equal("add <title>"))
	})

	It("requires exactly one title", func() {
		cmd := addcmder.NewAddCmd()
		Expect(cmd.Args(cmd, []string{})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"a", "b"})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"a"})).To(Succeed())
	})

	It("registers the workspace flags", func() {
		cmd := addcmder.NewAddCmd()
		Expect(cmd.Flags().Lookup("assets-provider")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("snapshot")).NotTo(BeNil())
	})
})

var _ = Describe("Add command execution", func() {
	var ws *cmdtest.Workspace

	BeforeEach(func() {
		ws = cmdtest.Setup()
	})

	AfterEach(func() {
		ws.Teardown()
	})

	It("adds a paper with its details", func() {
		out, err := ws.Run(addcmder.NewAddCmd(), "Attention Is All You Need",
			"--authors", "Vaswani et al.",
			"--link", "https://arxiv.org/abs/1706.03762",
			"--color", "green",
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Added"))

		s := ws.Open()
		p, ok := s.Store.FindByTitle("attention is all you need")
		Expect(ok).To(BeTrue())
		Expect(p.Authors).To(Equal("Vaswani et al."))
		Expect(p.ColorID).To(Equal("green"))
		Expect(p.Type).To(Equal(paper.TypeURL))
	})

	It("merges into an existing paper instead of duplicating it", func() {
		_, err := ws.Run(addcmder.NewAddCmd(), "BERT", "--authors", "Devlin")
		Expect(err).NotTo(HaveOccurred())

		out, err := ws.Run(addcmder.NewAddCmd(), "  bert ", "--doi", "10.18653/v1/N19-1423")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Updated"))

		s := ws.Open()
		papers, _ := s.Store.Len()
		Expect(papers).To(Equal(1))
		p, _ := s.Store.FindByTitle("BERT")
		Expect(p.Authors).To(Equal("Devlin"))
		Expect(p.DOI).To(Equal("10.18653/v1/N19-1423"))
	})

	It("creates cited and citing papers", func() {
		_, err := ws.Run(addcmder.NewAddCmd(), "BERT",
			"--cites", "Attention Is All You Need",
			"--cited-by", "RoBERTa",
			"--label", "builds on",
		)
		Expect(err).NotTo(HaveOccurred())

		s := ws.Open()
		bert, _ := s.Store.FindByTitle("BERT")
		attention, ok := s.Store.FindByTitle("Attention Is All You Need")
		Expect(ok).To(BeTrue())
		roberta, ok := s.Store.FindByTitle("RoBERTa")
		Expect(ok).To(BeTrue())

		ref, ok := s.Store.ReferenceBetween(bert.ID, attention.ID)
		Expect(ok).To(BeTrue())
		Expect(ref.Label).To(Equal("builds on"))
		_, ok = s.Store.ReferenceBetween(roberta.ID, bert.ID)
		Expect(ok).To(BeTrue())
	})

	It("rejects an empty title", func() {
		_, err := ws.Run(addcmder.NewAddCmd(), "   ")
		Expect(err).To(HaveOccurred())
	})

	It("rejects unknown colors and types", func() {
		_, err := ws.Run(addcmder.NewAddCmd(), "X", "--color", "chartreuse")
		Expect(err).To(MatchError(ContainSubstring("unknown color")))

		_, err = ws.Run(addcmder.NewAddCmd(), "X", "--type", "podcast")
		Expect(err).To(MatchError(ContainSubstring("unknown paper type")))
	})
})
