package paper_test

import (
	"encoding/json"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

var _ = Describe("Paper", func() {
	Describe("NormalizeTitle", func() {
		It("folds case and trims whitespace", func() {
			Expect(paper.NormalizeTitle("  Attention Is All You Need ")).To(Equal(paper.NormalizeTitle("attention is all you need")))
		})

		It("treats composed and decomposed forms as equal", func() {
			Expect(paper.NormalizeTitle("Cafe\u0301")).To(Equal(paper.NormalizeTitle("caf\u00e9")))
		})

		It("returns empty for whitespace-only titles", func() {
			Expect(paper.NormalizeTitle(" \t ")).To(BeEmpty())
		})
	})

	Describe("StripTags", func() {
		It("removes markup", func() {
			Expect(paper.StripTags("<b>Deep</b> Learning<script>x</script>")).To(Equal("Deep Learningx"))
		})

		It("leaves a lone angle bracket alone", func() {
			Expect(paper.StripTags("a < b")).To(Equal("a < b"))
		})
	})

	Describe("Metadata", func() {
		It("merges only non-empty fields", func() {
			p := &paper.Paper{ID: 1, Title: "P", Authors: "Ada", DOI: "10.1/x"}
			changed := paper.Metadata{Authors: "Grace", DOI: ""}.MergeInto(p)

			Expect(changed).To(BeTrue())
			Expect(p.Authors).To(Equal("Grace"))
			Expect(p.DOI).To(Equal("10.1/x"))
		})

		It("reports no change when nothing differs", func() {
			p := &paper.Paper{ID: 1, Title: "P", Authors: "Ada"}
			Expect(paper.Metadata{Authors: "Ada"}.MergeInto(p)).To(BeFalse())
		})

		It("sanitizes everything but notes", func() {
			m := paper.Metadata{Authors: " <i>Ada</i> ", Notes: "<b>kept</b>"}.Sanitize()
			Expect(m.Authors).To(Equal("Ada"))
			Expect(m.Notes).To(Equal("<b>kept</b>"))
		})
	})

	Describe("positions and physics", func() {
		It("has no position until one is set", func() {
			p := &paper.Paper{ID: 1, Title: "P"}
			_, ok := p.Position()
			Expect(ok).To(BeFalse())

			p.SetPosition(paper.Point{X: 100, Y: 200})
			pt, ok := p.Position()
			Expect(ok).To(BeTrue())
			Expect(pt).To(Equal(paper.Point{X: 100, Y: 200}))
		})

		It("rejects non-finite coordinates", func() {
			p := &paper.Paper{ID: 1, Title: "P"}
			p.SetPosition(paper.Point{X: math.NaN(), Y: 1})
			_, ok := p.Position()
			Expect(ok).To(BeFalse())
		})

		It("treats absent physics as movable", func() {
			p := &paper.Paper{ID: 1, Title: "P"}
			Expect(p.Pinned()).To(BeFalse())
			p.SetPinned(true)
			Expect(p.Pinned()).To(BeTrue())
			Expect(*p.Physics).To(BeFalse())
		})

		It("clones deeply", func() {
			p := &paper.Paper{ID: 1, Title: "P"}
			p.SetPosition(paper.Point{X: 1, Y: 2})
			c := p.Clone()
			*c.X = 50
			Expect(*p.X).To(Equal(1.0))
		})
	})

	Describe("JSON shape", func() {
		It("uses the snapshot field names", func() {
			p := &paper.Paper{ID: 1, Title: "P", ColorID: "red"}
			p.SetPosition(paper.Point{X: 100, Y: 200})
			p.SetPinned(true)

			raw, err := json.Marshal(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).To(MatchJSON(`{"id":1,"title":"P","x":100,"y":200,"physics":false,"colorId":"red"}`))
		})
	})

	Describe("links", func() {
		It("recognizes asset links", func() {
			Expect(paper.IsAssetLink("assets/paper.pdf")).To(BeTrue())
			Expect(paper.AssetName("assets/paper.pdf")).To(Equal("paper.pdf"))
			Expect(paper.AssetName("https://example.com/a.pdf")).To(BeEmpty())
			Expect(paper.IsAssetLink("assets/")).To(BeFalse())
			Expect(paper.AssetLink("x.pdf")).To(Equal("assets/x.pdf"))
		})

		It("infers types from links", func() {
			Expect(paper.InferType("")).To(Equal(paper.Type("")))
			Expect(paper.InferType("assets/a.pdf")).To(Equal(paper.TypeFile))
			Expect(paper.InferType("https://www.youtube.com/watch?v=dQw4w9WgXcQ")).To(Equal(paper.TypeVideo))
			Expect(paper.InferType("https://youtu.be/dQw4w9WgXcQ")).To(Equal(paper.TypeVideo))
			Expect(paper.InferType("https://arxiv.org/abs/1706.03762")).To(Equal(paper.TypeURL))
		})

		It("detects pdf links", func() {
			Expect(paper.IsPDFLink("https://example.com/paper.PDF")).To(BeTrue())
			Expect(paper.IsPDFLink("https://example.com/page")).To(BeFalse())
		})
	})

	Describe("palette", func() {
		It("falls back to blue", func() {
			Expect(paper.ColorByID("nope").ID).To(Equal(paper.DefaultColorID))
			Expect(paper.ColorByID("").ID).To(Equal("blue"))
			Expect(paper.ColorByID("dark-grey").Name).To(Equal("Dark Grey"))
			Expect(paper.IsColorID("purple")).To(BeTrue())
			Expect(paper.IsColorID("pink")).To(BeFalse())
		})
	})
})
