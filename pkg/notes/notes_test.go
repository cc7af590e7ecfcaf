package notes_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/notes"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

func titles(entries []notes.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Paper.Title
	}
	return out
}

var _ = Describe("Combine", func() {
	It("fails when nothing has notes", func() {
		snap := graph.Snapshot{Nodes: []paper.Paper{{ID: 1, Title: "A", Notes: "   "}}}
		_, err := notes.Combine(snap)
		Expect(err).To(MatchError(notes.ErrNoNotes))
	})

	It("walks from roots depth first with children by id", func() {
		snap := graph.Snapshot{
			Nodes: []paper.Paper{
				{ID: 1, Title: "Root", Notes: "r"},
				{ID: 2, Title: "Ten", Notes: "t"},
				{ID: 10, Title: "Two", Notes: "w"},
				{ID: 3, Title: "Grandchild", Notes: "g"},
				{ID: 4, Title: "Island", Notes: "i"},
				{ID: 5, Title: "Loop A", Notes: "la"},
				{ID: 6, Title: "Loop B", Notes: "lb"},
			},
			Edges: []paper.Reference{
				{From: 1, To: 10},
				{From: 1, To: 2},
				{From: 2, To: 3},
				{From: 5, To: 6},
				{From: 6, To: 5},
			},
		}

		entries := notes.Order(snap)
		Expect(titles(entries)).To(Equal([]string{"Root", "Ten", "Grandchild", "Two", "Island", "Loop A", "Loop B"}))
		Expect(entries[2].Depth).To(Equal(2))
	})

	It("skips papers without notes but still walks through them", func() {
		snap := graph.Snapshot{
			Nodes: []paper.Paper{
				{ID: 1, Title: "Silent"},
				{ID: 2, Title: "Child", Notes: "c"},
			},
			Edges: []paper.Reference{{From: 1, To: 2}},
		}
		entries := notes.Order(snap)
		Expect(titles(entries)).To(Equal([]string{"Child"}))
		Expect(entries[0].Depth).To(Equal(1))
	})

	It("renders metadata lines only when present", func() {
		snap := graph.Snapshot{Nodes: []paper.Paper{
			{ID: 1, Title: "A", Authors: "Ada", Link: "https://x", Notes: "Some *notes*"},
		}}
		out, err := notes.Combine(snap)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("# Combined Paper Notes\n\n" +
			"_____________________\n" +
			"#### A\n" +
			"**Authors:** Ada\n" +
			"**Link:** https://x\n" +
			"\n" +
			"Some *notes*\n\n"))
	})
})
