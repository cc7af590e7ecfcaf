// Package notes gathers the notes of every paper into one markdown document,
// ordered by following references from the papers nothing cites.
package notes

import (
	"errors"
	"sort"
	"strings"

	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

// ErrNoNotes is returned when no paper has notes.
var ErrNoNotes = errors.New("no papers have notes to combine")

const (
	heading   = "# Combined Paper Notes"
	separator = "_____________________"
)

// Entry is one paper in reading order.
type Entry struct {
	Paper *paper.Paper

	// Depth is the distance from the root the paper was reached from.
	Depth int
}

// Order returns the papers that have notes in depth-first order starting at
// every root (a paper without incoming references), visiting children by
// ascending id. Papers not reachable from a root follow, by id.
func Order(snap graph.Snapshot) []Entry {
	byID := make(map[int]*paper.Paper, len(snap.Nodes))
	ids := make([]int, 0, len(snap.Nodes))
	for i := range snap.Nodes {
		byID[snap.Nodes[i].ID] = &snap.Nodes[i]
		ids = append(ids, snap.Nodes[i].ID)
	}
	sort.Ints(ids)

	children := make(map[int][]int)
	cited := make(map[int]bool)
	for _, e := range snap.Edges {
		children[e.From] = append(children[e.From], e.To)
		cited[e.To] = true
	}
	for _, c := range children {
		sort.Ints(c)
	}

	var out []Entry
	visited := make(map[int]bool, len(ids))

	var visit func(id, depth int)
	visit = func(id, depth int) {
		if visited[id] {
			return
		}
		visited[id] = true
		if p, ok := byID[id]; ok && hasNotes(p) {
			out = append(out, Entry{Paper: p, Depth: depth})
		}
		for _, child := range children[id] {
			visit(child, depth+1)
		}
	}

	for _, id := range ids {
		if !cited[id] {
			visit(id, 0)
		}
	}
	for _, id := range ids {
		if p := byID[id]; !visited[id] && hasNotes(p) {
			out = append(out, Entry{Paper: p})
		}
	}
	return out
}

func hasNotes(p *paper.Paper) bool {
	return strings.TrimSpace(p.Notes) != ""
}

// Combine renders the notes of snap as a single markdown document.
func Combine(snap graph.Snapshot) (string, error) {
	entries := Order(snap)
	if len(entries) == 0 {
		return "", ErrNoNotes
	}

	var b strings.Builder
	b.WriteString(heading + "\n\n")
	for _, e := range entries {
		p := e.Paper
		b.WriteString(separator + "\n")
		b.WriteString("#### " + p.Title + "\n")
		if p.Authors != "" {
			b.WriteString("**Authors:** " + p.Authors + "\n")
		}
		if p.DOI != "" {
			b.WriteString("**DOI:** " + p.DOI + "\n")
		}
		if p.Link != "" {
			b.WriteString("**Link:** " + p.Link + "\n")
		}
		b.WriteString("\n")
		b.WriteString(p.Notes)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}
