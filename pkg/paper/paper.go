// Package paper defines the records stored in a BibWeb graph: papers (nodes)
// and the references (directed edges) between them.
package paper

import (
	"math"
)

// Type classifies what a paper's link points at.
type Type string

const (
	TypeURL   Type = "paper-url"
	TypeFile  Type = "paper-file"
	TypeVideo Type = "video"

	// TypeLegacy is written by older snapshots and is still accepted on load.
	TypeLegacy Type = "paper"
)

// Valid reports whether t is one of the known paper types. The empty type is
// valid and means "unspecified".
func (t Type) Valid() bool {
	switch t {
	case "", TypeURL, TypeFile, TypeVideo, TypeLegacy:
		return true
	}
	return false
}

// Paper is a single node in the graph.
type Paper struct {
	// ID is unique among live papers and allocated by the graph store.
	ID int `json:"id"`

	// Title is the deduplication key, compared with NormalizeTitle.
	Title string `json:"title"`

	Nickname string `json:"nickname,omitempty"`
	Authors  string `json:"authors,omitempty"`
	DOI      string `json:"doi,omitempty"`

	// Link is either an absolute URL or an "assets/<name>" reference into
	// the blob store.
	Link  string `json:"link,omitempty"`
	Type  Type   `json:"type,omitempty"`
	Notes string `json:"notes,omitempty"`

	// X and Y are the last known canvas position. Nil until the layout
	// engine has placed the paper at least once.
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`

	// Physics false pins the paper in place. Nil means movable.
	Physics *bool `json:"physics,omitempty"`

	ColorID string `json:"colorId,omitempty"`
}

// Clone returns a deep copy of p.
func (p *Paper) Clone() *Paper {
	if p == nil {
		return nil
	}
	c := *p
	if p.X != nil {
		x := *p.X
		c.X = &x
	}
	if p.Y != nil {
		y := *p.Y
		c.Y = &y
	}
	if p.Physics != nil {
		ph := *p.Physics
		c.Physics = &ph
	}
	return &c
}

// Position returns the paper's persisted position, if it has a usable one.
func (p *Paper) Position() (Point, bool) {
	if p.X == nil || p.Y == nil {
		return Point{}, false
	}
	pt := Point{X: *p.X, Y: *p.Y}
	if !pt.Finite() {
		return Point{}, false
	}
	return pt, true
}

// SetPosition stores pt as the paper's position.
func (p *Paper) SetPosition(pt Point) {
	x, y := pt.X, pt.Y
	p.X = &x
	p.Y = &y
}

// Pinned reports whether the layout engine must leave the paper in place.
func (p *Paper) Pinned() bool {
	return p.Physics != nil && !*p.Physics
}

// SetPinned sets the physics flag. Pinned papers get physics=false.
func (p *Paper) SetPinned(pinned bool) {
	physics := !pinned
	p.Physics = &physics
}

// Color returns the paper's palette entry, falling back to the default color.
func (p *Paper) Color() Color {
	return ColorByID(p.ColorID)
}

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are real numbers.
func (pt Point) Finite() bool {
	return !math.IsNaN(pt.X) && !math.IsNaN(pt.Y) && !math.IsInf(pt.X, 0) && !math.IsInf(pt.Y, 0)
}

// Reference is a directed citation: From cites To.
type Reference struct {
	// ID is assigned by the graph store and is only used to address the
	// edge for label updates and removal.
	ID    string `json:"id,omitempty"`
	From  int    `json:"from"`
	To    int    `json:"to"`
	Label string `json:"label,omitempty"`
}

// Key returns the (from, to) pair that must be unique across references.
func (r Reference) Key() Pair {
	return Pair{From: r.From, To: r.To}
}

// Touches reports whether the reference has id as either endpoint.
func (r Reference) Touches(id int) bool {
	return r.From == id || r.To == id
}

// Pair is an ordered (from, to) node pair.
type Pair struct {
	From int
	To   int
}
