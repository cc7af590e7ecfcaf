package paper

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	tagPattern = regexp.MustCompile(`<[^>]*>`)

	titleFolder = cases.Fold()
)

// StripTags removes anything that looks like a markup tag from s.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return tagPattern.ReplaceAllString(s, "")
}

// NormalizeTitle returns the comparison key for a title: NFC normalized,
// trimmed and case folded. Two papers may not share a normalized title.
func NormalizeTitle(title string) string {
	t := strings.TrimSpace(norm.NFC.String(title))
	if t == "" {
		return ""
	}
	return titleFolder.String(t)
}

// Metadata is the user supplied part of a paper. Empty fields mean "not
// provided" and never erase an existing value when merged.
type Metadata struct {
	Nickname string
	Authors  string
	DOI      string
	Link     string
	Type     Type
	Notes    string
	ColorID  string
}

// Sanitize strips tags from every free-text field except Notes, which is
// markdown and stored verbatim, and trims surrounding whitespace.
func (m Metadata) Sanitize() Metadata {
	return Metadata{
		Nickname: strings.TrimSpace(StripTags(m.Nickname)),
		Authors:  strings.TrimSpace(StripTags(m.Authors)),
		DOI:      strings.TrimSpace(StripTags(m.DOI)),
		Link:     strings.TrimSpace(StripTags(m.Link)),
		Type:     Type(strings.TrimSpace(StripTags(string(m.Type)))),
		Notes:    m.Notes,
		ColorID:  strings.TrimSpace(m.ColorID),
	}
}

// MergeInto copies every non-empty field of m onto p. It reports whether
// anything changed.
func (m Metadata) MergeInto(p *Paper) bool {
	changed := false
	set := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}

	set(&p.Nickname, m.Nickname)
	set(&p.Authors, m.Authors)
	set(&p.DOI, m.DOI)
	set(&p.Link, m.Link)
	set(&p.Notes, m.Notes)
	set(&p.ColorID, m.ColorID)
	if m.Type != "" && p.Type != m.Type {
		p.Type = m.Type
		changed = true
	}

	return changed
}
