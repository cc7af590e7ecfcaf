package graph

import (
	"strings"

	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

// AllocateID returns the smallest positive id not used by a live paper.
func (s *Store) AllocateID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allocateIDLocked()
}

func (s *Store) allocateIDLocked() int {
	for id := 1; ; id++ {
		if _, used := s.papers[id]; !used {
			return id
		}
	}
}

// cleanTitle sanitizes a title and returns it with its normalized key.
func cleanTitle(raw string) (string, string, error) {
	title := strings.TrimSpace(paper.StripTags(raw))
	key := paper.NormalizeTitle(title)
	if key == "" {
		return "", "", ErrEmptyTitle
	}
	return title, key, nil
}

// resolveLocked finds the paper for title or creates it. An existing paper
// gets the non-empty fields of meta merged in. The caller holds mu.
func (s *Store) resolveLocked(title string, meta paper.Metadata) (p *paper.Paper, created, changed bool, err error) {
	clean, key, err := cleanTitle(title)
	if err != nil {
		return nil, false, false, err
	}
	meta = meta.Sanitize()

	if id, ok := s.titles[key]; ok {
		existing := s.papers[id]
		return existing, false, meta.MergeInto(existing), nil
	}

	if meta.Type == "" {
		meta.Type = paper.InferType(meta.Link)
	}
	p = &paper.Paper{
		ID:    s.allocateIDLocked(),
		Title: clean,
	}
	meta.MergeInto(p)

	s.papers[p.ID] = p
	s.titles[key] = p.ID
	return p, true, true, nil
}
