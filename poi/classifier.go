// Package poi maps raw nearby-POI tags onto canonical surrounding categories.
package poi

import "github.com/imkonsowa/paragourmet/policy"

// SurroundingSet is an ordered set of canonical categories. Order is the
// first occurrence in the classified input.
type SurroundingSet struct {
	labels []string
	index  map[string]struct{}
}

func NewSurroundingSet(labels ...string) SurroundingSet {
	s := SurroundingSet{index: make(map[string]struct{}, len(labels))}
	for _, l := range labels {
		s.add(l)
	}

	return s
}

func (s *SurroundingSet) add(label string) {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[label]; ok {
		return
	}
	s.index[label] = struct{}{}
	s.labels = append(s.labels, label)
}

func (s SurroundingSet) Has(label string) bool {
	_, ok := s.index[label]

	return ok
}

// HasAny reports whether at least one of labels is in the set.
func (s SurroundingSet) HasAny(labels ...string) bool {
	for _, l := range labels {
		if s.Has(l) {
			return true
		}
	}

	return false
}

func (s SurroundingSet) Len() int {
	return len(s.labels)
}

func (s SurroundingSet) Empty() bool {
	return len(s.labels) == 0
}

// Labels returns the categories in first-occurrence order.
func (s SurroundingSet) Labels() []string {
	return append([]string(nil), s.labels...)
}

type Classifier struct {
	synonyms map[string]string
}

func NewClassifier(synonyms map[string]string) *Classifier {
	table := make(map[string]string, len(synonyms))
	for k, v := range synonyms {
		key := Normalize(k)
		val := Normalize(v)
		if key == "" || val == "" {
			continue
		}
		table[key] = val
		// canonical labels map onto themselves so classification is idempotent
		if _, ok := table[val]; !ok {
			table[val] = val
		}
	}

	return &Classifier{synonyms: table}
}

// NewDefaultClassifier uses the compiled-in synonym table.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(policy.Default().Synonyms)
}

// Classify canonicalizes tags. Unknown tags are kept in normalized form so new
// OpenStreetMap vocabulary still reaches the prompt.
func (c *Classifier) Classify(tags []string) SurroundingSet {
	set := NewSurroundingSet()
	for _, tag := range tags {
		if label := c.Canonical(tag); label != "" {
			set.add(label)
		}
	}

	return set
}

// Canonical returns the category for a single tag, or "" if the tag is blank.
func (c *Classifier) Canonical(tag string) string {
	n := Normalize(tag)
	if n == "" {
		return ""
	}
	if canonical, ok := c.synonyms[n]; ok {
		return canonical
	}

	return n
}

// Normalize maps a raw tag onto its canonical spelling.
func Normalize(tag string) string {
	return policy.NormalizeLabel(tag)
}
