package pipeline

import (
	"strings"

	"github.com/khaledhikmat/vs-defect/model"
)

// Labels returns one label per detection, in model order, duplicates included.
func Labels(detections []model.Detection) []string {
	labels := make([]string, 0, len(detections))
	for _, d := range detections {
		labels = append(labels, d.Label)
	}
	return labels
}

// Dedup removes repeated labels keeping the first occurrence.
func Dedup(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// KeywordSet is the fixed list of class names that mark an image as defective.
type KeywordSet map[string]struct{}

func NewKeywordSet(words ...string) KeywordSet {
	set := make(KeywordSet, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// Matches reports whether any label is a keyword. Matching is exact.
func (k KeywordSet) Matches(labels []string) bool {
	for _, l := range labels {
		if _, ok := k[l]; ok {
			return true
		}
	}
	return false
}

func (k KeywordSet) Words() []string {
	words := make([]string, 0, len(k))
	for w := range k {
		words = append(words, w)
	}
	return words
}
