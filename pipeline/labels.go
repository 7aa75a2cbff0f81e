package pipeline

import (
	"os"
	"strings"

	"golang.org/x/xerrors"
)

// LoadLabels reads a class-names file (one label per line, e.g. coco.names).
func LoadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("reading labels file %s: %w", path, err)
	}

	labels := ParseLabels(string(data))
	if len(labels) == 0 {
		return nil, xerrors.Errorf("labels file %s is empty", path)
	}
	return labels, nil
}

// ParseLabels keeps line order so that line N maps to class index N.
func ParseLabels(data string) []string {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(data), "\n")

	labels := make([]string, 0, len(lines))
	for _, line := range lines {
		labels = append(labels, strings.TrimSpace(line))
	}
	if len(labels) == 1 && labels[0] == "" {
		return nil
	}
	return labels
}
