package resources

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ManifestEntry is one "name filename" line of the shader manifest.
type ManifestEntry struct {
	Name string
	File string
}

// ParseManifest reads "name filename" pairs separated by whitespace. Blank
// lines and lines starting with # are skipped.
func ParseManifest(lines []string) ([]ManifestEntry, error) {
	entries := make([]ManifestEntry, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, errors.Newf("manifest line %d: want \"name filename\", got %q", i+1, line)
		}
		if seen[fields[0]] {
			return nil, errors.Newf("manifest line %d: duplicate shader %q", i+1, fields[0])
		}
		seen[fields[0]] = true
		entries = append(entries, ManifestEntry{Name: fields[0], File: fields[1]})
	}
	return entries, nil
}
