package diagnostic

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Diagnostic is a single fact about a target: a log file, a crash report, a
// captured artifact. At least one of Path and Content is populated; which one
// depends on the format the diagnostic currently carries.
type Diagnostic struct {
	ShortName string `json:"short_name"`
	Path      string `json:"path,omitempty"`
	Content   []byte `json:"content,omitempty"`
}

// HasContent reports whether the diagnostic carries materialized bytes.
func (d Diagnostic) HasContent() bool { return len(d.Content) > 0 }

// Query filters a diagnostics snapshot. The zero query matches everything;
// populated fields narrow the match conjunctively.
type Query struct {
	// Names restricts matches to diagnostics whose ShortName is listed.
	Names []string `json:"names,omitempty"`
	// PathContains restricts matches to diagnostics whose Path contains the
	// given substring.
	PathContains string `json:"path_contains,omitempty"`
}

// Matches reports whether the diagnostic satisfies the query.
func (q Query) Matches(d Diagnostic) bool {
	if len(q.Names) > 0 {
		found := false
		for _, name := range q.Names {
			if name == d.ShortName {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.PathContains != "" && !strings.Contains(d.Path, q.PathContains) {
		return false
	}
	return true
}

// Filter returns the diagnostics from the snapshot matching the query,
// preserving order. The snapshot itself is never modified.
func (q Query) Filter(snapshot []Diagnostic) []Diagnostic {
	var matched []Diagnostic
	for _, d := range snapshot {
		if q.Matches(d) {
			matched = append(matched, d)
		}
	}
	return matched
}

// Format selects the output transform applied to each matched diagnostic.
type Format string

const (
	// FormatCurrent leaves the diagnostic unmodified.
	FormatCurrent Format = "current"
	// FormatContent materializes the diagnostic's bytes in memory.
	FormatContent Format = "content"
	// FormatPath materializes the diagnostic to a file and carries its path.
	FormatPath Format = "path"
)

// Validate reports whether the format is one of the known transforms. The
// empty format is treated as FormatCurrent by Apply.
func (f Format) Validate() error {
	switch f {
	case "", FormatCurrent, FormatContent, FormatPath:
		return nil
	}
	return fmt.Errorf("unknown diagnostic format %q", f)
}

// Apply transforms a single diagnostic per the format. dir is the directory
// used for FormatPath materialization; when empty the system temp directory
// is used. The input diagnostic is returned unchanged for FormatCurrent and
// never mutated otherwise.
func (f Format) Apply(d Diagnostic, dir string) (Diagnostic, error) {
	switch f {
	case "", FormatCurrent:
		return d, nil
	case FormatContent:
		return materializeContent(d)
	case FormatPath:
		return materializePath(d, dir)
	}
	return Diagnostic{}, fmt.Errorf("unknown diagnostic format %q", f)
}

// ApplyAll transforms every diagnostic in the slice, failing on the first
// transform error.
func (f Format) ApplyAll(diagnostics []Diagnostic, dir string) ([]Diagnostic, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	out := make([]Diagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		transformed, err := f.Apply(d, dir)
		if err != nil {
			return nil, err
		}
		out = append(out, transformed)
	}
	return out, nil
}

func materializeContent(d Diagnostic) (Diagnostic, error) {
	if d.HasContent() {
		return d, nil
	}
	if d.Path == "" {
		return Diagnostic{}, fmt.Errorf("diagnostic %q has no path to read", d.ShortName)
	}
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return Diagnostic{}, fmt.Errorf("failed to read diagnostic %q: %w", d.ShortName, err)
	}
	return Diagnostic{ShortName: d.ShortName, Path: d.Path, Content: data}, nil
}

func materializePath(d Diagnostic, dir string) (Diagnostic, error) {
	if d.Path != "" && !d.HasContent() {
		// Already file-backed; the path is the materialization.
		return d, nil
	}
	if !d.HasContent() {
		return Diagnostic{}, fmt.Errorf("diagnostic %q has no content to write", d.ShortName)
	}
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Diagnostic{}, fmt.Errorf("failed to create diagnostic directory: %w", err)
	}
	path := filepath.Join(dir, d.ShortName)
	if err := os.WriteFile(path, d.Content, 0o644); err != nil {
		return Diagnostic{}, fmt.Errorf("failed to write diagnostic %q: %w", d.ShortName, err)
	}
	return Diagnostic{ShortName: d.ShortName, Path: path}, nil
}
