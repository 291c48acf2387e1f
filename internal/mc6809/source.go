package mc6809

import (
	"path/filepath"
	"strings"

	"github.com/keurnel/m6809asm/internal/lineMap"
)

// ExpandedLine is one line of the fully INCLUDE-expanded source, still
// tagged with the file it actually came from so diagnostics can cite the
// original location instead of a synthetic line number in the merged
// stream.
type ExpandedLine struct {
	Text       string
	SourceFile string
	SourceLine int
}

// ExpandIncludes reads path and recursively substitutes every
// `INCLUDE "child"` line with child's own (recursively expanded) lines,
// detecting cycles by comparing cleaned absolute paths. It is the only
// collaborator that touches the filesystem before pass 1.
func ExpandIncludes(path string) ([]ExpandedLine, error) {
	return expandFile(path, map[string]bool{})
}

func expandFile(path string, visiting map[string]bool) ([]ExpandedLine, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	abs = filepath.Clean(abs)

	if visiting[abs] {
		return nil, NewError(IncludeCycle, 0, "INCLUDE cycle detected at %q", path)
	}
	visiting[abs] = true
	defer delete(visiting, abs)

	src, err := lineMap.LoadSource(path)
	if err != nil {
		return nil, NewError(IOError, 0, "cannot read %q: %v", path, err)
	}

	var out []ExpandedLine
	rawLines := strings.Split(src.Content(), "\n")
	for i, raw := range rawLines {
		lineNo := i + 1
		if childPath, ok := includeDirective(raw); ok {
			resolved := childPath
			if !filepath.IsAbs(resolved) {
				resolved = filepath.Join(filepath.Dir(path), resolved)
			}
			childLines, err := expandFile(resolved, visiting)
			if err != nil {
				if ae, ok := err.(*AssemblyError); ok && ae.Kind == IncludeCycle {
					return nil, NewError(IncludeCycle, lineNo, "INCLUDE cycle detected: %q includes %q", path, childPath)
				}
				return nil, err
			}
			out = append(out, childLines...)
			continue
		}
		out = append(out, ExpandedLine{Text: raw, SourceFile: path, SourceLine: lineNo})
	}
	return out, nil
}

// includeDirective reports whether raw is an `INCLUDE "path"` line (case
// insensitive on the mnemonic), returning the quoted path.
func includeDirective(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	fields := strings.Fields(trimmed)
	// An INCLUDE line may or may not carry a label; since INCLUDE is never
	// itself labelled in practice, only accept it as the first token.
	if len(fields) < 2 || !strings.EqualFold(fields[0], "INCLUDE") {
		return "", false
	}
	rest := strings.TrimSpace(trimmed[len(fields[0]):])
	rest = strings.TrimSpace(rest)
	if len(rest) < 2 || rest[0] != '"' {
		return "", false
	}
	end := strings.IndexByte(rest[1:], '"')
	if end < 0 {
		return "", false
	}
	return rest[1 : 1+end], true
}
