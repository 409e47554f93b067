package galengine

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"
)

// Path containment errors. Both are reported to callers as invalid input;
// the attempted path is never included in a response.
var (
	ErrInvalidPath   = errors.New("invalid path")
	ErrPathTraversal = errors.New("path escapes its root")
)

// maxDirectoryDepth bounds the public-uploads directory walk.
const maxDirectoryDepth = 4

// ResolveFolder resolves a stored gallery path against root to an absolute,
// normalized directory guaranteed to be root or a descendant of it. Stored
// paths may be absolute or relative to root; empty paths are invalid.
func ResolveFolder(storedPath, root string) (string, error) {
	normalized := strings.TrimSpace(storedPath)
	if normalized == "" {
		return "", ErrInvalidPath
	}
	var abs string
	if filepath.IsAbs(normalized) {
		abs = filepath.Clean(normalized)
	} else {
		abs = filepath.Clean(filepath.Join(root, normalized))
	}
	if !withinRoot(abs, root) {
		return "", ErrPathTraversal
	}
	return abs, nil
}

// FileWithinFolder resolves a requested file name against an already
// resolved folder. Names containing ".." or any path separator are rejected
// before any normalization, then the joined path is re-checked for
// containment. The returned path is safe to stat and read.
func FileWithinFolder(folder, fileName string) (string, error) {
	if fileName == "" || strings.Contains(fileName, "..") ||
		strings.ContainsAny(fileName, `/\`) {
		return "", ErrInvalidPath
	}
	abs := filepath.Clean(filepath.Join(folder, fileName))
	if !withinRoot(abs, folder) {
		return "", ErrPathTraversal
	}
	return abs, nil
}

// withinRoot reports whether abs equals root or lives under it. The
// comparison is case-insensitive to tolerate case-insensitive filesystems.
func withinRoot(abs, root string) bool {
	cleanRoot := filepath.Clean(root)
	if strings.EqualFold(abs, cleanRoot) {
		return true
	}
	prefix := cleanRoot
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return len(abs) >= len(prefix) && strings.EqualFold(abs[:len(prefix)], prefix)
}

// SanitizeSegment reduces one path segment to lowercase ASCII letters,
// digits, hyphens, and underscores. Accented characters lose their marks;
// everything else collapses to a single hyphen.
func SanitizeSegment(value string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
			lastHyphen = r == '-'
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
			lastHyphen = false
		default:
			if base, ok := stripAccent(r); ok {
				b.WriteRune(base)
				lastHyphen = false
			} else if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-_")
}

// SanitizeRelativeDir sanitizes a nested relative directory path segment by
// segment, dropping anything that sanitizes to nothing. The result uses the
// platform separator and never escapes its root when joined.
func SanitizeRelativeDir(value string) string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	var kept []string
	for _, p := range parts {
		if s := SanitizeSegment(p); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, string(filepath.Separator))
}

// stripAccent maps common Latin-1 accented letters to their base letter.
func stripAccent(r rune) (rune, bool) {
	switch r {
	case 'à', 'á', 'â', 'ä', 'ã', 'å', 'À', 'Á', 'Â', 'Ä', 'Ã', 'Å':
		return 'a', true
	case 'ç', 'Ç':
		return 'c', true
	case 'è', 'é', 'ê', 'ë', 'È', 'É', 'Ê', 'Ë':
		return 'e', true
	case 'ì', 'í', 'î', 'ï', 'Ì', 'Í', 'Î', 'Ï':
		return 'i', true
	case 'ñ', 'Ñ':
		return 'n', true
	case 'ò', 'ó', 'ô', 'ö', 'õ', 'Ò', 'Ó', 'Ô', 'Ö', 'Õ':
		return 'o', true
	case 'ù', 'ú', 'û', 'ü', 'Ù', 'Ú', 'Û', 'Ü':
		return 'u', true
	case 'ý', 'ÿ', 'Ý':
		return 'y', true
	}
	return 0, false
}
