package records

import (
	"path/filepath"
	"strings"
)

// Placeholder is the token that stands in for the primary root in manifest
// lines and report paths.
const Placeholder = "*"

// PlaceholderKey builds the report/manifest form of a relative path:
// "*<sep>relpath".
func PlaceholderKey(relPath string) string {
	return Placeholder + string(filepath.Separator) + relPath
}

// PlaceholderVariants returns the placeholder keys a relative path may
// appear under in a manifest, allowing for either native or forward-slash
// separators. Manifests written on one platform are routinely validated on
// another.
func PlaceholderVariants(relPath string) []string {
	native := PlaceholderKey(relPath)
	slashed := Placeholder + "/" + filepath.ToSlash(relPath)
	if native == slashed {
		return []string{native}
	}
	return []string{native, slashed}
}

// ExpandPlaceholder resolves a placeholder-prefixed path against the primary
// root. Paths without the placeholder are returned unchanged.
func ExpandPlaceholder(key, root string) string {
	if !strings.HasPrefix(key, Placeholder) {
		return key
	}
	rel := strings.TrimPrefix(key, Placeholder)
	rel = strings.TrimLeft(rel, "/\\")
	return filepath.Join(root, filepath.FromSlash(rel))
}

// DisplayPath normalises a placeholder-prefixed path for reports: expanded
// against the root when absolute output is requested, otherwise left in its
// relative placeholder form.
func DisplayPath(key, root string, absolute bool) string {
	if absolute {
		return ExpandPlaceholder(key, root)
	}
	return key
}
