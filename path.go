package assetpack

import "strings"

// NormalizePath converts a user-provided path to logical path form.
//
// It performs the following transformations:
//   - Converts backslashes to forward slashes: `textures\hero.png` → "textures/hero.png"
//   - Strips leading and trailing slashes: "/etc/x/" → "etc/x"
//   - Collapses consecutive slashes: "a//b" → "a/b"
//   - Converts empty string to root: "" → "."
//
// The result is the sole lookup key used across all backends. Paths
// containing "." or ".." elements are preserved here and rejected by
// backend methods via fs.ValidPath.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.Trim(p, "/")
	if p == "" {
		return "."
	}

	parts := strings.Split(p, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return "."
	}
	return strings.Join(result, "/")
}
