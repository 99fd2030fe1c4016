package mailsvc

import "strings"

// DefaultSeparator is used to join folder paths when the server hierarchy
// delimiter is not configured.
const DefaultSeparator = "."

const specialFolderChars = " \"(){}%*"

// NormalizeFolder quotes a folder name when it contains characters that are
// special in the store protocol. Already quoted names are returned as is.
func NormalizeFolder(name string) string {
	if isQuoted(name) {
		return name
	}
	if !strings.ContainsAny(name, specialFolderChars) {
		return name
	}

	var b strings.Builder
	b.Grow(len(name) + 2)
	b.WriteByte('"')
	for _, r := range name {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// UnquoteFolder reverses NormalizeFolder.
func UnquoteFolder(name string) string {
	if !isQuoted(name) {
		return name
	}

	inner := name[1 : len(name)-1]
	var b strings.Builder
	b.Grow(len(inner))
	escaped := false
	for _, r := range inner {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// JoinFolder builds a hierarchical folder path.
func JoinFolder(parent, name, sep string) string {
	if parent == "" {
		return name
	}
	if sep == "" {
		sep = DefaultSeparator
	}
	return UnquoteFolder(parent) + sep + UnquoteFolder(name)
}

// isQuoted reports whether name is a form NormalizeFolder can produce: a
// well-formed quoted string whose content needs quoting. Anything else,
// such as "x" or "A" "B", is a literal folder name.
func isQuoted(name string) bool {
	if len(name) < 2 || name[0] != '"' || name[len(name)-1] != '"' {
		return false
	}

	inner := name[1 : len(name)-1]
	special := false
	for i := 0; i < len(inner); i++ {
		switch c := inner[i]; c {
		case '\\':
			i++
			if i == len(inner) || (inner[i] != '"' && inner[i] != '\\') {
				return false
			}
			if inner[i] == '"' {
				special = true
			}
		case '"':
			return false
		default:
			if strings.IndexByte(specialFolderChars, c) >= 0 {
				special = true
			}
		}
	}
	return special
}
