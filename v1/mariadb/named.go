package mariadb

import (
	"fmt"
	"strings"
)

// bindNamed rewrites :name placeholders into the driver's positional "?" form and
// returns the arguments in placeholder order. A name may appear several times; each
// occurrence binds the same value.
//
// Text inside quoted strings, backtick identifiers and comments is copied verbatim,
// as are "::" and ":=" (user variable assignment).
func bindNamed(query string, values map[string]any) (string, []any, error) {
	if !strings.ContainsRune(query, ':') {
		return query, nil, nil
	}

	var (
		sb   strings.Builder
		args []any
		n    = len(query)
	)
	sb.Grow(n)

	for i := 0; i < n; i++ {
		ch := query[i]
		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			end := skipQuoted(query, i, ch)
			sb.WriteString(query[i:end])
			i = end - 1

		case ch == '#' || (ch == '-' && i+2 < n && query[i+1] == '-' && isSpace(query[i+2])):
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				end = n - i
			}
			sb.WriteString(query[i : i+end])
			i += end - 1

		case ch == '/' && i+1 < n && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				end = n
			} else {
				end += i + 4
			}
			sb.WriteString(query[i:end])
			i = end - 1

		case ch == ':' && i+1 < n && query[i+1] == ':':
			sb.WriteString("::")
			i++

		case ch == ':' && i+1 < n && isIdentStart(query[i+1]):
			j := i + 1
			for j < n && isIdentPart(query[j]) {
				j++
			}
			name := query[i+1 : j]
			value, ok := values[name]
			if !ok {
				return "", nil, fmt.Errorf("%w: %s", ErrMissingParameter, name)
			}
			sb.WriteByte('?')
			args = append(args, value)
			i = j - 1

		default:
			sb.WriteByte(ch)
		}
	}

	return sb.String(), args, nil
}

// skipQuoted returns the index just past the quoted section starting at start.
// Doubled quotes and backslash escapes (not for backticks) stay inside the section.
func skipQuoted(s string, start int, quote byte) int {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if quote != '`' {
				i++
			}
		case quote:
			if i+1 < len(s) && s[i+1] == quote {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(s)
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
