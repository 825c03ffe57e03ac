package entitysql

import (
	"strings"
	"unicode"
)

// ToStorageName converts a camelCase property name into its snake_case column name.
//
// An underscore is inserted before an upper-case letter that follows a letter
// which is not upper-case, so runs of capitals collapse into one word:
//
//	ToStorageName("memberUid") // "member_uid"
//	ToStorageName("memberUID") // "member_uid"
//	ToStorageName("id")        // "id"
//
// Names that are already snake_case are returned unchanged.
func ToStorageName(identifier string) string {
	var sb strings.Builder
	sb.Grow(len(identifier) + 4)

	prevUpper := false
	for i, r := range identifier {
		lower := unicode.ToLower(r)
		upper := lower != r
		if i != 0 && upper && !prevUpper {
			sb.WriteByte('_')
		}
		sb.WriteRune(lower)
		prevUpper = upper
	}
	return sb.String()
}

// quoteIdent backtick-quotes a schema or table name.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
