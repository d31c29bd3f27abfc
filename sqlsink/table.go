package sqlsink

import (
	"path/filepath"
	"strings"
)

// TableName is the SQL table name of a resource
type TableName struct {
	value string
}

// NewTableName derives a table name from a resource name: the extension is
// dropped and every character outside [A-Za-z0-9_] is replaced or removed.
func NewTableName(resourceName string) TableName {
	base := filepath.Base(strings.TrimSpace(resourceName))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return TableName{value: sanitize(base)}
}

// String returns the string representation of TableName
func (tn TableName) String() string {
	return tn.value
}

// sanitize keeps letters, digits and underscores
func sanitize(name string) string {
	replacer := strings.NewReplacer(" ", "_", "-", "_", ".", "_")
	name = replacer.Replace(name)

	var sb strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			sb.WriteRune(r)
		}
	}

	result := sb.String()
	if result == "" {
		return "table"
	}
	if result[0] >= '0' && result[0] <= '9' {
		return "table_" + result
	}
	return result
}

// quoteIdent quotes an identifier for SQLite
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
