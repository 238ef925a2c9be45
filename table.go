package emberdb

import (
	"bytes"
	"context"
	"fmt"
)

// Table is a convenience handle for one table, mainly for building quoted
// identifiers into query text.
type Table struct {
	conn *Connection

	// Name is the name of the table.
	Name string
}

func (conn *Connection) Table(tableName string) *Table {
	return &Table{
		conn: conn,
		Name: tableName,
	}
}

// Schema fetches the table's current column specs.
func (t *Table) Schema(ctx context.Context) (Schema, error) {
	return t.conn.getTableSchema(ctx, t.Name)
}

// Exists reports whether the table is present in the database.
func (t *Table) Exists(ctx context.Context) (bool, error) {
	tables, err := t.conn.getTables(ctx)
	if err != nil {
		return false, err
	}
	for _, name := range tables {
		if name == t.Name {
			return true, nil
		}
	}
	return false, nil
}

// Identifier returns the table name quoted for use in query text.
func (t *Table) Identifier() string {
	return quoteIdent(t.Name, '"')
}

func quoteIdent(s string, r rune) string {
	var b bytes.Buffer
	b.WriteRune(r)
	for _, c := range s {
		switch c {
		case '\t':
			b.WriteString("\\t")
		case '\n':
			b.WriteString("\\n")
		case '\r':
			b.WriteString("\\r")
		case '\\':
			b.WriteString("\\\\")
		default:
			if c == r {
				b.WriteRune('\\')
				b.WriteRune(c)
				break
			}

			if c < 0x20 {
				b.WriteString(fmt.Sprintf("\\x%02x", c))
				break
			}

			b.WriteRune(c)
		}
	}
	b.WriteRune(r)
	return b.String()
}
