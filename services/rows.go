package services

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row - 컬럼 순서를 유지하는 planets 레코드
// Columns and Values are parallel slices in the order the store returned them.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value of the named column.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// MarshalJSON encodes the row as a JSON object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Date is a calendar date without a time of day (MySQL DATE).
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

var mysqlTimeLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// scanRows drains rows into ordered Row values. Empty result sets yield an
// empty, non-nil slice.
func scanRows(rows *sql.Rows) ([]Row, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read column types: %w", err)
	}

	columns := make([]string, len(columnTypes))
	dbTypes := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		columns[i] = ct.Name()
		dbTypes[i] = ct.DatabaseTypeName()
	}

	result := make([]Row, 0)
	for rows.Next() {
		raw := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		values := make([]any, len(columns))
		for i, v := range raw {
			values[i] = normalize(dbTypes[i], v)
		}
		result = append(result, Row{Columns: columns, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// baseType strips length/precision and sign qualifiers from a column type
// name, e.g. "DECIMAL(10,2)" -> "DECIMAL", "UNSIGNED BIGINT" -> "BIGINT".
func baseType(dbType string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	unsigned := false
	if strings.HasPrefix(t, "UNSIGNED ") {
		unsigned = true
		t = strings.TrimPrefix(t, "UNSIGNED ")
	}
	if strings.HasSuffix(t, " UNSIGNED") {
		unsigned = true
		t = strings.TrimSuffix(t, " UNSIGNED")
	}
	return t, unsigned
}

// normalize turns a value handed back by the driver into its native kind
// based on the column's database type. The MySQL text protocol returns many
// types as []byte; this restores decimals, dates, numbers and text.
// Values that fail to parse are left as they came.
func normalize(dbType string, v any) any {
	if v == nil {
		return nil
	}
	t, unsigned := baseType(dbType)

	switch t {
	case "DECIMAL", "NUMERIC":
		switch x := v.(type) {
		case []byte:
			if d, err := decimal.NewFromString(string(x)); err == nil {
				return d
			}
		case string:
			if d, err := decimal.NewFromString(x); err == nil {
				return d
			}
		case float64:
			return decimal.NewFromFloat(x)
		case int64:
			return decimal.NewFromInt(x)
		}
		return v

	case "DATE":
		switch x := v.(type) {
		case time.Time:
			return Date{x}
		case []byte:
			if d, err := time.Parse(dateLayout, string(x)); err == nil {
				return Date{d}
			}
		case string:
			if d, err := time.Parse(dateLayout, x); err == nil {
				return Date{d}
			}
		}
		return v

	case "DATETIME", "TIMESTAMP":
		var s string
		switch x := v.(type) {
		case time.Time:
			return x
		case []byte:
			s = string(x)
		case string:
			s = x
		default:
			return v
		}
		for _, layout := range mysqlTimeLayouts {
			if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return ts
			}
		}
		return s

	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR":
		s, ok := textOf(v)
		if !ok {
			return v
		}
		if unsigned {
			if n, err := strconv.ParseUint(s, 10, 64); err == nil {
				return n
			}
		} else if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		return s

	case "FLOAT", "DOUBLE", "REAL":
		s, ok := textOf(v)
		if !ok {
			return v
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return s

	case "BINARY", "VARBINARY", "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BIT", "GEOMETRY":
		if b, ok := v.([]byte); ok {
			return bytes.Clone(b)
		}
		return v
	}

	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func textOf(v any) (string, bool) {
	switch x := v.(type) {
	case []byte:
		return string(x), true
	case string:
		return x, true
	}
	return "", false
}
