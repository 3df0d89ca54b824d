package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	isoSecondsLayout = "2006-01-02T15:04:05"
	isoMicrosLayout  = "2006-01-02T15:04:05.000000"
)

// Coerce - DB 네이티브 값을 JSON 전송 가능한 값으로 변환
//
//   - Date          -> "YYYY-MM-DD"
//   - time.Time     -> ISO-8601, microseconds only when non-zero
//   - decimal       -> float64 (lossy on purpose)
//   - []byte        -> UTF-8 string, undecodable bytes dropped
//
// Everything else is returned unchanged.
func Coerce(v any) any {
	switch x := v.(type) {
	case Date:
		return x.String()
	case *Date:
		if x == nil {
			return nil
		}
		return x.String()
	case time.Time:
		return isoFormat(x)
	case *time.Time:
		if x == nil {
			return nil
		}
		return isoFormat(*x)
	case decimal.Decimal:
		return x.InexactFloat64()
	case decimal.NullDecimal:
		if !x.Valid {
			return nil
		}
		return x.Decimal.InexactFloat64()
	case []byte:
		return strings.ToValidUTF8(string(x), "")
	}
	return v
}

// CoerceRow returns a copy of row with every value coerced. Column order is kept.
func CoerceRow(row Row) Row {
	values := make([]any, len(row.Values))
	for i, v := range row.Values {
		values[i] = Coerce(v)
	}
	return Row{Columns: row.Columns, Values: values}
}

// CoerceRows applies CoerceRow to each row. The result is never nil.
func CoerceRows(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, CoerceRow(r))
	}
	return out
}

// isoFormat renders t like YYYY-MM-DDTHH:MM:SS[.ffffff]. Times in UTC are
// treated as zone-less (MySQL DATETIME); other zones get their offset.
func isoFormat(t time.Time) string {
	layout := isoSecondsLayout
	if t.Nanosecond()/1000 != 0 {
		layout = isoMicrosLayout
	}
	if t.Location() != time.UTC {
		layout += "-07:00"
	}
	return t.Format(layout)
}
