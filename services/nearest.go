package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// ColumnLatitude - 위도 컬럼명
	ColumnLatitude = "galactic_latitude"
	// ColumnLongitude - 경도 컬럼명
	ColumnLongitude = "galactic_longitude"
)

// ErrNoPlanets is returned by Nearest when there is nothing to search.
var ErrNoPlanets = errors.New("no planets found")

// CoordinateError reports a row whose coordinates cannot be read as numbers.
type CoordinateError struct {
	Index  int
	Column string
	Err    error
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("row %d column %s: %v", e.Index, e.Column, e.Err)
}

func (e *CoordinateError) Unwrap() error {
	return e.Err
}

// Distance - 평면 유클리드 거리
func Distance(lat1, long1, lat2, long2 float64) float64 {
	dLat := lat1 - lat2
	dLong := long1 - long2
	return math.Sqrt(dLat*dLat + dLong*dLong)
}

// Nearest - 좌표에 가장 가까운 행 선택 (선형 탐색)
// Ties resolve to the earliest row in store order. Returns the index of
// the winning row.
func Nearest(rows []Row, lat, long float64) (int, error) {
	if len(rows) == 0 {
		return -1, ErrNoPlanets
	}

	best := -1
	bestDist := 0.0
	for i, row := range rows {
		rowLat, err := coordinate(row, ColumnLatitude)
		if err != nil {
			return -1, &CoordinateError{Index: i, Column: ColumnLatitude, Err: err}
		}
		rowLong, err := coordinate(row, ColumnLongitude)
		if err != nil {
			return -1, &CoordinateError{Index: i, Column: ColumnLongitude, Err: err}
		}

		d := Distance(rowLat, rowLong, lat, long)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

func coordinate(row Row, column string) (float64, error) {
	v, ok := row.Get(column)
	if !ok {
		return 0, errors.New("column missing")
	}
	return ToFloat(v)
}

// ToFloat converts a numeric or numeric-text value to float64.
func ToFloat(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, errors.New("value is null")
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case decimal.Decimal:
		return x.InexactFloat64(), nil
	case string:
		return ParseFloat(x)
	case []byte:
		return ParseFloat(string(x))
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}

// ParseFloat parses s as a float64, ignoring surrounding whitespace.
func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
