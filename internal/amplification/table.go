package amplification

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"qpcrscore/internal/config"
	apperrors "qpcrscore/internal/errors"
	"qpcrscore/pkg/contracts/domain"
)

// rawReading binds one table row by position, in config.InputColumns order.
type rawReading struct {
	Run          string    `csv:"Run"`
	Well         string    `csv:"Well"`
	Cycle        cycleCell `csv:"Cycle"`
	Sample       string    `csv:"Sample"`
	Fluorescence floatCell `csv:"Fluorescence"`
	DeltaRn      floatCell `csv:"DeltaRn"`
}

// cellError is returned by the cell decoders. The message reads after the
// column name, as in "cycle is not an integer".
type cellError struct {
	message string
	err     error
}

func (e *cellError) Error() string {
	if e.err == nil {
		return e.message
	}
	return e.message + ": " + e.err.Error()
}

func (e *cellError) Unwrap() error { return e.err }

// cycleCell is a cycle number. Integral floats such as "12.0" are accepted
// because some exports write whole-number cells that way.
type cycleCell int

func (c *cycleCell) UnmarshalCSV(s string) error {
	n, err := parseCycle(s)
	if err != nil {
		return &cellError{message: "is not an integer", err: err}
	}
	if n < 1 {
		return &cellError{message: "must be 1 or greater"}
	}
	*c = cycleCell(n)
	return nil
}

// floatCell is an optional number; blank decodes to NaN.
type floatCell float64

func (f *floatCell) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*f = floatCell(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return &cellError{message: "is not numeric", err: err}
	}
	*f = floatCell(v)
	return nil
}

// gridReader feeds an in-memory grid to gocsv.
type gridReader struct {
	rows [][]string
	pos  int
}

func (g *gridReader) Read() ([]string, error) {
	if g.pos >= len(g.rows) {
		return nil, io.EOF
	}
	row := g.rows[g.pos]
	g.pos++
	return row, nil
}

func (g *gridReader) ReadAll() ([][]string, error) {
	rest := g.rows[g.pos:]
	g.pos = len(g.rows)
	return rest, nil
}

// decodeGrid applies the table layout to a raw grid and parses every data
// row. Row numbers in errors are 1-based positions in the original sheet.
func decodeGrid(grid [][]string, opts Options) ([]domain.Reading, error) {
	start := opts.SkipRows
	if start > len(grid) {
		start = len(grid)
	}
	table := grid[start:]

	// The header row counts towards the shape but is otherwise ignored.
	width := 0
	for i, row := range table {
		w := trimmedWidth(row)
		if w > width {
			width = w
		}
		if w > config.InputColumnCount {
			return nil, apperrors.NewInputShapeError(
				fmt.Sprintf("expected %d columns, found %d", config.InputColumnCount, w), nil).
				WithContext("row", start+i+1)
		}
	}
	if width != config.InputColumnCount {
		return nil, apperrors.NewInputShapeError(
			fmt.Sprintf("expected %d columns, found %d", config.InputColumnCount, width), nil).
			WithContext("skip_rows", opts.SkipRows)
	}

	first := start
	if opts.HasHeader && len(table) > 0 {
		table = table[1:]
		first++
	}

	body := make([][]string, 0, len(table))
	rowNumbers := make([]int, 0, len(table))
	for i, row := range table {
		if trimmedWidth(row) == 0 {
			continue
		}
		body = append(body, padRow(row, config.InputColumnCount))
		rowNumbers = append(rowNumbers, first+i+1)
	}
	if len(body) == 0 {
		return []domain.Reading{}, nil
	}

	raws := make([]rawReading, 0, len(body))
	if err := gocsv.UnmarshalCSVWithoutHeaders(&gridReader{rows: body}, &raws); err != nil {
		return nil, cellFailure(err, body, rowNumbers)
	}

	readings := make([]domain.Reading, len(raws))
	for i, raw := range raws {
		readings[i] = raw.toReading()
	}
	return readings, nil
}

// cellFailure turns a gocsv parse error back into sheet coordinates.
func cellFailure(err error, body [][]string, rowNumbers []int) error {
	var perr *csv.ParseError
	if !errors.As(err, &perr) || perr.Line < 1 || perr.Line > len(body) ||
		perr.Column < 1 || perr.Column > config.InputColumnCount {
		return apperrors.NewParsingError("failed to bind table rows", err)
	}

	column := config.InputColumns[perr.Column-1]
	message, cause := perr.Err.Error(), perr.Err
	var cerr *cellError
	if errors.As(perr.Err, &cerr) {
		message, cause = columnLabel(column)+" "+cerr.message, cerr.err
	}

	return apperrors.NewInputShapeError(message, cause).
		WithContext("row", rowNumbers[perr.Line-1]).
		WithContext("column", column).
		WithContext("value", body[perr.Line-1][perr.Column-1])
}

func columnLabel(column string) string {
	if column == "DeltaRn" {
		return "deltaRn"
	}
	return strings.ToLower(column)
}

func (raw rawReading) toReading() domain.Reading {
	reading := domain.Reading{
		Run:          strings.TrimSpace(raw.Run),
		Well:         raw.Well,
		Cycle:        int(raw.Cycle),
		Fluorescence: float64(raw.Fluorescence),
	}
	if raw.Sample != "" {
		sample := raw.Sample
		reading.Sample = &sample
	}
	// An explicit NaN cell is as good as an empty one.
	if deltaRn := float64(raw.DeltaRn); !math.IsNaN(deltaRn) {
		reading.DeltaRn = &deltaRn
	}
	return reading
}

// parseCycle accepts integers, including integral floats such as "12.0".
func parseCycle(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return int(f), nil
}

// trimmedWidth is the row length without trailing blank cells.
func trimmedWidth(row []string) int {
	n := len(row)
	for n > 0 && strings.TrimSpace(row[n-1]) == "" {
		n--
	}
	return n
}

func padRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
