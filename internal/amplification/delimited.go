package amplification

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"

	apperrors "qpcrscore/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readDelimited returns the raw cell grid of a delimited export. Metadata
// rows above the table have varying widths, so the field count is not
// enforced here; decodeGrid checks the shape of the table proper.
func readDelimited(r io.Reader, comma rune) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read delimited file", err)
	}
	return rows, nil
}
