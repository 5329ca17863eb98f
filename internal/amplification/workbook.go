package amplification

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	apperrors "qpcrscore/internal/errors"
)

// readWorkbook returns the raw cell grid of the configured sheet. Cells are
// read unformatted so number styles on the sheet never leak into parsing.
func (l *Loader) readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	rows, err := f.GetRows(l.opts.Sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		var notExist excelize.ErrSheetNotExist
		if errors.As(err, &notExist) {
			return nil, apperrors.NewInputShapeError(
				fmt.Sprintf("sheet %q not found", l.opts.Sheet), nil).
				WithContext("sheets", f.GetSheetList())
		}
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", l.opts.Sheet), err)
	}

	return rows, nil
}
