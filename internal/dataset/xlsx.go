package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXReader читает первый лист книги Excel
type XLSXReader struct{}

func NewXLSXReader() *XLSXReader {
	return &XLSXReader{}
}

func (r *XLSXReader) Name() string {
	return "xlsx"
}

func (r *XLSXReader) Read(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataLoad, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrDataLoad, path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q of %s: %v", ErrDataLoad, sheets[0], path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrDataLoad, path)
	}

	return &Table{Header: rows[0], Rows: rows[1:]}, nil
}
