package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVReader читает CSV с заголовком в первой строке
type CSVReader struct{}

func NewCSVReader() *CSVReader {
	return &CSVReader{}
}

func (r *CSVReader) Name() string {
	return "csv"
}

func (r *CSVReader) Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataLoad, err)
	}
	defer f.Close()

	return r.read(f, path)
}

func (r *CSVReader) read(src io.Reader, path string) (*Table, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1 // строки бывают неполными
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s is empty", ErrDataLoad, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header of %s: %v", ErrDataLoad, path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := &Table{Header: header}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrDataLoad, path, err)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
