package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Factory выбирает reader по расширению файла
type Factory struct {
	readers map[string]Reader
}

// NewFactory создаёт фабрику со стандартными форматами (csv, xlsx)
func NewFactory() *Factory {
	csvReader := NewCSVReader()
	xlsxReader := NewXLSXReader()
	return &Factory{readers: map[string]Reader{
		".csv":  csvReader,
		".txt":  csvReader,
		".xlsx": xlsxReader,
		".xlsm": xlsxReader,
	}}
}

// GetReader возвращает подходящий reader для файла
func (f *Factory) GetReader(path string) (Reader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	r, ok := f.readers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported dataset format %q (%s)", ErrDataLoad, ext, path)
	}
	return r, nil
}
