package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// missingSection - так pandas превращает пустую секцию в строку
const missingSection = "nan"

// naValues - значения, которые pandas по умолчанию читает как NaN
var naValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// Loader загружает комментарии из одного файла или glob-шаблона
type Loader struct {
	factory *Factory
}

func NewLoader() *Loader {
	return &Loader{factory: NewFactory()}
}

// Load читает все файлы источника по порядку и нумерует непустые строки doc_0..doc_{n-1}
func (l *Loader) Load(source string) ([]Record, error) {
	files, err := ResolveFiles(source)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, path := range files {
		reader, err := l.factory.GetReader(path)
		if err != nil {
			return nil, err
		}

		table, err := reader.Read(path)
		if err != nil {
			return nil, err
		}

		before := len(records)
		records, err = appendRecords(records, table, path)
		if err != nil {
			return nil, err
		}

		log.Printf("📄 [%s] %s: %d rows, %d comments kept", reader.Name(), path, len(table.Rows), len(records)-before)
	}

	return records, nil
}

// ResolveFiles раскрывает источник в отсортированный список файлов
func ResolveFiles(source string) ([]string, error) {
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		return []string{source}, nil
	}

	matches, err := doublestar.FilepathGlob(source)
	if err != nil {
		return nil, fmt.Errorf("%w: bad dataset pattern %q: %v", ErrDataLoad, source, err)
	}

	var files []string
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no dataset files match %q", ErrDataLoad, source)
	}

	sort.Strings(files)
	return files, nil
}

// Checksum считает sha256 по содержимому всех файлов источника
func Checksum(source string) (string, error) {
	files, err := ResolveFiles(source)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDataLoad, err)
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("%w: failed to hash %s: %v", ErrDataLoad, path, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func appendRecords(records []Record, table *Table, path string) ([]Record, error) {
	commentIdx, sectionIdx := -1, -1
	for i, name := range table.Header {
		// при дублях колонки берётся первая
		switch strings.TrimSpace(name) {
		case ColumnComment:
			if commentIdx < 0 {
				commentIdx = i
			}
		case ColumnSection:
			if sectionIdx < 0 {
				sectionIdx = i
			}
		}
	}
	if commentIdx < 0 || sectionIdx < 0 {
		return nil, fmt.Errorf("%w: %s must have columns %q and %q (got %v)",
			ErrDataLoad, path, ColumnComment, ColumnSection, table.Header)
	}

	for _, row := range table.Rows {
		text, ok := cell(row, commentIdx)
		if !ok {
			continue
		}

		section, ok := cell(row, sectionIdx)
		if !ok {
			section = missingSection
		}

		records = append(records, Record{
			ID:      fmt.Sprintf("doc_%d", len(records)),
			Text:    text,
			Section: normalizeSection(section),
		})
	}

	return records, nil
}

// cell возвращает значение ячейки, если оно не пустое и не NA
func cell(row []string, idx int) (string, bool) {
	if idx >= len(row) {
		return "", false
	}
	v := row[idx]
	trimmed := strings.TrimSpace(v)
	if _, na := naValues[trimmed]; na {
		return "", false
	}
	return v, true
}

// normalizeSection приводит "3.0" к "3", остальное оставляет как есть
func normalizeSection(s string) string {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && strings.Contains(s, ".") && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}
