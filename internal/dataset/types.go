package dataset

import "errors"

// Обязательные колонки исходной таблицы
const (
	ColumnComment = "comentario_limpio"
	ColumnSection = "seccion"
)

// ErrDataLoad - датасет не читается или в нём нет нужных колонок
var ErrDataLoad = errors.New("data load error")

// Record - один комментарий клиента, готовый к индексации
type Record struct {
	ID      string // doc_<i>, назначается после отбрасывания пустых строк
	Text    string // Текст комментария (непустой)
	Section string // Метка секции как строка
}

// Table - сырые строки файла: заголовок + данные
type Table struct {
	Header []string
	Rows   [][]string
}

// Reader - интерфейс для всех форматов датасета
type Reader interface {
	// Read читает файл целиком в таблицу
	Read(path string) (*Table, error)

	// Name возвращает название reader'а для логирования
	Name() string
}
