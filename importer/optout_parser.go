package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Ошибки разбора таблицы владельцев патентов
var (
	ErrMalformedSpreadsheet   = errors.New("spreadsheet is malformed")
	ErrHeaderNotFound         = errors.New("header row not found")
	ErrRequiredColumnsMissing = errors.New("required columns missing")
)

// headerScanLimit количество первых строк, в которых ищется строка заголовков
const headerScanLimit = 10

// epNumberPattern каноничный формат номера публикации EP: "EP" + 7-9 цифр
var epNumberPattern = regexp.MustCompile(`(?i)^EP[0-9]{7,9}$`)

// ExtractedBatch результат извлечения данных из таблицы владельцев патентов
type ExtractedBatch struct {
	PatentNumbers []string // Номера EP в порядке строк, дубликаты сохраняются
	Duplicates    []string // Номера, встретившиеся более одного раза (в порядке первого повтора)
	Invalid       []string // Номера с префиксом EP, не прошедшие проверку формата
	OwnerName     string   // Название владельца из первой строки данных
	OwnerAddress  string   // Адрес владельца из первой строки данных
	OwnerEmail    string   // Email владельца (колонка опциональна)
	HeaderRow     int      // Индекс найденной строки заголовков
}

// columnIndices индексы найденных колонок таблицы
type columnIndices struct {
	epNumber int
	name     int
	address  int
	email    int
}

// Parse разбирает файл таблицы (xlsx или csv) и извлекает номера EP
// и данные владельца. Формат определяется по сигнатуре файла.
func Parse(data []byte) (*ExtractedBatch, error) {
	grid, err := decodeGrid(data)
	if err != nil {
		return nil, err
	}
	return parseGrid(grid)
}

// decodeGrid превращает байты файла в прямоугольную сетку строк.
// xlsx определяется по zip-сигнатуре "PK", остальное разбирается как CSV.
func decodeGrid(data []byte) ([][]string, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedSpreadsheet)
	}

	if bytes.HasPrefix(data, []byte("PK")) {
		return decodeExcelGrid(data)
	}
	return decodeCSVGrid(data)
}

// decodeExcelGrid читает первый лист книги Excel
func decodeExcelGrid(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %v", ErrMalformedSpreadsheet, err)
	}
	defer f.Close()

	// Берем только первый лист
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%w: no sheets found in workbook", ErrMalformedSpreadsheet)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get rows: %v", ErrMalformedSpreadsheet, err)
	}
	return rows, nil
}

// decodeCSVGrid читает CSV с fallback-перекодировкой из Windows-1251
func decodeCSVGrid(data []byte) ([][]string, error) {
	// Файлы из старых выгрузок приходят в cp1251
	if !utf8.Valid(data) {
		decoder := charmap.Windows1251.NewDecoder()
		decoded, _, err := transform.Bytes(decoder, data)
		if err == nil && utf8.Valid(decoded) {
			data = decoded
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectCSVDelimiter(data)
	reader.FieldsPerRecord = -1 // Строки могут быть разной длины

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse csv: %v", ErrMalformedSpreadsheet, err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// detectCSVDelimiter выбирает разделитель по первой строке файла
func detectCSVDelimiter(data []byte) rune {
	firstLine := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		firstLine = data[:idx]
	}
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		return ';'
	}
	return ','
}

// parseGrid извлекает данные опт-аута из сетки строк
func parseGrid(rows [][]string) (*ExtractedBatch, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: grid is empty", ErrMalformedSpreadsheet)
	}

	headerRow, headers, err := findHeaderRow(rows)
	if err != nil {
		return nil, err
	}

	cols, err := findColumnIndices(headers)
	if err != nil {
		return nil, err
	}

	log.Printf("Found columns - EP: %d, Name: %d, Address: %d, Email: %d (header row %d)",
		cols.epNumber, cols.name, cols.address, cols.email, headerRow)

	batch := &ExtractedBatch{HeaderRow: headerRow}
	seen := make(map[string]int)

	for rowIdx := headerRow + 1; rowIdx < len(rows); rowIdx++ {
		ep := cellAt(rows[rowIdx], cols.epNumber)
		// Сохраняем только значения с литеральным префиксом "EP",
		// порядок строк и дубликаты не теряются
		if !strings.HasPrefix(ep, "EP") {
			continue
		}
		batch.PatentNumbers = append(batch.PatentNumbers, ep)
		seen[ep]++
		if seen[ep] == 2 {
			batch.Duplicates = append(batch.Duplicates, ep)
		}
		if !epNumberPattern.MatchString(ep) {
			batch.Invalid = append(batch.Invalid, ep)
		}
	}

	// Данные владельца берутся только из первой строки данных:
	// вся партия подается от имени одного заявителя
	if headerRow+1 < len(rows) {
		firstData := rows[headerRow+1]
		batch.OwnerName = cellAt(firstData, cols.name)
		batch.OwnerAddress = cellAt(firstData, cols.address)
		if cols.email >= 0 {
			batch.OwnerEmail = cellAt(firstData, cols.email)
		}
	}

	return batch, nil
}

// findHeaderRow ищет строку заголовков в первых десяти строках сетки.
// Строкой заголовков считается первая строка, любая ячейка которой
// содержит подстроку "ep pub" (без учета регистра).
func findHeaderRow(rows [][]string) (int, []string, error) {
	limit := headerScanLimit
	if len(rows) < limit {
		limit = len(rows)
	}

	for i := 0; i < limit; i++ {
		normalized := make([]string, len(rows[i]))
		for j, cell := range rows[i] {
			normalized[j] = strings.TrimSpace(strings.ToLower(cell))
		}
		for _, cell := range normalized {
			if strings.Contains(cell, "ep pub") {
				return i, normalized, nil
			}
		}
	}

	return -1, nil, fmt.Errorf("%w: no cell containing \"ep pub\" in first %d rows", ErrHeaderNotFound, headerScanLimit)
}

// findColumnIndices определяет индексы колонок по ключевым подстрокам заголовков
func findColumnIndices(headers []string) (columnIndices, error) {
	cols := columnIndices{
		epNumber: indexOfHeader(headers, "ep pub"),
		name:     indexOfHeader(headers, "owner 1 name"),
		address:  indexOfHeader(headers, "owner 1 address"),
		email:    indexOfHeader(headers, "owner 1 email"),
	}

	var missing []string
	if cols.epNumber == -1 {
		missing = append(missing, "ep pub")
	}
	if cols.name == -1 {
		missing = append(missing, "owner 1 name")
	}
	if cols.address == -1 {
		missing = append(missing, "owner 1 address")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrRequiredColumnsMissing, strings.Join(missing, ", "))
	}

	// Колонка email опциональна, ее отсутствие не ошибка
	return cols, nil
}

// indexOfHeader возвращает индекс первой ячейки, содержащей подстроку
func indexOfHeader(headers []string, keyword string) int {
	for i, h := range headers {
		if strings.Contains(h, keyword) {
			return i
		}
	}
	return -1
}

// cellAt безопасно читает ячейку строки с обрезкой пробелов
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// CanonicalPatentNumber приводит номер EP к каноничной форме (верхний регистр)
func CanonicalPatentNumber(ep string) string {
	return strings.ToUpper(strings.TrimSpace(ep))
}

// IsValidPatentNumber проверяет соответствие формату "EP" + 7-9 цифр
func IsValidPatentNumber(ep string) bool {
	return epNumberPattern.MatchString(strings.TrimSpace(ep))
}
