package parse

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is the raw cell grid of one spreadsheet, decoded from an uploaded
// byte buffer. All downstream parsing works on this representation.
type Sheet struct {
	Name string
	Rows [][]string
}

// DecodeSheet turns an uploaded buffer into a cell grid. XLSX buffers are
// read with excelize (first sheet only); everything else is treated as CSV
// with a sniffed delimiter. An empty grid is a structural error.
func DecodeSheet(data []byte, filename string) (*Sheet, error) {
	if len(data) == 0 {
		return nil, structural(CodeEmptySheet, "uploaded file is empty", nil)
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		rows, err = decodeExcel(data)
	default:
		rows, err = decodeCSV(data)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, structural(CodeEmptySheet, "no rows found in "+filename, nil)
	}

	return &Sheet{Name: filename, Rows: rows}, nil
}

func decodeExcel(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, structural(CodeUnreadableFile, "failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, structural(CodeEmptySheet, "workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, structural(CodeUnreadableFile, fmt.Sprintf("failed to read sheet %s", sheets[0]), err)
	}
	return rows, nil
}

func decodeCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, structural(CodeUnreadableFile, "failed to read csv row", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// sniffDelimiter picks ';' when the first line carries semicolons but no
// commas. POS exports in the wild use either.
func sniffDelimiter(data []byte) rune {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}
	if bytes.ContainsRune(line, ';') && !bytes.ContainsRune(line, ',') {
		return ';'
	}
	return ','
}
