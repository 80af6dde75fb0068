// Package tabular 负责把上传的表格文件（CSV/Excel）解析为统一的行结构，
// 并按固定字段字典映射为类型化的基因记录.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row 一行数据，键为表头原文.
type Row map[string]string

// Table 解析后的表格，表头顺序保留.
type Table struct {
	Headers []string
	Rows    []Row
}

const sniffLimit = 1024

// utf8BOM 仅在第一个表头单元格前出现时剥离.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load 解析上传的文件内容.
// 格式优先按扩展名判定；未知扩展名时嗅探前 1KB，含逗号和换行视为 CSV.
// Excel 解析失败时回退尝试 CSV，两者都失败则返回 Excel 端的错误.
func Load(data []byte, filename string) (*Table, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return loadCSV(data)
	case ".xlsx", ".xls":
		t, xlsErr := loadExcel(data)
		if xlsErr == nil {
			return t, nil
		}

		// 部分系统导出 .xls 实为 CSV，回退一次
		if t, err := loadCSV(data); err == nil {
			return t, nil
		}

		return nil, xlsErr
	default:
		if looksLikeCSV(data) {
			return loadCSV(data)
		}

		return nil, ErrUnsupportedFormat
	}
}

// looksLikeCSV 嗅探前 1KB 是否像逗号分隔文本.
func looksLikeCSV(data []byte) bool {
	sample := data
	if len(sample) > sniffLimit {
		sample = sample[:sniffLimit]
	}

	return bytes.ContainsRune(sample, ',') && bytes.ContainsRune(sample, '\n')
}

func loadCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = false

	headers, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}

		return nil, &MalformedInputError{Format: "csv", Err: err}
	}

	t := &Table{Headers: headers}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, &MalformedInputError{Format: "csv", Err: err}
		}

		t.Rows = append(t.Rows, rowFrom(headers, rec))
	}

	if len(t.Rows) == 0 {
		return nil, ErrEmptyInput
	}

	return t, nil
}

func loadExcel(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &MalformedInputError{Format: "excel", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyInput
	}

	// 只读第一个工作表，与原始数据采集流程一致
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &MalformedInputError{Format: "excel", Err: err}
	}

	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	headers := rows[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], string(utf8BOM))
	}

	t := &Table{Headers: headers}

	for _, rec := range rows[1:] {
		t.Rows = append(t.Rows, rowFrom(headers, rec))
	}

	if len(t.Rows) == 0 {
		return nil, ErrEmptyInput
	}

	return t, nil
}

func rowFrom(headers, rec []string) Row {
	row := make(Row, len(headers))
	for i, h := range headers {
		if i < len(rec) {
			row[h] = rec[i]
		} else {
			row[h] = ""
		}
	}

	return row
}

// HasColumn 判断表头中是否存在指定列（精确匹配）.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}

	return false
}
