package tabular

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat 文件既不是 CSV 也不是 Excel，嗅探也无法识别.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyInput 文件可以解析但没有任何数据行.
	ErrEmptyInput = errors.New("file contains no data rows")
	// ErrNoValidRecords 所有行都无法映射为有效记录.
	ErrNoValidRecords = errors.New("no valid records found in file")
)

// MalformedInputError 输入字节无法按声明的格式解析.
type MalformedInputError struct {
	Format string
	Err    error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s input: %v", e.Format, e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// MissingColumnsError 表头缺少必需列，Columns 列出全部缺失列.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}
