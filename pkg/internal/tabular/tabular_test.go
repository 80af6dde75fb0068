package tabular_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/yeisme/cropvault/pkg/internal/tabular"
)

const sampleCSV = "No.,F5 Code,6th Location,Fruit Weight (Kg),Seeds Quantity,Polli.Date(2024)\n" +
	"1,F5-001,Field 6,8.2,120,2024-05-01\n" +
	"2,F5-002,Field 7,7.5,98,2024-05-03\n"

// TestLoad_CSV 测试按扩展名解析 CSV.
func TestLoad_CSV(t *testing.T) {
	tbl, err := tabular.Load([]byte(sampleCSV), "harvest.csv")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(tbl.Headers) != 6 {
		t.Errorf("Expected 6 headers, got %d", len(tbl.Headers))
	}

	if len(tbl.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(tbl.Rows))
	}

	if tbl.Rows[0]["F5 Code"] != "F5-001" {
		t.Errorf("Unexpected cell value: %q", tbl.Rows[0]["F5 Code"])
	}
}

// TestLoad_BOM 测试剥离首单元格前的 UTF-8 BOM.
func TestLoad_BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(sampleCSV)...)

	tbl, err := tabular.Load(data, "harvest.csv")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if tbl.Headers[0] != "No." {
		t.Errorf("BOM not stripped from first header: %q", tbl.Headers[0])
	}

	if !tbl.HasColumn("No.") {
		t.Error("HasColumn should find No. after BOM strip")
	}
}

// TestLoad_SniffCSV 测试未知扩展名时的内容嗅探.
func TestLoad_SniffCSV(t *testing.T) {
	tbl, err := tabular.Load([]byte(sampleCSV), "upload.dat")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(tbl.Rows) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(tbl.Rows))
	}
}

// TestLoad_UnsupportedFormat 测试无法识别的二进制内容.
func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := tabular.Load([]byte{0x00, 0x01, 0x02, 0x03}, "blob.bin")
	if !errors.Is(err, tabular.ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

// TestLoad_Empty 测试空文件与仅表头文件.
func TestLoad_Empty(t *testing.T) {
	if _, err := tabular.Load(nil, "empty.csv"); !errors.Is(err, tabular.ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput for nil data, got %v", err)
	}

	headerOnly := "No.,F5 Code\n"
	if _, err := tabular.Load([]byte(headerOnly), "header.csv"); !errors.Is(err, tabular.ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput for header-only file, got %v", err)
	}
}

// TestLoad_RaggedRows 测试短行补空、长行截断.
func TestLoad_RaggedRows(t *testing.T) {
	data := "No.,F5 Code,6th Location\n1,F5-001\n2,F5-002,Field 6,extra\n"

	tbl, err := tabular.Load([]byte(data), "ragged.csv")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if tbl.Rows[0]["6th Location"] != "" {
		t.Errorf("Short row should yield empty cell, got %q", tbl.Rows[0]["6th Location"])
	}

	if tbl.Rows[1]["6th Location"] != "Field 6" {
		t.Errorf("Unexpected cell: %q", tbl.Rows[1]["6th Location"])
	}
}

// TestLoad_XLSFallbackToCSV 测试 .xls 实际是 CSV 时的回退.
func TestLoad_XLSFallbackToCSV(t *testing.T) {
	tbl, err := tabular.Load([]byte(sampleCSV), "export.xls")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(tbl.Rows) != 2 {
		t.Errorf("Expected 2 rows via CSV fallback, got %d", len(tbl.Rows))
	}
}

// TestLoad_MalformedCSV 测试无法解析的 CSV 返回 MalformedInputError.
func TestLoad_MalformedCSV(t *testing.T) {
	data := "No.,F5 Code\n\"unterminated,1\n"

	_, err := tabular.Load([]byte(data), "bad.csv")

	var malformed *tabular.MalformedInputError
	if !errors.As(err, &malformed) {
		t.Errorf("Expected MalformedInputError, got %v", err)
	}

	if malformed != nil && !strings.Contains(malformed.Error(), "csv") {
		t.Errorf("Error should name the format: %v", malformed)
	}
}
