package tabular_test

import (
	"errors"
	"testing"

	"github.com/yeisme/cropvault/pkg/internal/tabular"
)

func loadTable(t *testing.T, csv string) *tabular.Table {
	t.Helper()

	tbl, err := tabular.Load([]byte(csv), "test.csv")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	return tbl
}

// TestMapRows_Basic 测试完整行的类型化映射.
func TestMapRows_Basic(t *testing.T) {
	tbl := loadTable(t, sampleCSV)

	records, report, err := tabular.MapRows(tbl)
	if err != nil {
		t.Fatalf("MapRows failed: %v", err)
	}

	if report.Mapped != 2 || report.TotalRows != 2 {
		t.Errorf("Unexpected report: %+v", report)
	}

	rec := records[0]
	if rec.RecordNumber != 1 || rec.F5Code != "F5-001" {
		t.Errorf("Required fields mismatch: %+v", rec)
	}

	if rec.Location != "Field 6" {
		t.Errorf("Location = %q", rec.Location)
	}

	if rec.FruitWeight == nil || *rec.FruitWeight != 8.2 {
		t.Errorf("FruitWeight = %v", rec.FruitWeight)
	}

	if rec.SeedsQuantity == nil || *rec.SeedsQuantity != 120 {
		t.Errorf("SeedsQuantity = %v", rec.SeedsQuantity)
	}

	if rec.PollinationDate == nil || rec.PollinationDate.Format("2006-01-02") != "2024-05-01" {
		t.Errorf("PollinationDate = %v", rec.PollinationDate)
	}
}

// TestMapRows_MissingColumns 测试缺失必需列时列出全部缺失项.
func TestMapRows_MissingColumns(t *testing.T) {
	tbl := loadTable(t, "6th Location,Fruit Weight (Kg)\nField 6,8.2\n")

	_, _, err := tabular.MapRows(tbl)

	var missing *tabular.MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingColumnsError, got %v", err)
	}

	if len(missing.Columns) != 2 {
		t.Errorf("Expected both required columns reported, got %v", missing.Columns)
	}
}

// TestMapRows_DroppedValues 测试无法强转的可选值被丢弃但行保留.
func TestMapRows_DroppedValues(t *testing.T) {
	csv := "No.,F5 Code,Fruit Weight (Kg),Seeds Quantity\n" +
		"1,F5-001,not-a-number,abc\n"

	records, report, err := tabular.MapRows(loadTable(t, csv))
	if err != nil {
		t.Fatalf("MapRows failed: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("Row should survive dropped values, got %d records", len(records))
	}

	if records[0].FruitWeight != nil || records[0].SeedsQuantity != nil {
		t.Error("Uncoercible values should stay unset")
	}

	if report.DroppedValues["fruit_weight"] != 1 || report.DroppedValues["seeds_quantity"] != 1 {
		t.Errorf("Dropped values not counted: %+v", report.DroppedValues)
	}
}

// TestMapRows_SkipBadRows 测试必需字段无效的行被整行跳过.
func TestMapRows_SkipBadRows(t *testing.T) {
	csv := "No.,F5 Code\n" +
		"x,F5-001\n" + // 记录号无效
		"2,\n" + // F5 Code 为空
		"3,F5-003\n"

	records, report, err := tabular.MapRows(loadTable(t, csv))
	if err != nil {
		t.Fatalf("MapRows failed: %v", err)
	}

	if len(records) != 1 || records[0].F5Code != "F5-003" {
		t.Errorf("Expected only valid row, got %+v", records)
	}

	if report.SkippedRows != 2 {
		t.Errorf("SkippedRows = %d, want 2", report.SkippedRows)
	}
}

// TestMapRows_NoValidRecords 测试全部行无效时返回 ErrNoValidRecords.
func TestMapRows_NoValidRecords(t *testing.T) {
	csv := "No.,F5 Code\nx,\ny,\n"

	_, _, err := tabular.MapRows(loadTable(t, csv))
	if !errors.Is(err, tabular.ErrNoValidRecords) {
		t.Errorf("Expected ErrNoValidRecords, got %v", err)
	}
}

// TestMapRows_FloatStyleInt 测试 "7.0" 形式的整数列.
func TestMapRows_FloatStyleInt(t *testing.T) {
	csv := "No.,F5 Code,Seeds Quantity\n1.0,F5-001,98.0\n"

	records, _, err := tabular.MapRows(loadTable(t, csv))
	if err != nil {
		t.Fatalf("MapRows failed: %v", err)
	}

	if records[0].RecordNumber != 1 {
		t.Errorf("RecordNumber = %d", records[0].RecordNumber)
	}

	if records[0].SeedsQuantity == nil || *records[0].SeedsQuantity != 98 {
		t.Errorf("SeedsQuantity = %v", records[0].SeedsQuantity)
	}
}

// TestSignatureAndBreeding 测试敏感载荷的构造.
func TestSignatureAndBreeding(t *testing.T) {
	csv := "No.,F5 Code,F6 Full Name,6th Location,Fruit Weight (Kg),Fruit Length (cm),Flesh sugar content Brix (%)\n" +
		"1,F5-001,Lanatus 6A,Field 6,8.2,30.5,11.2\n"

	records, _, err := tabular.MapRows(loadTable(t, csv))
	if err != nil {
		t.Fatalf("MapRows failed: %v", err)
	}

	sig := records[0].Signature()
	if sig.BreedingCycle != "F5-F6" || sig.F5Code != "F5-001" || sig.Location != "Field 6" {
		t.Errorf("Signature mismatch: %+v", sig)
	}

	breeding := records[0].Breeding()
	if breeding.GeneticTraits.FruitWeight == nil || *breeding.GeneticTraits.FruitWeight != 8.2 {
		t.Errorf("Breeding fruit weight mismatch: %+v", breeding.GeneticTraits)
	}

	if breeding.PollinationDate != nil {
		t.Error("Absent date should stay nil")
	}

	if breeding.GeneticTraits.QualityMetrics.BrixContent == nil {
		t.Error("Brix content should be set")
	}
}
