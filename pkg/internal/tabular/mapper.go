package tabular

import (
	"strconv"
	"strings"
	"time"

	nlog "github.com/yeisme/cropvault/pkg/log"
)

// MappedRecord 一行映射后的类型化基因记录.
// 可选数值/日期字段用指针区分"未提供"和零值.
type MappedRecord struct {
	RecordNumber int
	F5Code       string

	Location              string
	F5FruitNumber         string
	F6FullName            string
	SixthCode             string
	FruitNumber           string
	PollinationDate       *time.Time
	HarvestDate           *time.Time
	PedicelLength         *float64
	PedicelWidth          *float64
	InsertionPeduncleSize *float64
	FruitWeight           *float64
	FruitLength           *float64
	FruitWidth            *float64
	RindThickness         *float64
	RindHardness          *float64
	ApexSize              *float64
	RindStripe            string
	FleshHardness         string
	FleshColor            string
	BrixContent           *float64
	SeedsQuantity         *int
	RemainedSeeds         *int
}

// MapReport 映射统计，供上传响应和日志使用.
type MapReport struct {
	TotalRows     int            // 输入数据行数
	Mapped        int            // 成功映射的记录数
	SkippedRows   int            // 整行被跳过的行数
	DroppedValues map[string]int // 字段名 -> 被丢弃的无法强转的单元格数
}

// dateLayouts 日期解析顺序，第一个命中即停.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"2-Jan-06",
	"Jan 2, 2006",
}

// MapRows 按字段字典把表格映射为类型化记录.
// 必需列缺失返回 *MissingColumnsError；单元格级失败只丢弃该值；
// 整行失败只跳过该行；全部行失败返回 ErrNoValidRecords.
func MapRows(t *Table) ([]MappedRecord, MapReport, error) {
	report := MapReport{
		TotalRows:     len(t.Rows),
		DroppedValues: make(map[string]int),
	}

	var missing []string

	for _, col := range RequiredColumns {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return nil, report, &MissingColumnsError{Columns: missing}
	}

	records := make([]MappedRecord, 0, len(t.Rows))

	for i, row := range t.Rows {
		rec, ok := mapRow(t, row, &report)
		if !ok {
			report.SkippedRows++

			nlog.Logger().Warn().Int("row", i+2).Msg("skipping unmappable row")

			continue
		}

		records = append(records, rec)
	}

	report.Mapped = len(records)

	if len(records) == 0 {
		return nil, report, ErrNoValidRecords
	}

	return records, report, nil
}

func mapRow(t *Table, row Row, report *MapReport) (MappedRecord, bool) {
	var rec MappedRecord

	num, err := parseInt(row[ColumnRecordNumber])
	if err != nil {
		return rec, false
	}

	rec.RecordNumber = num

	rec.F5Code = strings.TrimSpace(row[ColumnF5Code])
	if rec.F5Code == "" {
		return rec, false
	}

	for _, f := range OptionalFields {
		if !t.HasColumn(f.Column) {
			continue
		}

		raw := strings.TrimSpace(row[f.Column])
		if raw == "" {
			continue
		}

		if err := assignField(&rec, f, raw); err != nil {
			report.DroppedValues[f.Name]++
		}
	}

	return rec, true
}

//nolint:cyclop // 字段字典展开，每个分支都是一次直接赋值
func assignField(rec *MappedRecord, f Field, raw string) error {
	switch f.Kind {
	case KindString:
		switch f.Name {
		case "location":
			rec.Location = raw
		case "f5_fruit_number":
			rec.F5FruitNumber = raw
		case "f6_full_name":
			rec.F6FullName = raw
		case "sixth_code":
			rec.SixthCode = raw
		case "fruit_number":
			rec.FruitNumber = raw
		case "rind_stripe":
			rec.RindStripe = raw
		case "flesh_hardness":
			rec.FleshHardness = raw
		case "flesh_color":
			rec.FleshColor = raw
		}

		return nil
	case KindFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}

		switch f.Name {
		case "pedicel_length":
			rec.PedicelLength = &v
		case "pedicel_width":
			rec.PedicelWidth = &v
		case "insertion_peduncle_size":
			rec.InsertionPeduncleSize = &v
		case "fruit_weight":
			rec.FruitWeight = &v
		case "fruit_length":
			rec.FruitLength = &v
		case "fruit_width":
			rec.FruitWidth = &v
		case "rind_thickness":
			rec.RindThickness = &v
		case "rind_hardness":
			rec.RindHardness = &v
		case "apex_size":
			rec.ApexSize = &v
		case "brix_content":
			rec.BrixContent = &v
		}

		return nil
	case KindInt:
		v, err := parseInt(raw)
		if err != nil {
			return err
		}

		switch f.Name {
		case "seeds_quantity":
			rec.SeedsQuantity = &v
		case "remained_seeds":
			rec.RemainedSeeds = &v
		}

		return nil
	case KindDate:
		d, err := parseDate(raw)
		if err != nil {
			return err
		}

		switch f.Name {
		case "pollination_date":
			rec.PollinationDate = &d
		case "harvest_date":
			rec.HarvestDate = &d
		}

		return nil
	}

	return nil
}

// parseInt 接受 "7" 和 "7.0" 两种写法，与采集表格导出行为保持兼容.
func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)

	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	return int(f), nil
}

func parseDate(s string) (time.Time, error) {
	var lastErr error

	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, lastErr
}

// GeneticSignature 敏感身份信息，仅以密文形式落盘.
type GeneticSignature struct {
	F5Code        string `json:"f5_code"`
	F6FullName    string `json:"f6_full_name"`
	Location      string `json:"location"`
	BreedingCycle string `json:"breeding_cycle"`
}

// BreedingData 敏感培育信息，仅以密文形式落盘.
type BreedingData struct {
	PollinationDate *string       `json:"pollination_date"`
	HarvestDate     *string       `json:"harvest_date"`
	GeneticTraits   GeneticTraits `json:"genetic_traits"`
}

// GeneticTraits 培育性状子对象.
type GeneticTraits struct {
	FruitWeight     *float64        `json:"fruit_weight"`
	FruitDimensions FruitDimensions `json:"fruit_dimensions"`
	QualityMetrics  QualityMetrics  `json:"quality_metrics"`
}

type FruitDimensions struct {
	Length *float64 `json:"length"`
	Width  *float64 `json:"width"`
}

type QualityMetrics struct {
	BrixContent   *float64 `json:"brix_content"`
	FleshColor    string   `json:"flesh_color"`
	FleshHardness string   `json:"flesh_hardness"`
}

// Signature 构造记录的基因签名载荷.
func (r *MappedRecord) Signature() GeneticSignature {
	return GeneticSignature{
		F5Code:        r.F5Code,
		F6FullName:    r.F6FullName,
		Location:      r.Location,
		BreedingCycle: "F5-F6",
	}
}

// Breeding 构造记录的培育数据载荷.
func (r *MappedRecord) Breeding() BreedingData {
	return BreedingData{
		PollinationDate: dateString(r.PollinationDate),
		HarvestDate:     dateString(r.HarvestDate),
		GeneticTraits: GeneticTraits{
			FruitWeight: r.FruitWeight,
			FruitDimensions: FruitDimensions{
				Length: r.FruitLength,
				Width:  r.FruitWidth,
			},
			QualityMetrics: QualityMetrics{
				BrixContent:   r.BrixContent,
				FleshColor:    r.FleshColor,
				FleshHardness: r.FleshHardness,
			},
		},
	}
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}

	s := t.Format("2006-01-02")

	return &s
}
