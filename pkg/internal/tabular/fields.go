package tabular

// FieldKind 字段的目标类型.
type FieldKind int

const (
	KindString FieldKind = iota
	KindFloat
	KindInt
	KindDate
)

// Field 字段字典中的一项：表头原文到内部字段名的映射.
type Field struct {
	Column string // 表头原文，精确匹配
	Name   string // 内部字段名
	Kind   FieldKind
}

// 必需列. 缺失任何一个都会使整个文件被拒绝.
const (
	ColumnRecordNumber = "No."
	ColumnF5Code       = "F5 Code"
)

// RequiredColumns 上传文件必须包含的列.
var RequiredColumns = []string{ColumnRecordNumber, ColumnF5Code}

// OptionalFields 可选字段字典.
// 表头来自田间采集模板，调整时必须与采集方同步.
var OptionalFields = []Field{
	{Column: "6th Location", Name: "location", Kind: KindString},
	{Column: "F5 Fruit #", Name: "f5_fruit_number", Kind: KindString},
	{Column: "F6 Full Name", Name: "f6_full_name", Kind: KindString},
	{Column: "6th Code", Name: "sixth_code", Kind: KindString},
	{Column: "Fruit No.", Name: "fruit_number", Kind: KindString},
	{Column: "Polli.Date(2024)", Name: "pollination_date", Kind: KindDate},
	{Column: "Har.Date(2024)", Name: "harvest_date", Kind: KindDate},
	{Column: "Pedicel Length (cm)", Name: "pedicel_length", Kind: KindFloat},
	{Column: "Pedicel Width (mm)", Name: "pedicel_width", Kind: KindFloat},
	{Column: "Size of Insertion Peduncle (mm)", Name: "insertion_peduncle_size", Kind: KindFloat},
	{Column: "Fruit Weight (Kg)", Name: "fruit_weight", Kind: KindFloat},
	{Column: "Fruit Length (cm)", Name: "fruit_length", Kind: KindFloat},
	{Column: "Fruit Width (cm)", Name: "fruit_width", Kind: KindFloat},
	{Column: "Rind Thickness (mm)", Name: "rind_thickness", Kind: KindFloat},
	{Column: "Rind Hardness (Kpa)", Name: "rind_hardness", Kind: KindFloat},
	{Column: "Size of Apex (mm)", Name: "apex_size", Kind: KindFloat},
	{Column: "Rind Stripe", Name: "rind_stripe", Kind: KindString},
	{Column: "Flesh Hardness", Name: "flesh_hardness", Kind: KindString},
	{Column: "Flesh Color", Name: "flesh_color", Kind: KindString},
	{Column: "Flesh sugar content Brix (%)", Name: "brix_content", Kind: KindFloat},
	{Column: "Seeds Quantity", Name: "seeds_quantity", Kind: KindInt},
	{Column: "Remained Seeds", Name: "remained_seeds", Kind: KindInt},
}
