package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/cropvault/pkg/crypto"
	"github.com/yeisme/cropvault/pkg/internal/model"
	dbc "github.com/yeisme/cropvault/pkg/internal/storage/db"
	"github.com/yeisme/cropvault/pkg/internal/storage/kv"
	"github.com/yeisme/cropvault/pkg/internal/tabular"
	"github.com/yeisme/cropvault/pkg/internal/types"
)

const testIterations = 10000

// newTestDB 内存 sqlite，迁移全部模型.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = gdb.AutoMigrate(
		&model.Dataset{},
		&model.DataRecord{},
		&model.CropImage{},
		&model.ImageMetadata{},
		&model.MappingFile{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return gdb
}

func newTestCodec(t *testing.T) *crypto.Codec {
	t.Helper()

	codec, err := crypto.NewCodec("test-secret", testIterations)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	return codec
}

func newTestService(t *testing.T) *DatasetService {
	t.Helper()

	return &DatasetService{
		dbClient: &dbc.Client{DB: newTestDB(t)},
		codec:    newTestCodec(t),
	}
}

func mapCSV(t *testing.T, csv string) []tabular.MappedRecord {
	t.Helper()

	table, err := tabular.Load([]byte(csv), "data.csv")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	records, _, err := tabular.MapRows(table)
	if err != nil {
		t.Fatalf("map: %v", err)
	}

	return records
}

const sampleCSV = `No.,F5 Code,6th Location,Fruit Weight (Kg),Seeds Quantity
1,WM-001,Field A,5.2,120
2,WM-002,Field B,4.8,95
3,WM-003,Field C,6.1,140
`

func seedDataset(t *testing.T, svc *DatasetService, user string) *model.Dataset {
	t.Helper()

	dataset := &model.Dataset{
		PublicID:    newPublicID(),
		User:        user,
		FileName:    "data.csv",
		FileType:    "csv",
		ContentHash: contentHash([]byte(sampleCSV)),
		Processed:   true,
		IsEncrypted: true,
	}

	if err := svc.dbClient.GetDB().Create(dataset).Error; err != nil {
		t.Fatalf("seed dataset: %v", err)
	}

	return dataset
}

func TestReconcileRecordsCreateThenUpdate(t *testing.T) {
	svc := newTestService(t)
	dataset := seedDataset(t, svc, "alice@example.com")
	records := mapCSV(t, sampleCSV)

	created, updated, err := reconcileRecords(svc.dbClient.GetDB(), dataset.ID, svc.codec, records)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if created != 3 || updated != 0 {
		t.Fatalf("first pass: created=%d updated=%d, want 3/0", created, updated)
	}

	// 同一批记录原样再跑一遍：没有任何变化，什么都不计
	created, updated, err = reconcileRecords(svc.dbClient.GetDB(), dataset.ID, svc.codec, records)
	if err != nil {
		t.Fatalf("reconcile again: %v", err)
	}

	if created != 0 || updated != 0 {
		t.Fatalf("identical pass: created=%d updated=%d, want 0/0", created, updated)
	}

	// 只改第二行的果重：恰好一条记录计为更新
	changed := mapCSV(t, strings.Replace(sampleCSV, "4.8", "5.0", 1))

	created, updated, err = reconcileRecords(svc.dbClient.GetDB(), dataset.ID, svc.codec, changed)
	if err != nil {
		t.Fatalf("reconcile changed: %v", err)
	}

	if created != 0 || updated != 1 {
		t.Fatalf("changed pass: created=%d updated=%d, want 0/1", created, updated)
	}

	var count int64
	if err := svc.dbClient.GetDB().Model(&model.DataRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	if count != 3 {
		t.Fatalf("record count = %d, want 3", count)
	}

	// 覆盖后的字段值落库生效
	var rec model.DataRecord
	if err := svc.dbClient.GetDB().Where("f5_code = ?", "WM-002").First(&rec).Error; err != nil {
		t.Fatalf("find record: %v", err)
	}

	if rec.FruitWeight == nil || *rec.FruitWeight != 5.0 {
		t.Fatalf("fruit weight = %v, want 5.0", rec.FruitWeight)
	}
}

func TestReconcilePreservesImageBinding(t *testing.T) {
	svc := newTestService(t)
	dataset := seedDataset(t, svc, "alice@example.com")
	records := mapCSV(t, sampleCSV)
	gdb := svc.dbClient.GetDB()

	if _, _, err := reconcileRecords(gdb, dataset.ID, svc.codec, records); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	// 给第一条记录绑一张图
	img := model.CropImage{User: dataset.User, SampleID: "WM-001"}
	if err := gdb.Create(&img).Error; err != nil {
		t.Fatalf("create image: %v", err)
	}

	err := gdb.Model(&model.DataRecord{}).
		Where("dataset_id = ? AND f5_code = ?", dataset.ID, "WM-001").
		Update("image_id", img.ID).Error
	if err != nil {
		t.Fatalf("bind image: %v", err)
	}

	// 重复上传改了这一行的数据，绑定也必须保留
	changed := mapCSV(t, strings.Replace(sampleCSV, "5.2", "5.5", 1))
	if _, _, err := reconcileRecords(gdb, dataset.ID, svc.codec, changed); err != nil {
		t.Fatalf("reconcile again: %v", err)
	}

	var rec model.DataRecord
	if err := gdb.Where("dataset_id = ? AND f5_code = ?", dataset.ID, "WM-001").First(&rec).Error; err != nil {
		t.Fatalf("find record: %v", err)
	}

	if rec.ImageID == nil || *rec.ImageID != img.ID {
		t.Fatalf("image binding lost after re-upload: %v", rec.ImageID)
	}
}

func TestReconcileEncryptsSensitivePayloads(t *testing.T) {
	svc := newTestService(t)
	dataset := seedDataset(t, svc, "alice@example.com")
	records := mapCSV(t, sampleCSV)
	gdb := svc.dbClient.GetDB()

	if _, _, err := reconcileRecords(gdb, dataset.ID, svc.codec, records); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	var rec model.DataRecord
	if err := gdb.Where("f5_code = ?", "WM-001").First(&rec).Error; err != nil {
		t.Fatalf("find record: %v", err)
	}

	if rec.EncryptedGeneticSignature == "" || rec.EncryptedBreedingData == "" {
		t.Fatal("sensitive payloads not stored")
	}

	// 落盘的是密文而不是 JSON 明文
	if strings.Contains(rec.EncryptedGeneticSignature, "WM-001") {
		t.Fatal("genetic signature stored in plaintext")
	}

	var sig tabular.GeneticSignature
	if err := svc.codec.DecryptInto(rec.EncryptedGeneticSignature, &sig); err != nil {
		t.Fatalf("decrypt signature: %v", err)
	}

	if sig.F5Code != "WM-001" || sig.BreedingCycle != "F5-F6" {
		t.Fatalf("unexpected signature: %+v", sig)
	}
}

func TestFindDatasetOwnerScoping(t *testing.T) {
	svc := newTestService(t)
	dataset := seedDataset(t, svc, "alice@example.com")
	ctx := context.Background()

	if _, err := svc.findDataset(ctx, "alice@example.com", dataset.PublicID); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}

	// 别人的数据集等同于不存在
	if _, err := svc.findDataset(ctx, "mallory@example.com", dataset.PublicID); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("foreign owner err = %v, want ErrNotFound", err)
	}

	if _, err := svc.findDataset(ctx, "alice@example.com", "01AAAAAAAAAAAAAAAAAAAAAAAA"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("missing id err = %v, want ErrNotFound", err)
	}
}

func TestGetRecordsOrderAndDecryption(t *testing.T) {
	svc := newTestService(t)
	dataset := seedDataset(t, svc, "alice@example.com")

	// 乱序 CSV，返回必须按 record_number 升序
	records := mapCSV(t, `No.,F5 Code
3,WM-003
1,WM-001
2,WM-002
`)

	if _, _, err := reconcileRecords(svc.dbClient.GetDB(), dataset.ID, svc.codec, records); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	resp, err := svc.GetRecords(context.Background(), "alice@example.com", dataset.PublicID)
	if err != nil {
		t.Fatalf("get records: %v", err)
	}

	if resp.Total != 3 {
		t.Fatalf("total = %d, want 3", resp.Total)
	}

	for i, rec := range resp.Records {
		if rec.RecordNumber != i+1 {
			t.Fatalf("records out of order: %d at index %d", rec.RecordNumber, i)
		}

		// 解密后的载荷应是结构化数据而不是密文字符串
		if _, ok := rec.GeneticSignature.(string); ok {
			t.Fatalf("genetic signature not decrypted for %s", rec.F5Code)
		}
	}
}

func TestMatchImagesCountMismatch(t *testing.T) {
	svc := &ImageService{DatasetService: newTestService(t)}
	dataset := seedDataset(t, svc.DatasetService, "alice@example.com")
	records := mapCSV(t, sampleCSV)

	if _, _, err := reconcileRecords(svc.dbClient.GetDB(), dataset.ID, svc.codec, records); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	// 2 张图对 3 条记录：任何写入前拒绝
	uploads := []ImageUpload{
		{FileName: "a.jpg", Data: []byte("x")},
		{FileName: "b.jpg", Data: []byte("y")},
	}

	_, err := svc.MatchImages(context.Background(), "alice@example.com", dataset.PublicID, uploads)

	var mismatch *types.CountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want CountMismatchError", err)
	}

	if mismatch.Images != 2 || mismatch.Records != 3 {
		t.Fatalf("mismatch = %+v", mismatch)
	}

	var count int64
	if err := svc.dbClient.GetDB().Model(&model.CropImage{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	if count != 0 {
		t.Fatalf("images written despite mismatch: %d", count)
	}
}

func TestStatsDashboardAndEncryption(t *testing.T) {
	base := newTestService(t)
	svc := &StatsService{DatasetService: base}
	gdb := base.dbClient.GetDB()
	user := "alice@example.com"

	datasets := []model.Dataset{
		{PublicID: newPublicID(), User: user, TotalRecords: 3, IsEncrypted: true, Processed: true},
		{PublicID: newPublicID(), User: user, TotalRecords: 2, IsEncrypted: true, Processed: true},
		{PublicID: newPublicID(), User: user, TotalRecords: 1, IsEncrypted: false, Processed: true},
		// 别人的数据不参与统计
		{PublicID: newPublicID(), User: "bob@example.com", TotalRecords: 9, IsEncrypted: true},
	}
	for i := range datasets {
		if err := gdb.Create(&datasets[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	stats, err := svc.Dashboard(context.Background(), user)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if stats.TotalDatasets != 3 || stats.TotalRecords != 6 || stats.EncryptedDatasets != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	// 2/3 = 66.67，保留两位小数
	if stats.EncryptionPercentage != 66.67 {
		t.Fatalf("percentage = %v, want 66.67", stats.EncryptionPercentage)
	}

	if stats.LastUploadAt == nil {
		t.Fatal("last upload time missing")
	}

	enc, err := svc.Encryption(context.Background(), user)
	if err != nil {
		t.Fatalf("encryption stats: %v", err)
	}

	if enc.TotalDatasets != 3 || enc.EncryptedDatasets != 2 {
		t.Fatalf("unexpected encryption stats: %+v", enc)
	}
}

func TestStatsEmptyUser(t *testing.T) {
	svc := &StatsService{DatasetService: newTestService(t)}

	stats, err := svc.Dashboard(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if stats.TotalDatasets != 0 || stats.EncryptionPercentage != 0 {
		t.Fatalf("empty user stats: %+v", stats)
	}

	if stats.LastUploadAt != nil {
		t.Fatal("last upload should be nil for empty user")
	}
}

func TestVerifyCodeLifecycle(t *testing.T) {
	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("memory kv: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	svc := &VerifyService{kvc: &kv.Client{KVStore: store}}
	ctx := context.Background()
	user := "alice@example.com"

	resp, err := svc.RequestCode(ctx, user, "download")
	if err != nil {
		t.Fatalf("request code: %v", err)
	}

	if resp.ExpiresIn != int(OTPTTL.Seconds()) {
		t.Fatalf("expires_in = %d", resp.ExpiresIn)
	}

	// 从存储取出签发的码
	code, err := store.Get(ctx, makeOTPKey(user, "download"))
	if err != nil || len(code) != OTPDigits {
		t.Fatalf("stored code: %q err=%v", code, err)
	}

	// 错误的码不通过，也不消费
	v, err := svc.VerifyCode(ctx, user, "download", "000000x")
	if err != nil || v.Valid {
		t.Fatalf("wrong code: valid=%v err=%v", v, err)
	}

	// 正确的码通过且只能用一次
	v, err = svc.VerifyCode(ctx, user, "download", string(code))
	if err != nil || !v.Valid {
		t.Fatalf("right code: valid=%v err=%v", v, err)
	}

	v, err = svc.VerifyCode(ctx, user, "download", string(code))
	if err != nil || v.Valid {
		t.Fatal("code reusable after consume")
	}
}

func TestUploadDatasetReuploadSemantics(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := "alice@example.com"

	first, err := svc.UploadDataset(ctx, user, "harvest.csv", []byte(sampleCSV), "text/csv")
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}

	if first.Created != 3 || first.Updated != 0 || first.IsUpdate {
		t.Fatalf("first upload: %+v", first)
	}

	// 同名文件、只改第二行果重：同一个数据集，恰好一条记录更新
	changedCSV := strings.Replace(sampleCSV, "4.8", "5.0", 1)

	second, err := svc.UploadDataset(ctx, user, "harvest.csv", []byte(changedCSV), "text/csv")
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	if second.PublicID != first.PublicID {
		t.Fatalf("re-upload created a new dataset: %s vs %s", second.PublicID, first.PublicID)
	}

	if second.Created != 0 || second.Updated != 1 || !second.IsUpdate {
		t.Fatalf("changed re-upload: created=%d updated=%d is_update=%v, want 0/1/true",
			second.Created, second.Updated, second.IsUpdate)
	}

	// 原样重传：无事发生
	third, err := svc.UploadDataset(ctx, user, "harvest.csv", []byte(changedCSV), "text/csv")
	if err != nil {
		t.Fatalf("third upload: %v", err)
	}

	if third.Created != 0 || third.Updated != 0 || third.IsUpdate {
		t.Fatalf("no-op re-upload: created=%d updated=%d is_update=%v, want 0/0/false",
			third.Created, third.Updated, third.IsUpdate)
	}

	var datasets int64
	if err := svc.dbClient.GetDB().Model(&model.Dataset{}).Count(&datasets).Error; err != nil {
		t.Fatalf("count datasets: %v", err)
	}

	if datasets != 1 {
		t.Fatalf("dataset count = %d, want 1", datasets)
	}

	var records int64
	if err := svc.dbClient.GetDB().Model(&model.DataRecord{}).Count(&records).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}

	if records != 3 {
		t.Fatalf("record count = %d, want 3", records)
	}
}

func TestUploadDatasetRollbackKeepsNothing(t *testing.T) {
	svc := newTestService(t)
	gdb := svc.dbClient.GetDB()

	// 记录表缺失使事务必然失败
	if err := gdb.Migrator().DropTable(&model.DataRecord{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	_, err := svc.UploadDataset(context.Background(), "alice@example.com",
		"harvest.csv", []byte(sampleCSV), "text/csv")
	if err == nil {
		t.Fatal("upload should fail without records table")
	}

	// 回滚后不能留下半个数据集
	var datasets int64
	if err := gdb.Model(&model.Dataset{}).Count(&datasets).Error; err != nil {
		t.Fatalf("count datasets: %v", err)
	}

	if datasets != 0 {
		t.Fatalf("dataset count = %d after rollback, want 0", datasets)
	}
}

func TestMatchImagesPositionalBinding(t *testing.T) {
	svc := &ImageService{DatasetService: newTestService(t)}
	dataset := seedDataset(t, svc.DatasetService, "alice@example.com")
	gdb := svc.dbClient.GetDB()

	// 乱序入库，绑定必须跟 record_number 升序走
	records := mapCSV(t, `No.,F5 Code
3,WM-003
1,WM-001
2,WM-002
`)

	if _, _, err := reconcileRecords(gdb, dataset.ID, svc.codec, records); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	uploads := []ImageUpload{
		{FileName: "first.jpg", ContentType: "image/jpeg", Data: []byte("1")},
		{FileName: "second.jpg", ContentType: "image/jpeg", Data: []byte("2")},
		{FileName: "third.jpg", ContentType: "image/jpeg", Data: []byte("3")},
	}

	resp, err := svc.MatchImages(context.Background(), "alice@example.com", dataset.PublicID, uploads)
	if err != nil {
		t.Fatalf("match: %v", err)
	}

	if resp.Matched != 3 {
		t.Fatalf("matched = %d, want 3", resp.Matched)
	}

	// 第 i 张图绑在 record_number 第 i 小的记录上
	var ordered []model.DataRecord
	if err := gdb.Where("dataset_id = ?", dataset.ID).
		Order("record_number ASC").Find(&ordered).Error; err != nil {
		t.Fatalf("list records: %v", err)
	}

	for i := range ordered {
		rec := &ordered[i]
		if rec.ImageID == nil {
			t.Fatalf("record %d not bound", rec.RecordNumber)
		}

		var img model.CropImage
		if err := gdb.First(&img, *rec.ImageID).Error; err != nil {
			t.Fatalf("load image: %v", err)
		}

		if img.SampleID != rec.F5Code {
			t.Fatalf("record %s bound to image of %s", rec.F5Code, img.SampleID)
		}

		want := "Genetic Record " + strconv.Itoa(rec.RecordNumber)
		if !strings.Contains(img.Description, want) {
			t.Fatalf("description %q missing %q", img.Description, want)
		}
	}
}

func TestDeleteDatasetCascade(t *testing.T) {
	svc := newTestService(t)
	dataset := seedDataset(t, svc, "alice@example.com")
	records := mapCSV(t, sampleCSV)
	gdb := svc.dbClient.GetDB()

	if _, _, err := reconcileRecords(gdb, dataset.ID, svc.codec, records); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	// 两张带元数据的图
	for _, sample := range []string{"WM-001", "WM-002"} {
		img := model.CropImage{User: dataset.User, SampleID: sample, DatasetID: &dataset.ID}
		if err := gdb.Create(&img).Error; err != nil {
			t.Fatalf("create image: %v", err)
		}

		meta := model.ImageMetadata{CropImageID: img.ID, Label: "Rind Color", Value: "dark green"}
		if err := gdb.Create(&meta).Error; err != nil {
			t.Fatalf("create metadata: %v", err)
		}
	}

	resp, err := svc.DeleteDataset(context.Background(), "alice@example.com", dataset.PublicID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	if resp.RecordCount != 3 || resp.ImagesDeleted != 2 {
		t.Fatalf("delete response: %+v", resp)
	}

	counts := map[string]any{
		"datasets": &model.Dataset{},
		"records":  &model.DataRecord{},
		"images":   &model.CropImage{},
		"metadata": &model.ImageMetadata{},
	}
	for name, m := range counts {
		var n int64
		if err := gdb.Unscoped().Model(m).Count(&n).Error; err != nil {
			t.Fatalf("count %s: %v", name, err)
		}

		if n != 0 {
			t.Fatalf("%s left behind after cascade: %d", name, n)
		}
	}
}

func TestCleanupUnprocessed(t *testing.T) {
	svc := newTestService(t)
	gdb := svc.dbClient.GetDB()

	stale := model.Dataset{PublicID: newPublicID(), User: "a@example.com", Processed: false}
	fresh := model.Dataset{PublicID: newPublicID(), User: "a@example.com", Processed: false}
	done := model.Dataset{PublicID: newPublicID(), User: "a@example.com", Processed: true}

	for _, d := range []*model.Dataset{&stale, &fresh, &done} {
		if err := gdb.Create(d).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	// 把 stale 的创建时间拨回两天前
	old := time.Now().Add(-48 * time.Hour)
	if err := gdb.Model(&stale).Update("created_at", old).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	// s3 未配置时清理依然要能跑（残留可能根本没有对象）
	svc.s3Client = nil

	n, err := svc.CleanupUnprocessed(context.Background(), time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if n != 1 {
		t.Fatalf("cleaned = %d, want 1", n)
	}

	var count int64
	if err := gdb.Model(&model.Dataset{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	if count != 2 {
		t.Fatalf("remaining = %d, want 2", count)
	}
}
