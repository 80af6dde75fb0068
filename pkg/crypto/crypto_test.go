package crypto_test

import (
	"testing"

	"github.com/yeisme/cropvault/pkg/crypto"
)

func newTestCodec(t *testing.T) *crypto.Codec {
	t.Helper()

	c, err := crypto.NewCodec("test-secret", 1000)
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	return c
}

// TestNewCodec_EmptySecret 测试空密钥返回错误.
func TestNewCodec_EmptySecret(t *testing.T) {
	if _, err := crypto.NewCodec("", 1000); err == nil {
		t.Fatal("Expected error for empty secret")
	}
}

// TestEncryptDecrypt_RoundTrip 测试字节级加解密往返.
func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	plain := []byte("F5-2024-0017")

	ct, err := c.Encrypt(plain)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if string(ct) == string(plain) {
		t.Error("Ciphertext equals plaintext")
	}

	got, err := c.Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}

	if string(got) != string(plain) {
		t.Errorf("Round trip mismatch: got %q, want %q", got, plain)
	}
}

// TestDecryptOrRaw 密文还原明文，历史明文对象原样透传.
func TestDecryptOrRaw(t *testing.T) {
	c := newTestCodec(t)

	plain := []byte("No.,F5 Code\n1,WM-001\n")

	ct, err := c.Encrypt(plain)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if got := c.DecryptOrRaw(ct); string(got) != string(plain) {
		t.Errorf("DecryptOrRaw(ciphertext) = %q, want %q", got, plain)
	}

	// 加密启用前落盘的对象就是明文本身
	if got := c.DecryptOrRaw(plain); string(got) != string(plain) {
		t.Errorf("DecryptOrRaw(plaintext) = %q, want passthrough", got)
	}
}

// TestEncrypt_NonceUnique 测试相同明文两次加密产生不同密文.
func TestEncrypt_NonceUnique(t *testing.T) {
	c := newTestCodec(t)

	ct1, err := c.Encrypt([]byte("same"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	ct2, err := c.Encrypt([]byte("same"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if string(ct1) == string(ct2) {
		t.Error("Two encryptions of same plaintext produced identical ciphertext")
	}
}

// TestEncryptJSON_RoundTrip 测试结构化对象加密后可解密还原.
func TestEncryptJSON_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	sig := map[string]any{
		"f5_code":        "F5-001",
		"f6_full_name":   "Citrullus lanatus 6-A",
		"location":       "Field 6",
		"breeding_cycle": "F5-F6",
	}

	opaque, err := c.EncryptJSON(sig)
	if err != nil {
		t.Fatalf("EncryptJSON failed: %v", err)
	}

	got := c.DecryptJSON(opaque)

	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("DecryptJSON returned %T, want map", got)
	}

	if m["f5_code"] != "F5-001" || m["breeding_cycle"] != "F5-F6" {
		t.Errorf("Decrypted payload mismatch: %+v", m)
	}
}

// TestDecryptJSON_Passthrough 测试解密失败时原样返回输入.
func TestDecryptJSON_Passthrough(t *testing.T) {
	c := newTestCodec(t)

	cases := []string{
		"plain legacy value",       // 非 base64
		"bm90LWEtY2lwaGVydGV4dA==", // base64 但不是密文
		"",
	}

	for _, in := range cases {
		got := c.DecryptJSON(in)

		s, ok := got.(string)
		if !ok {
			t.Errorf("DecryptJSON(%q) returned %T, want string passthrough", in, got)

			continue
		}

		if s != in {
			t.Errorf("DecryptJSON(%q) = %q, want input unchanged", in, s)
		}
	}
}

// TestDecryptJSON_WrongKey 测试密钥不匹配时回退为原文.
func TestDecryptJSON_WrongKey(t *testing.T) {
	c1 := newTestCodec(t)

	c2, err := crypto.NewCodec("another-secret", 1000)
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	opaque, err := c1.EncryptJSON(map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("EncryptJSON failed: %v", err)
	}

	got := c2.DecryptJSON(opaque)
	if s, ok := got.(string); !ok || s != opaque {
		t.Errorf("Expected passthrough of opaque string, got %v", got)
	}
}

// TestDecryptInto 测试强制解密到结构体.
func TestDecryptInto(t *testing.T) {
	c := newTestCodec(t)

	type breeding struct {
		PollinationDate string `json:"pollination_date"`
		HarvestDate     string `json:"harvest_date"`
	}

	opaque, err := c.EncryptJSON(breeding{PollinationDate: "2024-05-01", HarvestDate: "2024-08-12"})
	if err != nil {
		t.Fatalf("EncryptJSON failed: %v", err)
	}

	var out breeding
	if err := c.DecryptInto(opaque, &out); err != nil {
		t.Fatalf("DecryptInto failed: %v", err)
	}

	if out.PollinationDate != "2024-05-01" || out.HarvestDate != "2024-08-12" {
		t.Errorf("DecryptInto mismatch: %+v", out)
	}

	if err := c.DecryptInto("garbage", &out); err == nil {
		t.Error("Expected error for invalid input")
	}
}
