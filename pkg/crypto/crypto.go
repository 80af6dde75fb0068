// Package crypto 提供敏感基因数据的静态加密编解码器.
// 密钥由配置的 secret 经 PBKDF2-HMAC-SHA256 派生一次，密文以 URL 安全的
// Base64 字符串形式存储在数据库中，对上层完全不透明.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"golang.org/x/crypto/pbkdf2"
)

// keySalt 密钥派生盐值，固定不变；更换会导致历史密文无法解密.
var keySalt = []byte("cropvault_genetic_salt")

const keyLen = 32 // AES-256

var ErrEmptyCiphertext = errors.New("crypto: empty ciphertext")

// Codec 持有派生后的对称密钥，并发安全.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec 根据 secret 派生密钥并构建编解码器.
func NewCodec(secret string, iterations int) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("crypto: secret is required")
	}

	key := pbkdf2.Key([]byte(secret), keySalt, iterations, keyLen, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: new gcm: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encrypt 加密原始字节，随机 nonce 前置于密文.
func (c *Codec) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("crypto: nonce: %w", err)
	}

	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt 解密 Encrypt 产生的字节.
func (c *Codec) Decrypt(ciphertext []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(ciphertext) <= ns {
		return nil, ErrEmptyCiphertext
	}

	plaintext, err := c.aead.Open(nil, ciphertext[:ns], ciphertext[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("crypto: open: %w", err)
	}

	return plaintext, nil
}

// DecryptOrRaw 解密 Encrypt 产生的字节，解不开时原样返回输入.
// 用于读取可能早于加密启用就已落盘的历史对象.
func (c *Codec) DecryptOrRaw(data []byte) []byte {
	plain, err := c.Decrypt(data)
	if err != nil {
		return data
	}

	return plain
}

// EncryptJSON 将任意可序列化对象加密为不透明字符串.
// 序列化失败或加密失败返回错误，绝不静默落盘明文.
func (c *Codec) EncryptJSON(v any) (string, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("crypto: marshal: %w", err)
	}

	ct, err := c.Encrypt(raw)
	if err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(ct), nil
}

// DecryptJSON 解密 EncryptJSON 产生的字符串并反序列化.
// 任何一步失败都返回输入本身，调用方永远拿到可展示的值。
// 这使历史上未加密的明文字段可以原样读出.
func (c *Codec) DecryptJSON(s string) any {
	ct, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return s
	}

	raw, err := c.Decrypt(ct)
	if err != nil {
		return s
	}

	var v any
	if err := sonic.Unmarshal(raw, &v); err != nil {
		return s
	}

	return v
}

// DecryptInto 解密并反序列化到指定结构，失败时返回错误而不是回退.
// 用于下载等必须拿到结构化明文的路径.
func (c *Codec) DecryptInto(s string, out any) error {
	ct, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("crypto: decode: %w", err)
	}

	raw, err := c.Decrypt(ct)
	if err != nil {
		return err
	}

	return sonic.Unmarshal(raw, out)
}
