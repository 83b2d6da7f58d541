package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// APIKeyBytes 随机字节数（base64url 后 43 字符）
const APIKeyBytes = 32

// NewAPIKey 生成 URL 安全的随机 key
func NewAPIKey() (string, error) {
	b := make([]byte, APIKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// FingerprintAPIKey 库里只存 SHA-256，明文 key 只返回给调用方一次
func FingerprintAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
