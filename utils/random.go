package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// RandomString sinh chuỗi ngẫu nhiên URL-safe, dùng cho token reset mật khẩu.
func RandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}
