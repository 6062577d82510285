package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// RFC 7636 对 code_verifier 长度的要求
const (
	MinVerifierLength = 43
	MaxVerifierLength = 128
)

const unreservedChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._~"

// PKCE 授权码流程参数
type PKCE struct {
	Verifier  string
	Challenge string
}

// NewPKCE 生成 verifier 与对应的 S256 challenge
func NewPKCE(length int) (*PKCE, error) {
	if length < MinVerifierLength || length > MaxVerifierLength {
		return nil, fmt.Errorf("verifier 长度需在 %d-%d 之间，当前 %d", MinVerifierLength, MaxVerifierLength, length)
	}
	verifier, err := GenerateRandomString(length)
	if err != nil {
		return nil, err
	}
	return &PKCE{Verifier: verifier, Challenge: GenerateCodeChallenge(verifier)}, nil
}

// GenerateRandomString 生成指定长度的随机字符串 (用于 verifier 和 state)
// 丢弃 >= 198 的字节，保证 66 个字符等概率
func GenerateRandomString(length int) (string, error) {
	limit := byte(256 - 256%len(unreservedChars))
	result := make([]byte, 0, length)
	buf := make([]byte, length)

	for len(result) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			result = append(result, unreservedChars[int(b)%len(unreservedChars)])
			if len(result) == length {
				break
			}
		}
	}
	return string(result), nil
}

// GenerateCodeChallenge Base64UrlEncode(SHA256(ASCII(verifier)))
// Etsy 要求不带填充符
func GenerateCodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
