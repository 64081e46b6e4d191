package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignaturePrefix precedes the hex digest in signature headers
const SignaturePrefix = "sha256="

// GenerateHMAC generates a hex HMAC-SHA256 of payload
func GenerateHMAC(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// SignatureHeader formats the signature header value for payload
func SignatureHeader(payload []byte, secret string) string {
	return SignaturePrefix + GenerateHMAC(payload, secret)
}

// VerifySignature checks a header produced by SignatureHeader in constant time
func VerifySignature(payload []byte, secret, header string) bool {
	digest, ok := strings.CutPrefix(header, SignaturePrefix)
	if !ok {
		return false
	}
	got, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(GenerateHMAC(payload, secret))
	return hmac.Equal(got, want)
}
