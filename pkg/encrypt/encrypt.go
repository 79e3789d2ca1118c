package encrypt

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/sha3"
)

// ErrFingerprintMismatch 內容與紀錄的指紋不符
var ErrFingerprintMismatch = errors.New("fingerprint does not match")

// Fingerprint 計算內容的 sha3-256 hex 指紋
func Fingerprint(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyFingerprint 以 constant time 比對內容與指紋
func VerifyFingerprint(data []byte, fingerprint string) error {
	if subtle.ConstantTimeCompare([]byte(Fingerprint(data)), []byte(fingerprint)) != 1 {
		return ErrFingerprintMismatch
	}
	return nil
}
