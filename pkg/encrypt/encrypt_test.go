package encrypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	// sha3-256("")
	assert.Equal(t, "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a", Fingerprint(nil))

	fp := Fingerprint([]byte("signature"))
	assert.Len(t, fp, 64)
	assert.NoError(t, VerifyFingerprint([]byte("signature"), fp))
	assert.ErrorIs(t, VerifyFingerprint([]byte("tampered"), fp), ErrFingerprintMismatch)
}
