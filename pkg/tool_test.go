package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"u1", "u2"}, "u2"))
	assert.False(t, Contains([]string{"u1"}, "u3"))
	assert.False(t, Contains(nil, "u1"))
}

func TestNowMilli(t *testing.T) {
	before := time.Now().UnixMilli()
	n := NowMilli()
	assert.GreaterOrEqual(t, n, before)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "my_contract__v2_.pdf", SanitizeFileName("my contract (v2).pdf"))
	assert.Equal(t, ".._etc_passwd", SanitizeFileName("../etc/passwd"))
	assert.Equal(t, "a-b.docx", SanitizeFileName("a-b.docx"))
}
