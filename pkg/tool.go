package pkg

import (
	"regexp"
	"time"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// Contains check source have target
func Contains(slice []string, val string) bool {
	for _, v := range slice {
		if v == val {
			return true
		}
	}
	return false
}

// NowMilli current unix time in milliseconds
func NowMilli() int64 {
	return time.Now().UnixMilli()
}

// SanitizeFileName 只保留英數、點與減號，其餘換成底線
func SanitizeFileName(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_")
}
