// Package cursor encodes opaque page cursors.
package cursor

import (
	"encoding/base64"
	"math"
	"strconv"
	"strings"
)

// MaxPage is the largest page index a cursor may carry.
const MaxPage = math.MaxInt32

// Encode returns the opaque cursor for a zero-based page index.
func Encode(page int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(page)))
}

// Decode returns the page index carried by c. Absent or malformed cursors
// resolve to page 0, as do pages above MaxPage; Decode never fails.
func Decode(c string) int {
	c = strings.TrimSpace(c)
	if c == "" {
		return 0
	}
	raw, err := base64.StdEncoding.DecodeString(c)
	if err != nil {
		return 0
	}
	page, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || page < 0 || page > MaxPage {
		return 0
	}
	return page
}
