package model

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns an opaque identifier of the shape "<prefix>_<12-hex>",
// derived from a 128-bit random source. An empty prefix yields a bare
// 12-hex token.
func NewID(prefix string) string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	if prefix == "" {
		return raw
	}
	return prefix + "_" + raw
}
