package service

import (
	"fmt"
	"time"
)

// dayPrefix builds the day-scoped document number prefix, e.g. "GRN-20260830-"
func dayPrefix(doc string) string {
	return doc + "-" + time.Now().Format("20060102") + "-"
}

// formatDocNo renders a document number from its prefix and sequence
func formatDocNo(prefix string, seq int64) string {
	return fmt.Sprintf("%s%05d", prefix, seq)
}
