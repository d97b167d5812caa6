package invoice

import (
	"fmt"
	"time"
)

// GenerateInvoiceNumber produces INV-YYYY-MM-xxxx, where xxxx is the last
// four digits of the current epoch millisecond timestamp. Two calls in the
// same millisecond collide; the number is a display convention, not a key.
func GenerateInvoiceNumber() string {
	return generateInvoiceNumberAt(time.Now())
}

func generateInvoiceNumberAt(now time.Time) string {
	millis := now.UnixMilli()
	return fmt.Sprintf("INV-%04d-%02d-%04d", now.Year(), int(now.Month()), millis%10000)
}
