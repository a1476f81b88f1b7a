package projection

import (
	"fmt"
	"strings"
	"time"
)

// OrderNumber derives the human-readable order number from the confirmation
// time and the order uuid. Deterministic, so the command path and the
// projector produce the same number without coordinating.
func OrderNumber(orderUUID string, confirmedAt time.Time) string {
	prefix := strings.ReplaceAll(orderUUID, "-", "")
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	return fmt.Sprintf("ORD-%s-%s", confirmedAt.UTC().Format("20060102"), strings.ToUpper(prefix))
}
