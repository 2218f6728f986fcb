package normalize

import (
	"fmt"
	"strings"

	"sports-pipeline/core/models"
)

// Status maps a provider status string onto the canonical statuses. An empty status is
// scheduled.
func Status(raw string) (models.GameStatus, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.Join(strings.Fields(v), "_")

	switch {
	case v == "" || v == "scheduled" || v == "pre" || v == "pregame" || strings.Contains(v, "not_started"):
		return models.StatusScheduled, nil
	case strings.Contains(v, "final") || strings.Contains(v, "completed") || v == "post" || v == "closed":
		return models.StatusFinal, nil
	case strings.Contains(v, "inprogress") || strings.Contains(v, "in_progress") ||
		strings.Contains(v, "in-game") || v == "live" || v == "halftime" || v == "delayed":
		return models.StatusInProgress, nil
	case strings.Contains(v, "postponed"):
		return models.StatusPostponed, nil
	case strings.Contains(v, "cancelled") || strings.Contains(v, "canceled"):
		return models.StatusCanceled, nil
	default:
		return "", fmt.Errorf("unknown status %q", raw)
	}
}
