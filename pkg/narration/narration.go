// Package narration converts a situation report into a single short
// spoken sentence.
package narration

import (
	"fmt"
	"strings"

	"github.com/navsense/navsense/pkg/situation"
)

// AllClear is spoken when the situation yields nothing worth narrating.
const AllClear = "Path is clear, no immediate hazards"

const (
	maxAlerts  = 2
	maxMovers  = 2
	maxClauses = 2
)

// Generate renders a report as one sentence. Urgent alerts take
// priority over moving objects, which take priority over obstacles;
// a path-status clause is always appended. At most two clauses are
// kept, joined with "; ".
func Generate(report situation.Report) string {
	var clauses []string

	switch {
	case len(report.UrgentAlerts) > 0:
		for _, alert := range head(report.UrgentAlerts, maxAlerts) {
			if alert.Urgency == situation.UrgencyVeryClose {
				clauses = append(clauses, fmt.Sprintf("%s %s on your %s", alert.Class, alert.Urgency, alert.Direction))
			} else {
				clauses = append(clauses, fmt.Sprintf("%s %s from your %s", alert.Class, alert.Urgency, alert.Direction))
			}
		}
	case len(report.MovingObjects) > 0:
		for _, mover := range head(report.MovingObjects, maxMovers) {
			clauses = append(clauses, fmt.Sprintf("%s moving on your %s", mover.Class, mover.Direction))
		}
	case len(report.Obstacles) > 0:
		clauses = append(clauses, fmt.Sprintf("%s in path ahead", report.Obstacles[0].Class))
	}

	if report.PathStatus == situation.PathClear {
		clauses = append(clauses, "the way ahead is clear")
	} else {
		clauses = append(clauses, "obstacle in path")
	}

	// A lone path-status clause carries no new information.
	if len(clauses) <= 1 {
		return AllClear
	}
	return strings.Join(clauses[:maxClauses], "; ")
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
