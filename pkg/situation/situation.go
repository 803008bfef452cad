// Package situation classifies world-model entries into urgent alerts,
// moving objects and static obstacles, and renders an overall
// path-clear verdict.
package situation

import (
	"math"
	"sort"

	"github.com/navsense/navsense/pkg/worldmodel"
)

// Direction is the lateral classification of an entry.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionAhead Direction = "ahead"
)

// Urgency labels how pressing an approaching object is.
type Urgency string

const (
	UrgencyVeryClose   Urgency = "very close"
	UrgencyQuick       Urgency = "approaching quickly"
	UrgencyApproaching Urgency = "approaching"
)

// PathStatus is the overall corridor verdict.
type PathStatus string

const (
	PathClear   PathStatus = "clear"
	PathBlocked PathStatus = "blocked"
)

// Classification thresholds. The per-object direction corridor uses a
// 0.5m half-width while the path-status corridor uses 0.7m; the two
// are intentionally distinct and must not be merged.
const (
	directionHalfWidth = 0.5
	corridorHalfWidth  = 0.7
	corridorDepth      = 3.0

	movingSpeed      = 0.05
	approachSpeed    = -0.02
	alertDistance    = 3.0
	movingDistance   = 4.0
	obstacleDistance = 3.0

	veryCloseDistance = 1.5
	quickDistance     = 2.5
)

// Alert is one approaching object inside the alert distance.
type Alert struct {
	Class     string
	Direction Direction
	Urgency   Urgency
	Distance  float64
}

// Mover is one moving object inside the moving distance.
type Mover struct {
	Class     string
	Direction Direction
	Distance  float64
}

// Obstacle is one static object dead ahead.
type Obstacle struct {
	Class    string
	Distance float64
}

// Report is the full situation for one analysis pass. Sequences are
// ordered ascending by track id so reports are deterministic.
type Report struct {
	UrgentAlerts  []Alert
	MovingObjects []Mover
	Obstacles     []Obstacle
	PathStatus    PathStatus
}

// Analyze classifies every entry in the snapshot, not just the
// top-ranked ones, and computes the path verdict over the same set.
func Analyze(snapshot map[int]worldmodel.Entry) Report {
	report := Report{PathStatus: PathClear}

	ids := make([]int, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		entry := snapshot[id]
		distance := entry.Position.Norm()
		direction := classifyDirection(entry.Position.X)

		isMoving := entry.Velocity.Norm() > movingSpeed
		isApproaching := isMoving && entry.Velocity.Z < approachSpeed

		switch {
		case isApproaching && distance < alertDistance:
			report.UrgentAlerts = append(report.UrgentAlerts, Alert{
				Class:     entry.Class,
				Direction: direction,
				Urgency:   classifyUrgency(distance),
				Distance:  distance,
			})
		case isMoving && distance < movingDistance:
			report.MovingObjects = append(report.MovingObjects, Mover{
				Class:     entry.Class,
				Direction: direction,
				Distance:  distance,
			})
		case !isMoving && direction == DirectionAhead && distance < obstacleDistance:
			report.Obstacles = append(report.Obstacles, Obstacle{
				Class:    entry.Class,
				Distance: distance,
			})
		}
	}

	// The path verdict uses its own corridor test, wider than the
	// direction classification above.
	for _, entry := range snapshot {
		x, z := entry.Position.X, entry.Position.Z
		if math.Abs(x) < corridorHalfWidth && z > 0 && entry.Position.Norm() < corridorDepth {
			report.PathStatus = PathBlocked
			break
		}
	}

	return report
}

func classifyDirection(x float64) Direction {
	switch {
	case x < -directionHalfWidth:
		return DirectionLeft
	case x > directionHalfWidth:
		return DirectionRight
	default:
		return DirectionAhead
	}
}

func classifyUrgency(distance float64) Urgency {
	switch {
	case distance < veryCloseDistance:
		return UrgencyVeryClose
	case distance < quickDistance:
		return UrgencyQuick
	default:
		return UrgencyApproaching
	}
}
