// Package priority ranks world-model entries by combined urgency,
// proximity and relevance for downstream narration.
package priority

import (
	"math"
	"sort"

	"github.com/navsense/navsense/pkg/worldmodel"
)

// classScores maps detector classes to importance. Classes not listed
// score defaultClassScore.
var classScores = map[string]float64{
	"person":        5,
	"car":           6,
	"truck":         6,
	"bus":           6,
	"bicycle":       4,
	"motorcycle":    5,
	"traffic light": 3,
	"stop sign":     4,
	"bench":         2,
	"chair":         2,
	"dog":           4,
	"cat":           3,
}

const defaultClassScore = 2

// Scoring constants. The FOV gate halves the score of anything outside
// a 45-degree forward cone; the urgency bonus rewards anything inside
// two meters.
const (
	typeWeight     = 0.3
	distanceWeight = 0.3
	velocityWeight = 0.2
	urgencyWeight  = 0.2

	fovHalfAngle    = math.Pi / 4
	fovPenalty      = 0.5
	urgencyDistance = 2.0
	minSpeed        = 0.01
)

// Ranked is one scored world-model entry.
type Ranked struct {
	ID    int
	Entry worldmodel.Entry
	Score float64
}

// Score computes the priority score for a single entry.
func Score(e worldmodel.Entry) float64 {
	typeScore, ok := classScores[e.Class]
	if !ok {
		typeScore = defaultClassScore
	}

	distance := e.Position.Norm()

	velocityScore := 0.0
	if e.Velocity.Norm() > minSpeed {
		// Reward objects closing distance along the forward axis.
		velocityScore = math.Max(0, -e.Velocity.Z)
	}

	fovFactor := 1.0
	if math.Atan2(math.Abs(e.Position.X), math.Max(e.Position.Z, 0.1)) >= fovHalfAngle {
		fovFactor = fovPenalty
	}

	urgency := 0.5
	if distance < urgencyDistance {
		urgency = 1.0
	}

	return (typeWeight*typeScore +
		distanceWeight/(distance+0.5) +
		velocityWeight*velocityScore +
		urgencyWeight*urgency) * fovFactor
}

// Rank returns at most topN entries in descending score order. Equal
// scores break ascending by id so the ordering is deterministic.
func Rank(snapshot map[int]worldmodel.Entry, topN int) []Ranked {
	ranked := make([]Ranked, 0, len(snapshot))
	for id, entry := range snapshot {
		ranked = append(ranked, Ranked{ID: id, Entry: entry, Score: Score(entry)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})

	if topN >= 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
