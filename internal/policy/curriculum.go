// Package policy holds the fixed interview curriculum and score arithmetic.
// It is pure decision logic: no I/O, no state.
package policy

import (
	"time"

	"interview/internal/models"
)

// The six-slot curriculum: 2 easy, 2 medium, 2 hard.
const (
	EasyTime   = 20 * time.Second
	MediumTime = 60 * time.Second
	HardTime   = 120 * time.Second
)

// SlotDifficulty returns the difficulty for a slot index (0-5).
func SlotDifficulty(slotIndex int) string {
	switch {
	case slotIndex <= 1:
		return models.DifficultyEasy
	case slotIndex <= 3:
		return models.DifficultyMedium
	default:
		return models.DifficultyHard
	}
}

// SlotTime returns the answer budget for a slot index.
func SlotTime(slotIndex int) time.Duration {
	switch SlotDifficulty(slotIndex) {
	case models.DifficultyEasy:
		return EasyTime
	case models.DifficultyMedium:
		return MediumTime
	default:
		return HardTime
	}
}

// SlotTimeSeconds is SlotTime expressed in whole seconds, the unit the wire
// contract and the stored aggregate use.
func SlotTimeSeconds(slotIndex int) int {
	return int(SlotTime(slotIndex) / time.Second)
}

// ClampScore bounds a single-slot score to the oracle contract range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > models.MaxSlotScore {
		return models.MaxSlotScore
	}
	return score
}

// AggregateScore sums recorded slot scores. Unresolved slots contribute nothing.
func AggregateScore(slots []models.QuestionSlot) int {
	total := 0
	for i := range slots {
		if slots[i].Score != nil {
			total += *slots[i].Score
		}
	}
	return total
}

// ResolvedCount reports how many slots have a recorded resolution.
func ResolvedCount(slots []models.QuestionSlot) int {
	n := 0
	for i := range slots {
		if slots[i].Resolved() {
			n++
		}
	}
	return n
}

// Progress is the fraction of the interview completed, in [0, 1].
func Progress(slots []models.QuestionSlot) float64 {
	return float64(ResolvedCount(slots)) / float64(models.TotalSlots)
}

// ClampTimeTaken bounds the client-reported elapsed time to the slot budget.
// The value is advisory telemetry only; the server deadline is authoritative.
func ClampTimeTaken(timeTaken, allocated int) int {
	if timeTaken < 0 {
		return 0
	}
	if timeTaken > allocated {
		return allocated
	}
	return timeTaken
}
