package app

import (
	"strings"
	"time"

	"trivia-room-service/internal/domain"
)

// ScorePolicy maps a submitted choice and the canonical answer to a point
// delta. Applied once per player per question, at submission time. Kept
// behind this type so alternate rules (time-weighted bonuses and the like)
// can be swapped in without touching the state machine.
type ScorePolicy func(choice, answer string) int

// FlatScore awards a single point for the correct choice.
func FlatScore(choice, answer string) int {
	if strings.TrimSpace(choice) == answer {
		return 1
	}
	return 0
}

// WindowPolicy maps a room's difficulty to its per-question answer window.
type WindowPolicy func(domain.Difficulty) time.Duration

// DefaultWindow is the fixed mapping: Easy 15s, Medium and Hard 20s.
func DefaultWindow(d domain.Difficulty) time.Duration {
	return d.AnswerWindow()
}
