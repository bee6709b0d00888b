package domain

import (
	"strings"
	"time"
)

// Status describes where a room is in its lifecycle. Transitions are
// monotonic: waiting -> in_progress -> finished, never backwards.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Difficulty controls how long each question accepts answers.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty normalizes user input into one of the known levels.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "easy":
		return DifficultyEasy, nil
	case "medium", "":
		return DifficultyMedium, nil
	case "hard":
		return DifficultyHard, nil
	}
	return "", ErrInvalidDifficulty
}

// AnswerWindow returns the time budget during which the current question
// accepts answers.
func (d Difficulty) AnswerWindow() time.Duration {
	switch d {
	case DifficultyEasy:
		return 15 * time.Second
	case DifficultyMedium, DifficultyHard:
		return 20 * time.Second
	}
	return 20 * time.Second
}

// Question is a single multiple-choice question. Answer must be one of
// the strings in Choices.
type Question struct {
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Answer   string   `json:"answer"`
}

// Quiz is the ordered, fixed question set a room plays through. Produced
// once at room creation and immutable thereafter.
type Quiz struct {
	Title     string     `json:"quiz_title"`
	Questions []Question `json:"questions"`
}

// QuizRequest asks the quiz source for a question set.
type QuizRequest struct {
	Topic        string     `json:"prompt"`
	NumQuestions int        `json:"num_questions"`
	Difficulty   Difficulty `json:"difficulty"`
}

// Normalize applies request defaults and bounds: 5 questions if unset,
// between 1 and 10, Medium difficulty.
func (r QuizRequest) Normalize() QuizRequest {
	if r.NumQuestions <= 0 {
		r.NumQuestions = 5
	}
	if r.NumQuestions > 10 {
		r.NumQuestions = 10
	}
	if r.Difficulty == "" {
		r.Difficulty = DifficultyMedium
	}
	return r
}

// PlayerState is the roster entry exposed in snapshots. The submitted
// answer itself is never part of the roster.
type PlayerState struct {
	PlayerID           string `json:"player_id"`
	Name               string `json:"name"`
	Score              int    `json:"score"`
	HasAnsweredCurrent bool   `json:"has_answered_current"`
}

// ActiveQuestion is the currently open question as clients see it.
// Answer is populated only in the host projection; player projections
// always leave it empty.
type ActiveQuestion struct {
	QuestionIndex  int      `json:"question_index"`
	QuestionNumber int      `json:"question_number"`
	Question       string   `json:"question"`
	Choices        []string `json:"choices"`
	TotalQuestions int      `json:"total_questions"`
	Answer         string   `json:"answer,omitempty"`
}

// RoomState is the canonical snapshot clients poll. Field names are fixed
// for interoperability with existing clients.
type RoomState struct {
	RoomCode             string          `json:"room_code"`
	Status               Status          `json:"status"`
	QuizTitle            string          `json:"quiz_title"`
	Difficulty           Difficulty      `json:"difficulty"`
	CurrentQuestionIndex *int            `json:"current_question_index"`
	QuestionCount        int             `json:"question_count"`
	Players              []PlayerState   `json:"players"`
	Question             *ActiveQuestion `json:"question"`
}

// CreateRoomResponse is returned once, to the host only; Quiz includes the
// correct answers.
type CreateRoomResponse struct {
	RoomCode string `json:"room_code"`
	HostID   string `json:"host_id"`
	Quiz     Quiz   `json:"quiz"`
}

// JoinRoomResponse acknowledges a player joining a room.
type JoinRoomResponse struct {
	RoomCode  string `json:"room_code"`
	PlayerID  string `json:"player_id"`
	QuizTitle string `json:"quiz_title"`
	Status    Status `json:"status"`
}
