package app

import (
	"context"
	"log"
	"strings"
	"time"

	"trivia-room-service/internal/domain"
)

// RoomRepository abstracts the registry that owns room codes (in-memory,
// Redis-marked, etc).
type RoomRepository interface {
	Create(build func(code string) *Room) *Room
	Get(code string) (*Room, bool)
}

// QuizSource produces the fixed question set a room plays through. It has
// no session awareness; content generation lives behind this call.
type QuizSource interface {
	GenerateQuiz(ctx context.Context, req domain.QuizRequest) (domain.Quiz, error)
}

// RoomService contains the room lifecycle use cases.
type RoomService struct {
	rooms       RoomRepository
	quizzes     QuizSource
	score       ScorePolicy
	window      WindowPolicy
	autoAdvance bool
	now         func() time.Time
}

// Option customizes a RoomService.
type Option func(*RoomService)

// WithScorePolicy substitutes the scoring rule.
func WithScorePolicy(p ScorePolicy) Option {
	return func(s *RoomService) { s.score = p }
}

// WithWindowPolicy substitutes the difficulty-to-answer-window mapping.
func WithWindowPolicy(p WindowPolicy) Option {
	return func(s *RoomService) { s.window = p }
}

// WithoutAutoAdvance disables the engine's question timers. Questions then
// only move on explicit host advances; used by tests that drive the state
// machine by hand.
func WithoutAutoAdvance() Option {
	return func(s *RoomService) { s.autoAdvance = false }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *RoomService) { s.now = now }
}

func NewRoomService(rooms RoomRepository, quizzes QuizSource, opts ...Option) *RoomService {
	s := &RoomService{
		rooms:       rooms,
		quizzes:     quizzes,
		score:       FlatScore,
		window:      DefaultWindow,
		autoAdvance: true,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRoom fetches a quiz once and registers a fresh waiting room. The
// response includes the full quiz (answers and all) and is returned only
// to the host.
func (s *RoomService) CreateRoom(ctx context.Context, hostName string, req domain.QuizRequest) (domain.CreateRoomResponse, error) {
	req = req.Normalize()
	quiz, err := s.quizzes.GenerateQuiz(ctx, req)
	if err != nil {
		return domain.CreateRoomResponse{}, err
	}
	if len(quiz.Questions) == 0 {
		// A room needs at least one question; an empty bank is as good as
		// no bank at all.
		return domain.CreateRoomResponse{}, domain.ErrQuizNotFound
	}

	room := s.rooms.Create(func(code string) *Room {
		return newRoomWithClock(code, hostName, quiz, req.Difficulty, s.now)
	})

	return domain.CreateRoomResponse{
		RoomCode: room.Code(),
		HostID:   room.HostID(),
		Quiz:     quiz,
	}, nil
}

// Join registers a new player. Joining never fails because of room status;
// late joiners observe the game and score from the next question on.
func (s *RoomService) Join(code, playerName string) (domain.JoinRoomResponse, error) {
	room, err := s.lookup(code)
	if err != nil {
		return domain.JoinRoomResponse{}, err
	}
	return room.join(playerName), nil
}

// Snapshot is the read side of the polling protocol: safe to call
// arbitrarily often and concurrently with mutations. The viewer token
// selects the host projection when it matches the room's host id.
func (s *RoomService) Snapshot(code, viewerToken string) (domain.RoomState, error) {
	room, err := s.lookup(code)
	if err != nil {
		return domain.RoomState{}, err
	}
	return room.Snapshot(viewerToken), nil
}

// Start moves a waiting room onto its first question.
func (s *RoomService) Start(code, hostID string) (domain.RoomState, error) {
	room, err := s.lookup(code)
	if err != nil {
		return domain.RoomState{}, err
	}
	return room.start(hostID, s.armFor(room))
}

// Advance scores out the current question and moves to the next one, or
// finishes the game on the last index. Not idempotent: two calls advance
// twice.
func (s *RoomService) Advance(code, hostID string) (domain.RoomState, error) {
	room, err := s.lookup(code)
	if err != nil {
		return domain.RoomState{}, err
	}
	return room.advance(hostID, s.armFor(room))
}

// SubmitAnswer records a player's choice for the active question and applies
// the scoring policy immediately. A repeat submission for the same question
// succeeds without changing any state.
func (s *RoomService) SubmitAnswer(code, playerID, choice string) (domain.RoomState, error) {
	room, err := s.lookup(code)
	if err != nil {
		return domain.RoomState{}, err
	}
	return room.submit(playerID, choice, s.score)
}

func (s *RoomService) lookup(code string) (*Room, error) {
	room, ok := s.rooms.Get(NormalizeCode(code))
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// armFor returns the timer factory installed on question activation. The
// engine owns the answer window: when it elapses the room advances itself,
// so a disconnected host cannot stall the game. The fired callback
// re-checks the question index under the room lock, which disarms stale
// timers after a manual advance.
func (s *RoomService) armFor(room *Room) armFunc {
	if !s.autoAdvance {
		return nil
	}
	window := s.window(room.difficulty)
	return func(index int) *time.Timer {
		return time.AfterFunc(window, func() {
			if room.advanceIfCurrent(index, s.armFor(room)) {
				log.Printf("room %s: answer window elapsed, advanced past question %d", room.Code(), index+1)
			}
		})
	}
}

// NormalizeCode maps user-typed codes onto the registry's canonical form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
