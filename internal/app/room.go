package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"trivia-room-service/internal/domain"
)

// Role selects which projection of a room a snapshot reveals.
type Role int

const (
	RolePlayer Role = iota
	RoleHost
)

// armFunc schedules the answer-window timer for a question index and
// returns the handle. Installed under the room lock so a manual advance
// and its re-arm are atomic.
type armFunc func(index int) *time.Timer

// Room is the authoritative state for one game. All mutation happens
// under the room's own lock; rooms never block each other.
type Room struct {
	mu         sync.RWMutex
	code       string
	hostID     string
	hostName   string
	quiz       domain.Quiz
	difficulty domain.Difficulty

	status       domain.Status
	currentIndex int // -1 while waiting

	players map[string]*player
	order   []string          // join order, keeps the roster stable
	answers map[string]string // ledger for the current question only

	timer      *time.Timer
	lastActive time.Time
	now        func() time.Time
}

type player struct {
	id      string
	name    string
	score   int
	history map[int]playerAnswer
}

type playerAnswer struct {
	choice  string
	correct bool
}

// NewRoom builds a waiting room around an immutable quiz.
func NewRoom(code, hostName string, quiz domain.Quiz, difficulty domain.Difficulty) *Room {
	return newRoomWithClock(code, hostName, quiz, difficulty, time.Now)
}

func newRoomWithClock(code, hostName string, quiz domain.Quiz, difficulty domain.Difficulty, now func() time.Time) *Room {
	return &Room{
		code:         code,
		hostID:       uuid.NewString(),
		hostName:     hostName,
		quiz:         quiz,
		difficulty:   difficulty,
		status:       domain.StatusWaiting,
		currentIndex: -1,
		players:      make(map[string]*player),
		answers:      make(map[string]string),
		lastActive:   now(),
		now:          now,
	}
}

// Code returns the room's immutable short code.
func (r *Room) Code() string { return r.code }

// HostID returns the host token. Only handed out once, at creation.
func (r *Room) HostID() string { return r.hostID }

// LastActive reports when the room last saw a mutation.
func (r *Room) LastActive() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActive
}

// Close disarms any pending question timer. Called by the registry when
// a room is garbage-collected.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimerLocked()
}

func (r *Room) join(playerName string) domain.JoinRoomResponse {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	r.players[id] = &player{
		id:      id,
		name:    playerName,
		history: make(map[int]playerAnswer),
	}
	r.order = append(r.order, id)
	r.lastActive = r.now()

	return domain.JoinRoomResponse{
		RoomCode:  r.code,
		PlayerID:  id,
		QuizTitle: r.quiz.Title,
		Status:    r.status,
	}
}

func (r *Room) start(hostID string, arm armFunc) (domain.RoomState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hostID != hostID {
		return domain.RoomState{}, domain.ErrForbidden
	}
	if r.status != domain.StatusWaiting {
		return domain.RoomState{}, domain.ErrInvalidTransition
	}
	if len(r.players) == 0 {
		return domain.RoomState{}, domain.ErrEmptyRoom
	}

	r.status = domain.StatusInProgress
	r.currentIndex = 0
	r.answers = make(map[string]string)
	r.lastActive = r.now()
	r.armLocked(arm)
	return r.projectLocked(RoleHost), nil
}

func (r *Room) advance(hostID string, arm armFunc) (domain.RoomState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hostID != hostID {
		return domain.RoomState{}, domain.ErrForbidden
	}
	if r.status != domain.StatusInProgress {
		return domain.RoomState{}, domain.ErrInvalidTransition
	}

	r.advanceStepLocked(arm)
	return r.projectLocked(RoleHost), nil
}

// advanceIfCurrent advances only when index is still the active question.
// Stale timer callbacks fall through here as no-ops.
func (r *Room) advanceIfCurrent(index int, arm armFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != domain.StatusInProgress || r.currentIndex != index {
		return false
	}
	r.advanceStepLocked(arm)
	return true
}

func (r *Room) advanceStepLocked(arm armFunc) {
	r.stopTimerLocked()
	r.answers = make(map[string]string)
	if r.currentIndex >= len(r.quiz.Questions)-1 {
		// Terminal: the index keeps pointing at the last question.
		r.status = domain.StatusFinished
	} else {
		r.currentIndex++
		r.armLocked(arm)
	}
	r.lastActive = r.now()
}

func (r *Room) submit(playerID, choice string, score ScorePolicy) (domain.RoomState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != domain.StatusInProgress {
		return domain.RoomState{}, domain.ErrInvalidTransition
	}
	p, ok := r.players[playerID]
	if !ok {
		return domain.RoomState{}, domain.ErrUnknownPlayer
	}
	if _, already := r.answers[playerID]; already {
		// At-most-once per player per question: retries are safe no-ops.
		return r.projectLocked(RolePlayer), nil
	}

	question := r.quiz.Questions[r.currentIndex]
	delta := score(choice, question.Answer)
	p.history[r.currentIndex] = playerAnswer{choice: choice, correct: delta > 0}
	p.score += delta
	r.answers[playerID] = choice
	r.lastActive = r.now()

	return r.projectLocked(RolePlayer), nil
}

// Snapshot projects the room for a viewer. The viewer is the host exactly
// when the presented token matches the room's host token; everyone else
// gets the player view with the correct answer withheld.
func (r *Room) Snapshot(viewerToken string) domain.RoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role := RolePlayer
	if viewerToken != "" && viewerToken == r.hostID {
		role = RoleHost
	}
	return r.projectLocked(role)
}

func (r *Room) projectLocked(role Role) domain.RoomState {
	var index *int
	if r.currentIndex >= 0 {
		v := r.currentIndex
		index = &v
	}

	var active *domain.ActiveQuestion
	if r.status == domain.StatusInProgress && r.currentIndex >= 0 && r.currentIndex < len(r.quiz.Questions) {
		question := r.quiz.Questions[r.currentIndex]
		active = &domain.ActiveQuestion{
			QuestionIndex:  r.currentIndex,
			QuestionNumber: r.currentIndex + 1,
			Question:       question.Question,
			Choices:        append([]string(nil), question.Choices...),
			TotalQuestions: len(r.quiz.Questions),
		}
		if role == RoleHost {
			active.Answer = question.Answer
		}
	}

	roster := make([]domain.PlayerState, 0, len(r.players))
	for _, id := range r.order {
		p := r.players[id]
		_, answered := r.answers[id]
		roster = append(roster, domain.PlayerState{
			PlayerID:           p.id,
			Name:               p.name,
			Score:              p.score,
			HasAnsweredCurrent: r.status == domain.StatusInProgress && answered,
		})
	}

	return domain.RoomState{
		RoomCode:             r.code,
		Status:               r.status,
		QuizTitle:            r.quiz.Title,
		Difficulty:           r.difficulty,
		CurrentQuestionIndex: index,
		QuestionCount:        len(r.quiz.Questions),
		Players:              roster,
		Question:             active,
	}
}

func (r *Room) armLocked(arm armFunc) {
	r.stopTimerLocked()
	if arm != nil {
		r.timer = arm(r.currentIndex)
	}
}

func (r *Room) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
