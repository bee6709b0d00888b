package memory

import (
	"sync"
	"time"

	"trivia-room-service/internal/app"
)

// RoomStore is the in-memory room registry: it owns code uniqueness and
// garbage-collects abandoned rooms.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*app.Room),
	}
}

// Create picks a code not currently in use and registers the room built
// around it.
func (s *RoomStore) Create(build func(code string) *app.Room) *app.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := app.RandomCode()
	for {
		if _, taken := s.rooms[code]; !taken {
			break
		}
		code = app.RandomCode()
	}

	room := build(code)
	s.rooms[code] = room
	return room
}

func (s *RoomStore) Get(code string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

// Len reports how many rooms are live.
func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// SweepIdle drops rooms that have seen no mutation for maxIdle and returns
// how many were removed. The janitor goroutine calls this periodically;
// retention is a registry policy, not part of the room protocol.
func (s *RoomStore) SweepIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for code, room := range s.rooms {
		if room.LastActive().Before(cutoff) {
			room.Close()
			delete(s.rooms, code)
			removed++
		}
	}
	return removed
}
