package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-room-service/internal/app"
)

// RoomStore is a Redis-aware room registry.
// Notes:
//   - Rooms themselves stay in a local map: the engine is a single
//     authoritative process and room state never leaves it.
//   - Redis holds a liveness marker per code so operators (or a future
//     multi-instance router) can see which codes are occupied.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*app.Room),
	}
}

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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(code), "1", s.ttl).Err()
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

// SweepIdle drops rooms idle past maxIdle, clearing their liveness keys.
func (s *RoomStore) SweepIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for code, room := range s.rooms {
		if room.LastActive().Before(cutoff) {
			room.Close()
			delete(s.rooms, code)
			_ = s.client.Del(context.Background(), s.key(code)).Err()
			removed++
		}
	}
	return removed
}

func (s *RoomStore) key(code string) string {
	return "room:live:" + code
}
