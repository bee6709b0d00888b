package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
)

// QuizCache caches generated quizzes in Redis (JSON per topic/count/
// difficulty key) and falls back to the generator on a miss. Lets several
// service instances share one generation budget.
type QuizCache struct {
	client    *redis.Client
	generator memory.QuizGenerator
	ttl       time.Duration
	sf        singleflight.Group
	rnd       *rand.Rand
}

func NewQuizCache(client *redis.Client, generator memory.QuizGenerator, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client:    client,
		generator: generator,
		ttl:       ttl,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) GenerateQuiz(ctx context.Context, req domain.QuizRequest) (domain.Quiz, error) {
	req = req.Normalize()
	key := c.key(req)

	if quiz, ok := c.lookup(ctx, key); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := c.lookup(ctx, key); ok {
			return quiz, nil
		}

		quiz, err := c.generator.GenerateQuiz(ctx, req)
		if err != nil {
			return domain.Quiz{}, err
		}

		if data, err := json.Marshal(quiz); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) lookup(ctx context.Context, key string) (domain.Quiz, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (c *QuizCache) key(req domain.QuizRequest) string {
	return "quiz:generated:" + memory.CacheKey(req)
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
