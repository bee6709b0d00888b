package memory

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-room-service/internal/domain"
)

// QuizGenerator produces quiz content for a topic (an external
// collaborator in production; a question bank here).
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, req domain.QuizRequest) (domain.Quiz, error)
}

// QuizCache memoizes generated quizzes with TTL so repeated room creations
// for a hot topic do not hammer the generator.
type QuizCache struct {
	generator QuizGenerator
	ttl       time.Duration
	clock     func() time.Time
	sf        singleflight.Group
	rnd       *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizCache(generator QuizGenerator, ttl time.Duration) *QuizCache {
	return &QuizCache{
		generator: generator,
		ttl:       ttl,
		clock:     time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:     make(map[string]cachedQuiz),
	}
}

func (c *QuizCache) GenerateQuiz(ctx context.Context, req domain.QuizRequest) (domain.Quiz, error) {
	req = req.Normalize()
	key := CacheKey(req)
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.quiz, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.quiz, nil
		}
		c.mu.RUnlock()

		quiz, err := c.generator.GenerateQuiz(ctx, req)
		if err != nil {
			return domain.Quiz{}, err
		}

		c.mu.Lock()
		c.cache[key] = cachedQuiz{
			quiz:      quiz,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// CacheKey identifies one generated quiz shape: same topic, count and
// difficulty reuse the same entry.
func CacheKey(req domain.QuizRequest) string {
	return fmt.Sprintf("%s|%d|%s", strings.ToLower(strings.TrimSpace(req.Topic)), req.NumQuestions, req.Difficulty)
}

// StaticQuizGenerator serves quizzes from an in-memory bank of topic
// question pools (useful for tests/demos and as a fallback when no
// backing store is configured).
type StaticQuizGenerator struct {
	banks map[string]domain.Quiz
}

func NewStaticQuizGenerator(banks map[string]domain.Quiz) *StaticQuizGenerator {
	normalized := make(map[string]domain.Quiz, len(banks))
	for topic, quiz := range banks {
		normalized[strings.ToLower(strings.TrimSpace(topic))] = quiz
	}
	return &StaticQuizGenerator{banks: normalized}
}

func (g *StaticQuizGenerator) GenerateQuiz(_ context.Context, req domain.QuizRequest) (domain.Quiz, error) {
	req = req.Normalize()
	bank, ok := g.banks[strings.ToLower(strings.TrimSpace(req.Topic))]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}

	n := req.NumQuestions
	if n > len(bank.Questions) {
		n = len(bank.Questions)
	}
	return domain.Quiz{
		Title:     bank.Title,
		Questions: append([]domain.Question(nil), bank.Questions[:n]...),
	}, nil
}
