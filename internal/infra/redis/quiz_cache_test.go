package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
)

func TestQuizCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	generator := &countingGenerator{
		QuizGenerator: memory.NewStaticQuizGenerator(map[string]domain.Quiz{
			"go": sampleBank(),
		}),
	}
	cache := NewQuizCache(client, generator, time.Minute)

	req := domain.QuizRequest{Topic: "go", NumQuestions: 3, Difficulty: domain.DifficultyMedium}
	quiz, err := cache.GenerateQuiz(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if generator.calls != 1 {
		t.Fatalf("expected generator called once, got %d", generator.calls)
	}
	if len(quiz.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(quiz.Questions))
	}

	// Second call should hit the redis cache with the full content intact.
	quiz, err = cache.GenerateQuiz(context.Background(), req)
	if err != nil {
		t.Fatalf("generate 2: %v", err)
	}
	if generator.calls != 1 {
		t.Fatalf("expected cache hit, generator calls=%d", generator.calls)
	}
	if quiz.Questions[0].Answer != "go" {
		t.Fatalf("cached quiz lost its answers: %+v", quiz.Questions[0])
	}
}

type countingGenerator struct {
	memory.QuizGenerator
	calls int
}

func (g *countingGenerator) GenerateQuiz(ctx context.Context, req domain.QuizRequest) (domain.Quiz, error) {
	g.calls++
	return g.QuizGenerator.GenerateQuiz(ctx, req)
}

func sampleBank() domain.Quiz {
	return domain.Quiz{
		Title: "Go Basics",
		Questions: []domain.Question{
			{Question: "Which keyword starts a goroutine?", Choices: []string{"go", "run"}, Answer: "go"},
			{Question: "What does len return for a nil slice?", Choices: []string{"panic", "0"}, Answer: "0"},
			{Question: "Zero value of an interface?", Choices: []string{"nil", "zero"}, Answer: "nil"},
		},
	}
}
