package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/config"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
	pgbank "trivia-room-service/internal/infra/postgres"
	redisinfra "trivia-room-service/internal/infra/redis"
	transport "trivia-room-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia room server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var generator memory.QuizGenerator = memory.NewStaticQuizGenerator(sampleBanks())
	if pool != nil {
		generator = pgbank.NewQuestionBank(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizzes app.QuizSource
	if redisClient != nil {
		quizzes = redisinfra.NewQuizCache(redisClient, generator, quizTTL)
	} else {
		quizzes = memory.NewQuizCache(generator, quizTTL)
	}

	type sweepableRoomStore interface {
		app.RoomRepository
		SweepIdle(maxIdle time.Duration) int
	}
	var rooms sweepableRoomStore
	if redisClient != nil {
		rooms = redisinfra.NewRoomStore(redisClient, redisTTL)
	} else {
		rooms = memory.NewRoomStore()
	}

	service := app.NewRoomService(rooms, quizzes)
	handler := transport.NewHandler(service)
	pollInterval := config.TTLDuration(cfg.Room.PollInterval, 2*time.Second)
	watchHandler := transport.NewWatchHandler(service, pollInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("GET /rooms/{code}/watch", watchHandler.ServeWatch)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go runJanitor(janitorCtx, rooms.SweepIdle,
		config.TTLDuration(cfg.Room.SweepInterval, 10*time.Minute),
		config.TTLDuration(cfg.Room.IdleTTL, 2*time.Hour))

	go func() {
		log.Printf("starting trivia room service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runJanitor garbage-collects abandoned rooms on a fixed cadence.
func runJanitor(ctx context.Context, sweep func(time.Duration) int, interval, idleTTL time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sweep(idleTTL); removed > 0 {
				log.Printf("janitor removed %d idle room(s)", removed)
			}
		}
	}
}

// sampleBanks provides a minimal question bank per topic; swap in the
// Postgres-backed bank (or a real generator) in production.
func sampleBanks() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"general knowledge": {
			Title: "General Knowledge Warm-Up",
			Questions: []domain.Question{
				{
					Question: "What is the capital of France?",
					Choices:  []string{"Berlin", "Madrid", "Paris", "Rome"},
					Answer:   "Paris",
				},
				{
					Question: "Which planet is known as the Red Planet?",
					Choices:  []string{"Venus", "Mars", "Jupiter", "Saturn"},
					Answer:   "Mars",
				},
				{
					Question: "How many continents are there?",
					Choices:  []string{"Five", "Six", "Seven", "Eight"},
					Answer:   "Seven",
				},
				{
					Question: "What gas do plants absorb from the atmosphere?",
					Choices:  []string{"Oxygen", "Carbon dioxide", "Nitrogen", "Helium"},
					Answer:   "Carbon dioxide",
				},
				{
					Question: "Which ocean is the largest?",
					Choices:  []string{"Atlantic", "Indian", "Arctic", "Pacific"},
					Answer:   "Pacific",
				},
			},
		},
	}
}
