// cmd/consumer/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clip-vote-platform/application/scheduler"
	"clip-vote-platform/internal/consumer"
	"clip-vote-platform/internal/infrastructure/cache/redis"
	"clip-vote-platform/internal/infrastructure/config"
	"clip-vote-platform/internal/infrastructure/lock"
	"clip-vote-platform/internal/infrastructure/persistence/postgres/database"
	commentrepo "clip-vote-platform/internal/infrastructure/persistence/postgres/repository/comment"
	voterepo "clip-vote-platform/internal/infrastructure/persistence/postgres/repository/vote"
	"clip-vote-platform/internal/infrastructure/persistence/redis_storage/event_queue"
	"clip-vote-platform/internal/infrastructure/persistence/redis_storage/leaderboard"
	"clip-vote-platform/internal/infrastructure/persistence/redis_storage/vote_cache"
	"clip-vote-platform/internal/monitoring"
	"clip-vote-platform/internal/reconciliation"
	"clip-vote-platform/pkg/logger"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Не удалось загрузить конфигурацию: %v", err)
	}

	// Инициализируем глобальный логгер
	if err := logger.InitGlobal(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.DebugMode); err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}

	cfg.PrintSummary()

	// ======================
	// ИНФРАСТРУКТУРА
	// ======================
	redisService := redis.NewRedisService(cfg)
	if err := redisService.Start(); err != nil {
		logger.Error("❌ Redis: %v", err)
		os.Exit(1)
	}
	defer redisService.Stop()

	dbService := database.NewDatabaseService(cfg)
	if err := dbService.Start(); err != nil {
		logger.Error("❌ PostgreSQL: %v", err)
		os.Exit(1)
	}
	defer dbService.Stop()

	client := redisService.GetClient()
	db := dbService.GetDB()

	// ======================
	// ХРАНИЛИЩА И РЕПОЗИТОРИИ
	// ======================
	voteQueue := event_queue.NewService(client, cfg.Queue.VotePrefix, cfg.Queue.DeadLetterCap)
	commentQueue := event_queue.NewService(client, cfg.Queue.CommentPrefix, cfg.Queue.DeadLetterCap)

	boards := leaderboard.NewService(client, cfg.Leaderboard.LegacyKeys, cfg.Leaderboard.DailyVoterTTL)
	voteCache := vote_cache.NewService(client, cfg.VoteCache.TTL)

	votes := voterepo.NewVoteRepository(db)
	comments := commentrepo.NewCommentRepository(db)

	// ======================
	// ПОТРЕБИТЕЛИ И СВЕРКА
	// ======================
	// Аренда на очередь: инвариант единственного активного потребителя
	voteLease := lock.NewLease(client, cfg.Queue.VotePrefix, cfg.Lease.TTL)
	commentLease := lock.NewLease(client, cfg.Queue.CommentPrefix, cfg.Lease.TTL)

	voteConsumer := consumer.NewVoteConsumer(
		voteQueue, voteLease, votes, boards, voteCache, cfg.Queue.BatchSize)
	commentConsumer := consumer.NewCommentConsumer(
		commentQueue, commentLease, comments, cfg.Queue.BatchSize)

	reconciler := reconciliation.NewService(votes, boards)

	sched := scheduler.New()
	sched.Register(&scheduler.Job{
		Name:        "vote-consumer",
		Description: "обработка очереди голосов",
		Schedule:    scheduler.Every(cfg.Queue.TickInterval),
		Handler:     voteConsumer.RunOnce,
		Timeout:     cfg.Queue.TickInterval * 4,
		Quiet:       true,
	})
	sched.Register(&scheduler.Job{
		Name:        "comment-consumer",
		Description: "обработка очереди комментариев",
		Schedule:    scheduler.Every(cfg.Queue.TickInterval),
		Handler:     commentConsumer.RunOnce,
		Timeout:     cfg.Queue.TickInterval * 4,
		Quiet:       true,
	})
	sched.Register(&scheduler.Job{
		Name:        "reconciliation",
		Description: "сверка лидербордов с БД",
		Schedule:    scheduler.Every(cfg.Reconciliation.Interval),
		Handler:     reconciler.Run,
	})
	sched.Register(&scheduler.Job{
		Name:        "queue-health",
		Description: "лог состояния очередей",
		Schedule:    scheduler.Every(1 * time.Minute),
		Handler:     logQueueHealth(voteQueue, commentQueue),
		Quiet:       true,
	})
	sched.Start()
	defer sched.Stop()

	// ======================
	// СЛУЖЕБНЫЙ HTTP
	// ======================
	if cfg.Logging.HTTPEnabled {
		opsServer := monitoring.NewServer(cfg.Logging.HTTPPort, map[string]monitoring.HealthFunc{
			cfg.Queue.VotePrefix: func(ctx context.Context) (interface{}, error) {
				return voteQueue.Health(ctx)
			},
			cfg.Queue.CommentPrefix: func(ctx context.Context) (interface{}, error) {
				return commentQueue.Health(ctx)
			},
		})
		opsServer.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			opsServer.Stop(ctx)
		}()
	}

	logger.Info("✅ Потребитель событий запущен (очереди: %s, %s)",
		cfg.Queue.VotePrefix, cfg.Queue.CommentPrefix)

	// Ожидаем сигнал завершения
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info("🛑 Получен сигнал %v, завершение...", sig)
}

// logQueueHealth пишет периодический снимок очередей в лог
func logQueueHealth(queues ...event_queue.EventQueue) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		for _, q := range queues {
			health, err := q.Health(ctx)
			if err != nil {
				logger.Warn("[Health:%s] ⚠️ %v", q.Name(), err)
				continue
			}

			lastProcessed := "никогда"
			if health.LastProcessedAt != nil {
				lastProcessed = health.LastProcessedAt.Format(time.RFC3339)
			}
			logger.QueueHealth(q.Name(),
				health.PendingCount, health.ProcessingCount, health.DeadLetterCount, lastProcessed)
		}
		return nil
	}
}
