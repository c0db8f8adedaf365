package server

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"roulette/internal/cache"
	"roulette/internal/database"
	"roulette/internal/game"
)

type FiberServer struct {
	*fiber.App

	db      database.Service // nil when the round archive is disabled
	cache   cache.Service    // nil when running without Redis
	results game.ResultStore
	table   *game.Controller
	hub     *game.Hub
}

func New() *FiberServer {
	// Redis is optional, recent results fall back to memory
	var results game.ResultStore
	redisService := cache.New()
	if redisService != nil {
		results = game.NewRedisResultStore(redisService.GetClient())
	} else {
		log.Println("[SERVER] Keeping recent results in memory")
		results = game.NewMemoryResultStore()
	}

	// Postgres is optional, without it rounds are not archived
	db := openArchive()

	recorders := []game.RoundRecorder{results}
	if db != nil {
		recorders = append(recorders, roundArchive{db: db})
	}

	hub := game.NewHub()
	table := game.NewController(game.ConfigFromEnv(), hub, recorders...)
	restoreLastResult(table, results)

	server := newFiberServer(table, hub, db, redisService, results)

	go hub.Run()

	log.Println("[SERVER] Roulette table ready")

	return server
}

func newFiberServer(table *game.Controller, hub *game.Hub, db database.Service, cacheService cache.Service, results game.ResultStore) *FiberServer {
	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader:  "roulette",
			AppName:       "roulette",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
			IdleTimeout:   120 * time.Second,
			StrictRouting: false,
		}),

		db:      db,
		cache:   cacheService,
		results: results,
		table:   table,
		hub:     hub,
	}

	server.App.Use(recover.New())
	server.App.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	return server
}

// restoreLastResult shows the previous process's final round until a new one finishes
func restoreLastResult(table *game.Controller, results game.ResultStore) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	last, err := results.LastResult(ctx)
	if err != nil {
		log.Printf("[SERVER] Could not load last round: %v", err)
		return
	}
	if last != nil {
		table.RestoreLastResult(*last)
		log.Printf("[SERVER] Restored last round %s (%d %s)", last.RoundID, last.Number, last.Color)
	}
}

func openArchive() database.Service {
	db := database.New()

	if stats := db.Health(); stats["status"] != "up" {
		log.Printf("[SERVER] Round archive disabled: %s", stats["error"])
		db.Close()
		return nil
	}

	if err := db.Migrate(); err != nil {
		log.Printf("[SERVER] Round archive disabled, migrations failed: %v", err)
		db.Close()
		return nil
	}

	return db
}

// roundArchive stores finished rounds in Postgres
type roundArchive struct {
	db database.Service
}

func (a roundArchive) RecordRound(ctx context.Context, r game.RoundResult) error {
	return a.db.SaveRound(ctx, database.Round{
		RoundID:      r.RoundID,
		SegmentIndex: r.SegmentIndex,
		Number:       r.Number,
		Color:        string(r.Color),
		BetCount:     r.BetCount,
		TotalStaked:  r.TotalStaked,
		TotalPayout:  r.TotalPayout,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	})
}

// Shutdown stops the table and closes every connection
func (s *FiberServer) Shutdown() error {
	log.Println("[SERVER] Shutting down...")

	if s.table != nil {
		s.table.Stop()
	}
	if s.hub != nil {
		s.hub.Stop()
	}

	if err := s.App.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("[SERVER] HTTP shutdown error: %v", err)
	}

	if s.cache != nil {
		s.cache.Close()
	}
	if s.db != nil {
		s.db.Close()
	}

	return nil
}
