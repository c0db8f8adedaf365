package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
	"github.com/shopspring/decimal"
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error

	// Migrate applies pending schema migrations.
	Migrate() error

	SaveRound(ctx context.Context, round Round) error
	RecentRounds(ctx context.Context, limit int) ([]Round, error)

	DB() *sql.DB
}

// Round is one archived spin
type Round struct {
	RoundID      string          `json:"roundId"`
	SegmentIndex int             `json:"segmentIndex"`
	Number       int             `json:"number"`
	Color        string          `json:"color"`
	BetCount     int             `json:"betCount"`
	TotalStaked  decimal.Decimal `json:"totalStaked"`
	TotalPayout  decimal.Decimal `json:"totalPayout"`
	StartedAt    time.Time       `json:"startedAt"`
	FinishedAt   time.Time       `json:"finishedAt"`
}

const (
	DEFAULT_ROUNDS_LIMIT = 20
	MAX_ROUNDS_LIMIT     = 500
)

type service struct {
	db *sql.DB
}

var (
	database   = os.Getenv("BLUEPRINT_DB_DATABASE")
	password   = os.Getenv("BLUEPRINT_DB_PASSWORD")
	username   = os.Getenv("BLUEPRINT_DB_USERNAME")
	port       = os.Getenv("BLUEPRINT_DB_PORT")
	host       = os.Getenv("BLUEPRINT_DB_HOST")
	schema     = os.Getenv("BLUEPRINT_DB_SCHEMA")
	dbInstance *service
)

func New() Service {
	// Reuse Connection
	if dbInstance != nil {
		return dbInstance
	}
	db, err := sql.Open("pgx", connString())
	if err != nil {
		log.Fatal(err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	dbInstance = &service{
		db: db,
	}
	return dbInstance
}

func connString() string {
	if schema == "" {
		schema = "public"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s", username, password, host, port, database, schema)
}

// Health checks the health of the database connection by pinging the database.
// It returns a map with keys indicating various health statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	err := s.db.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Printf("[DB] Health check failed: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(dbStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(dbStats.MaxLifetimeClosed, 10)

	if dbStats.OpenConnections > 40 {
		stats["message"] = "The database is experiencing heavy load."
	}
	if dbStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats
}

// Close closes the database connection.
// It logs a message indicating the disconnection from the specific database.
// If the connection is successfully closed, it returns nil.
// If an error occurs while closing the connection, it returns the error.
func (s *service) Close() error {
	log.Printf("[DB] Disconnected from database: %s", database)
	if dbInstance == s {
		dbInstance = nil
	}
	return s.db.Close()
}

func (s *service) Migrate() error {
	return RunMigrations(s.db, os.Getenv("MIGRATIONS_PATH"))
}

func (s *service) DB() *sql.DB {
	return s.db
}

// SaveRound archives a finished round. Saving the same round twice is a no-op.
func (s *service) SaveRound(ctx context.Context, r Round) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rounds (round_id, segment_index, number, color, bet_count, total_staked, total_payout, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (round_id) DO NOTHING`,
		r.RoundID, r.SegmentIndex, r.Number, r.Color, r.BetCount,
		r.TotalStaked.StringFixed(2), r.TotalPayout.StringFixed(2),
		r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save round %s: %w", r.RoundID, err)
	}
	return nil
}

// RecentRounds returns archived rounds, newest first
func (s *service) RecentRounds(ctx context.Context, limit int) ([]Round, error) {
	if limit <= 0 {
		limit = DEFAULT_ROUNDS_LIMIT
	}
	if limit > MAX_ROUNDS_LIMIT {
		limit = MAX_ROUNDS_LIMIT
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT round_id, segment_index, number, color, bet_count, total_staked::text, total_payout::text, started_at, finished_at
		FROM rounds
		ORDER BY finished_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	rounds := make([]Round, 0, limit)
	for rows.Next() {
		var (
			r              Round
			staked, payout string
		)
		if err := rows.Scan(&r.RoundID, &r.SegmentIndex, &r.Number, &r.Color, &r.BetCount, &staked, &payout, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		if r.TotalStaked, err = decimal.NewFromString(staked); err != nil {
			return nil, err
		}
		if r.TotalPayout, err = decimal.NewFromString(payout); err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}
