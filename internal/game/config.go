package game

import (
	"log"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	DEFAULT_TICK_INTERVAL = 10 * time.Millisecond
	MAX_BET_AMOUNT        = 10000.0
)

// Config holds the physics and pacing parameters of the table
type Config struct {
	TickInterval time.Duration

	WheelFriction float64 // rad/s^2
	BallFriction  float64 // coefficient, scaled by gravity

	WheelSpeedMin float64
	WheelSpeedMax float64
	BallSpeedMin  float64
	BallSpeedMax  float64

	MaxBetAmount float64
}

func DefaultConfig() Config {
	return Config{
		TickInterval:  DEFAULT_TICK_INTERVAL,
		WheelFriction: 0.3,
		BallFriction:  0.15,
		WheelSpeedMin: 3,
		WheelSpeedMax: 6,
		BallSpeedMin:  10,
		BallSpeedMax:  15,
		MaxBetAmount:  MAX_BET_AMOUNT,
	}
}

// ConfigFromEnv starts from DefaultConfig and applies ROULETTE_* overrides
func ConfigFromEnv() Config {
	def := DefaultConfig()
	cfg := Config{
		TickInterval:  getEnvAsDuration("ROULETTE_TICK_INTERVAL", def.TickInterval),
		WheelFriction: getEnvAsFloat("ROULETTE_WHEEL_FRICTION", def.WheelFriction),
		BallFriction:  getEnvAsFloat("ROULETTE_BALL_FRICTION", def.BallFriction),
		WheelSpeedMin: getEnvAsFloat("ROULETTE_WHEEL_SPEED_MIN", def.WheelSpeedMin),
		WheelSpeedMax: getEnvAsFloat("ROULETTE_WHEEL_SPEED_MAX", def.WheelSpeedMax),
		BallSpeedMin:  getEnvAsFloat("ROULETTE_BALL_SPEED_MIN", def.BallSpeedMin),
		BallSpeedMax:  getEnvAsFloat("ROULETTE_BALL_SPEED_MAX", def.BallSpeedMax),
		MaxBetAmount:  getEnvAsFloat("ROULETTE_MAX_BET", def.MaxBetAmount),
	}

	if !cfg.valid() {
		log.Printf("[ROULETTE] Invalid table configuration %+v, using defaults", cfg)
		return def
	}
	return cfg
}

func (c Config) valid() bool {
	return c.TickInterval > 0 &&
		c.WheelFriction > 0 && c.BallFriction > 0 &&
		c.WheelSpeedMin > 0 && c.WheelSpeedMax >= c.WheelSpeedMin &&
		c.BallSpeedMin > 0 && c.BallSpeedMax >= c.BallSpeedMin
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := getEnv(key, ""); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := getEnv(key, ""); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
