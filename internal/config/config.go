// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/services/tetris"
)

const (
	DefaultPort     = "8080"
	DefaultTickRate = 60 // Hz
)

// Config はサーバー全体の設定です。
type Config struct {
	Port            string
	DatabaseURL     string // 空ならインメモリの結果リポジトリを使う
	JWTSecret       string
	BypassAuth      bool
	AllowedOrigins  []string
	TickRate        int
	RoomJoinTimeout time.Duration // 作成者が接続しないルームを閉じるまでの時間
	Game            tetris.Settings
}

// TickInterval はゲームループの間隔を返します。
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// Load は .env ファイル（本番環境以外）と環境変数から設定を読み込みます。
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("warning: Error loading .env file (this is fine in production): %v", err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv は getenv から設定を組み立てます。未設定の項目はデフォルト値になります。
func FromEnv(getenv func(string) string) (*Config, error) {
	p := envParser{getenv: getenv}

	cfg := &Config{
		Port:            p.str("PORT", DefaultPort),
		DatabaseURL:     getenv("DATABASE_URL"),
		JWTSecret:       getenv("JWT_SECRET"),
		BypassAuth:      p.boolean("BYPASS_AUTH", false),
		AllowedOrigins:  p.list("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		TickRate:        p.integer("TICK_RATE", DefaultTickRate),
		RoomJoinTimeout: p.duration("ROOM_JOIN_TIMEOUT", tetris.DefaultOwnerJoinTimeout),
		Game:            tetris.DefaultSettings(),
	}

	cfg.Game.BoardWidth = p.integer("BOARD_WIDTH", cfg.Game.BoardWidth)
	cfg.Game.BoardHeight = p.integer("BOARD_HEIGHT", cfg.Game.BoardHeight)
	cfg.Game.CellSize = p.float("CELL_SIZE", cfg.Game.CellSize)
	cfg.Game.NormalFallInterval = p.duration("FALL_INTERVAL", cfg.Game.NormalFallInterval)
	cfg.Game.SoftDropInterval = p.duration("SOFT_DROP_INTERVAL", cfg.Game.SoftDropInterval)
	cfg.Game.MoveRepeatDelay = p.duration("MOVE_REPEAT_DELAY", cfg.Game.MoveRepeatDelay)
	cfg.Game.Seed = int64(p.integer("PIECE_SEED", 0))

	if err := p.err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定の組み合わせが正しいか確認します。
func (c *Config) Validate() error {
	if c.TickRate <= 0 || c.TickRate > 1000 {
		return fmt.Errorf("TICK_RATE must be between 1 and 1000, got %d", c.TickRate)
	}
	if c.RoomJoinTimeout <= 0 {
		return fmt.Errorf("ROOM_JOIN_TIMEOUT must be positive, got %s", c.RoomJoinTimeout)
	}
	if c.JWTSecret == "" && !c.BypassAuth {
		return errors.New("JWT_SECRET is required unless BYPASS_AUTH=true")
	}
	if err := c.Game.Validate(); err != nil {
		return fmt.Errorf("invalid game settings: %w", err)
	}
	return nil
}

// envParser は環境変数のパースエラーをまとめて返すためのヘルパーです。
type envParser struct {
	getenv func(string) string
	errs   []error
}

func (p *envParser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (p *envParser) err() error {
	return errors.Join(p.errs...)
}

func (p *envParser) str(key, def string) string {
	if v := p.getenv(key); v != "" {
		return v
	}
	return def
}

func (p *envParser) integer(key string, def int) int {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *envParser) float(key string, def float64) float64 {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *envParser) boolean(key string, def bool) bool {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p *envParser) duration(key string, def time.Duration) time.Duration {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *envParser) list(key string, def []string) []string {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
