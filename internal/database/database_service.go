package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq" // PostgreSQLドライバー
)

// DatabaseService provides methods for interacting with the database.
type DatabaseService struct {
	DB *sql.DB
}

// NewDatabaseService creates a new instance of DatabaseService and establishes a database connection.
func NewDatabaseService(ctx context.Context, databaseURL string) (*DatabaseService, error) {
	log.Printf("データベース接続を試行中: URLの最初の20文字: %s...", databaseURL[:min(len(databaseURL), 20)])
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("データベースへの接続オブジェクト作成に失敗しました: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベースのPingに失敗しました。接続情報やネットワークを確認してください: %w", err)
	}

	log.Println("データベースに正常に接続しました。")
	return &DatabaseService{DB: db}, nil
}

// schema は results テーブルの定義です。
const schema = `
CREATE TABLE IF NOT EXISTS results (
	id         BIGSERIAL PRIMARY KEY,
	user_id    TEXT        NOT NULL,
	score      INTEGER     NOT NULL CHECK (score >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS results_score_idx ON results (score DESC, created_at ASC);
CREATE INDEX IF NOT EXISTS results_user_idx ON results (user_id);
`

// EnsureSchema は必要なテーブルが無ければ作成します。
func (s *DatabaseService) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("スキーマの作成に失敗しました: %w", err)
	}
	return nil
}

// ServerVersion は接続先PostgreSQLのバージョン文字列を返します。
func (s *DatabaseService) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := s.DB.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("バージョンの取得に失敗しました: %w", err)
	}
	return version, nil
}

// PingContext は接続が生きているか確認します。
func (s *DatabaseService) PingContext(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *DatabaseService) Close() error {
	return s.DB.Close()
}
