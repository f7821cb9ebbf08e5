package models

import (
	"time"
)

// Result はresultsテーブルのレコードに対応する構造体です。
// 1ゲーム終了ごとに1件作成されます。
type Result struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Score     int       `json:"score"` // 消したライン数の合計
	CreatedAt time.Time `json:"created_at"`
}

// ResultResponse はランキングAPIのレスポンス用の構造体です。
type ResultResponse struct {
	Result
	Rank int `json:"rank"` // ランキング順位 (1始まり)
}
