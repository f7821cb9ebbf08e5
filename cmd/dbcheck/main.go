// dbcheck は DATABASE_URL への接続とスキーマを確認するための小さなツールです。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/database"
)

func main() {
	migrate := flag.Bool("migrate", false, "results テーブルが無ければ作成する")
	timeout := flag.Duration("timeout", 10*time.Second, "接続のタイムアウト")
	flag.Parse()

	os.Exit(run(*migrate, *timeout))
}

// run は接続確認を行い、終了コードを返します。
func run(migrate bool, timeout time.Duration) int {
	// .envファイルは config.Load が読み込む。ここで必要なのは DATABASE_URL だけなので
	// JWT_SECRET などの検証エラーは無視する
	cfg, err := config.Load()
	databaseURL := os.Getenv("DATABASE_URL")
	if err == nil {
		databaseURL = cfg.DatabaseURL
	}
	if databaseURL == "" {
		color.Red("エラー: DATABASE_URL 環境変数が設定されていません。")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fmt.Printf("テスト開始: データベース接続を試行中...\nURLの最初の50文字: %s...\n", databaseURL[:min(len(databaseURL), 50)])
	db, err := database.NewDatabaseService(ctx, databaseURL)
	if err != nil {
		color.Red("エラー: %v", err)
		return 1
	}
	defer db.Close()
	color.Green("成功: データベースに正常に接続し、Pingが成功しました！")

	version, err := db.ServerVersion(ctx)
	if err != nil {
		color.Yellow("警告: %v", err)
	} else {
		fmt.Printf("データベースバージョン: %s\n", version)
	}

	if migrate {
		if err := db.EnsureSchema(ctx); err != nil {
			color.Red("エラー: %v", err)
			return 1
		}
		color.Green("成功: results テーブルを確認しました。")
	}

	top, err := database.NewResultRepository(db.DB).GetTopResults(ctx, 5)
	if err != nil {
		color.Yellow("警告: ランキングを取得できませんでした (-migrate でテーブルを作成できます): %v", err)
		return 0
	}
	fmt.Printf("上位 %d 件:\n", len(top))
	for _, r := range top {
		fmt.Printf("  %s %-36s %d\n", color.CyanString("#%d", r.Rank), r.UserID, r.Score)
	}
	return 0
}
