// tetris-term はサーバーを使わずに端末でゲームを遊ぶためのクライアントです。
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/services/tetris"
	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/tui"
)

func main() {
	settings := tetris.DefaultSettings()
	flag.IntVar(&settings.BoardWidth, "width", settings.BoardWidth, "ボードの幅")
	flag.IntVar(&settings.BoardHeight, "height", settings.BoardHeight, "ボードの高さ")
	flag.DurationVar(&settings.NormalFallInterval, "fall", settings.NormalFallInterval, "通常の落下間隔")
	flag.Int64Var(&settings.Seed, "seed", 0, "テトリミノの乱数シード (0 なら現在時刻)")
	hold := flag.Duration("hold", tui.DefaultHoldWindow, "キーを押し続けているとみなす時間")
	logPath := flag.String("log", "", "ログの出力先 (空なら捨てる)")
	flag.Parse()

	// 画面を壊さないようにログはファイルへ
	log.SetOutput(io.Discard)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	session, err := tetris.NewGameSession(settings, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create game: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	tui.NewDriver(screen, session, *hold).Run(ctx)
	stop()
	screen.Fini()

	fmt.Printf("score %d, lines %d, time %s\n", session.Score(), session.TotalLinesCleared(), session.PlayTime().Truncate(time.Second))
}
