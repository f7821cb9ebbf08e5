package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/database"
)

const (
	defaultResultLimit = 50
	maxResultLimit     = 100
)

// ResultHandler はゲーム結果関連のハンドラーを管理する構造体です。
type ResultHandler struct {
	resultRepo database.ResultRepository
}

// NewResultHandler は新しいResultHandlerインスタンスを作成します。
func NewResultHandler(resultRepo database.ResultRepository) *ResultHandler {
	return &ResultHandler{
		resultRepo: resultRepo,
	}
}

// parseLimit は limit クエリを解釈します。不正な値はデフォルトになります。
func parseLimit(raw string) int {
	if raw == "" {
		return defaultResultLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxResultLimit {
		return defaultResultLimit
	}
	return limit
}

// GetTopResults は上位ランキングを取得するハンドラーです。
// GET /api/results?limit=50
func (h *ResultHandler) GetTopResults(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))

	results, err := h.resultRepo.GetTopResults(r.Context(), limit)
	if err != nil {
		log.Printf("ゲーム結果取得エラー: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "ゲーム結果取得に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": results,
	})
}

// GetMyResult はログイン中のユーザーの最高スコアとランキングを取得するハンドラーです。
// GET /api/results/me
func (h *ResultHandler) GetMyResult(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	userResult, err := h.resultRepo.GetUserRanking(r.Context(), userID)
	if err != nil {
		log.Printf("ユーザー結果取得エラー: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "ユーザー結果取得に失敗しました")
		return
	}

	if userResult == nil {
		WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"result":  nil,
			"message": "ユーザーのスコアが見つかりません",
		})
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  userResult,
	})
}
