package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse はAPIエラーレスポンスの統一フォーマット。
// 本文は {"error": "<メッセージ>"} の1フィールドに固定する。
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// ミドルウェアとハンドラの双方が同じフォーマットでエラーを返すために使用する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, "内部エラーが発生しました。")
}
