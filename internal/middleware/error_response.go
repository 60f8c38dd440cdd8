package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/jobboard/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
type ErrorResponseBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteJSON はステータスコードとJSONボディを書き込む。
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// WriteError はエラーを統一フォーマットのHTTPレスポンスに変換して書き込む。
// *model.APIError 以外のエラーは内部エラーとして扱い、詳細はログにのみ出力する。
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = model.NewInternalError(model.MsgInternalError, err)
	}

	status := apiErr.StatusCode()
	if status >= http.StatusInternalServerError {
		attrs := []any{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("kind", string(apiErr.Kind)),
		}
		if apiErr.Err != nil {
			attrs = append(attrs, slog.String("error", apiErr.Err.Error()))
		}
		slog.Error("request failed", attrs...)
	}

	WriteJSON(w, status, ErrorResponseBody{Success: false, Message: apiErr.Message})
}
