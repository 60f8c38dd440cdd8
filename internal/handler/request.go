package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/jobboard/internal/model"
)

// MsgInvalidBody はリクエストボディを解析できない場合のメッセージ。
const MsgInvalidBody = "Invalid request body."

// maxBodyBytes はJSON・フォームボディの上限サイズ。
const maxBodyBytes = 1 << 20

// decodeBody はJSONまたはURLエンコードされたフォームのボディをdstに読み込む。
// フォームの値は文字列のJSONオブジェクトとして扱い、同じ型定義で解釈する。
// 空のボディは空オブジェクトとして扱う。
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return &model.APIError{Kind: model.KindBadRequest, Message: MsgInvalidBody, Err: err}
		}
		fields := make(map[string]string, len(r.PostForm))
		for key := range r.PostForm {
			fields[key] = r.PostForm.Get(key)
		}
		raw, err := json.Marshal(fields)
		if err != nil {
			return model.NewInternalError(model.MsgInternalError, err)
		}
		return unmarshalBody(raw, dst)
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return &model.APIError{Kind: model.KindBadRequest, Message: MsgInvalidBody, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return unmarshalBody(raw, dst)
}

func unmarshalBody(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return &model.APIError{Kind: model.KindBadRequest, Message: MsgInvalidBody, Err: err}
	}
	return nil
}

// flexString は文字列または数値を受け付ける文字列フィールド。
// 電話番号を数値で送る既存クライアントに対応する。
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string or number: %w", err)
		}
		*f = flexString(n.String())
	}
	return nil
}

// flexInt は数値・数値文字列・空文字列・nullを受け付ける整数フィールド。
// キーが存在したかどうかをSetで区別し、空文字列とnullは値なしとして扱う。
type flexInt struct {
	Set   bool
	Value *int64
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	f.Set = true
	f.Value = nil

	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var text string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}
	} else {
		text = string(b)
	}

	v, err := parseWholeNumber(text)
	if err != nil {
		return err
	}
	f.Value = &v
	return nil
}

// parseWholeNumber は整数として表せる数値文字列をint64に変換する。"50000.0" のような表記も受け付ける。
func parseWholeNumber(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	fv, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(fv, 0) || math.IsNaN(fv) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if fv != math.Trunc(fv) || fv > math.MaxInt64 || fv < math.MinInt64 {
		return 0, fmt.Errorf("number %q is not a whole number", s)
	}
	return int64(fv), nil
}

// flexBool は真偽値または "true"/"false" 文字列を受け付ける。
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		*f = flexBool(v)
		return nil
	}

	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexBool(v)
	return nil
}

// isBodyTooLarge はボディサイズ上限を超えたエラーかどうかを返す。
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
