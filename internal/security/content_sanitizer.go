// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は求人説明や応募のカバーレターなど、利用者が自由入力する
// テキストからHTMLマークアップを除去する。bluemondayのStrictPolicyを使用する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は自由入力テキストのサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize はHTMLタグを除去したプレーンテキストを返す。
	// script, styleタグは中身ごと除去される。前後の空白は取り除く。
	// 同一入力に対して常に同一出力を返す。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーは並行利用してよい。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はHTMLタグを除去したプレーンテキストを返す。
// レスポンスはJSONで返すため、StrictPolicyが付与した実体参照は元の文字に戻す。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}

// PassthroughSanitizer は入力をそのまま返すTextSanitizer。テスト用。
type PassthroughSanitizer struct{}

// Sanitize は入力をそのまま返す。
func (PassthroughSanitizer) Sanitize(raw string) string { return raw }
