// Package storage は応募時にアップロードされる履歴書ファイルの保存先を提供する。
package storage

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/hitoshi/jobboard/internal/model"
)

// ErrInvalidKey はオブジェクトキーが不正な場合に返される。
var ErrInvalidKey = errors.New("invalid object key")

// ResumeStore は履歴書ファイルの保存・削除を行うインターフェース。
type ResumeStore interface {
	// Save はデータをkeyで保存し、公開URLを含む参照を返す。
	Save(ctx context.Context, key, contentType string, data []byte) (model.ResumeFile, error)

	// Delete はkeyのオブジェクトを削除する。存在しない場合もエラーにしない。
	Delete(ctx context.Context, key string) error
}

// resumePrefix は履歴書オブジェクトのキー接頭辞。
const resumePrefix = "resumes"

// NewResumeKey は履歴書オブジェクトの一意なキーを生成する。extは"."付きの拡張子。
func NewResumeKey(ext string) string {
	return path.Join(resumePrefix, uuid.New().String()+ext)
}

// validateKey はキーがストレージのルート外を指していないことを確認する。
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || path.Clean(key) != key || strings.HasPrefix(key, "..") {
		return ErrInvalidKey
	}
	return nil
}

// joinURL はベースURLとキーを連結する。
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
