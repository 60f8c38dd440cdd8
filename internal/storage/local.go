package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hitoshi/jobboard/internal/model"
)

// LocalStore はローカルディスクに履歴書を保存する。開発環境向け。
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore はLocalStoreを生成する。baseURLは保存先を配信するURLの接頭辞。
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: baseURL}
}

// Save はdir配下にファイルを書き込む。
func (s *LocalStore) Save(_ context.Context, key, _ string, data []byte) (model.ResumeFile, error) {
	if err := validateKey(key); err != nil {
		return model.ResumeFile{}, err
	}

	dst := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return model.ResumeFile{}, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return model.ResumeFile{}, fmt.Errorf("failed to write resume: %w", err)
	}

	return model.ResumeFile{PublicID: key, URL: joinURL(s.baseURL, key)}, nil
}

// Delete はファイルを削除する。
func (s *LocalStore) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	return nil
}

// Handler は保存済みファイルを配信するハンドラーを返す。prefixはマウント先のパス。
// ディレクトリへのリクエストは一覧を返さず404とする。
func (s *LocalStore) Handler(prefix string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(fileOnlyFS{http.Dir(s.dir)}))
}

// fileOnlyFS は通常ファイルだけを開けるhttp.FileSystem。
type fileOnlyFS struct {
	fs http.FileSystem
}

func (f fileOnlyFS) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

var _ ResumeStore = (*LocalStore)(nil)
