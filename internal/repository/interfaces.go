// Package repository はデータ永続化のインターフェースと、
// MongoDB・PostgreSQLそれぞれの実装を提供する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/jobboard/internal/model"
)

var (
	// ErrDuplicateEmail はメールアドレスの一意制約違反を表す。
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrInvalidID はIDの形式が不正な場合に返される。
	ErrInvalidID = errors.New("invalid id")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByEmailAndRole はメールアドレスとロールでユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByEmailAndRole(ctx context.Context, email string, role model.Role) (*model.User, error)

	// Create はユーザーを作成し、採番したIDをuser.IDに設定する。
	// メールアドレスが重複する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error
}

// JobRepository は求人データの永続化インターフェース。
type JobRepository interface {
	// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
	// IDの形式が不正な場合はErrInvalidIDを返す。
	FindByID(ctx context.Context, id string) (*model.Job, error)

	// ListActive は募集中（expired=false）の求人を返す。
	ListActive(ctx context.Context) ([]*model.Job, error)

	// ListByPoster は指定ユーザーが投稿した求人を返す。
	ListByPoster(ctx context.Context, userID string) ([]*model.Job, error)

	// Create は求人を作成し、採番したIDをjob.IDに設定する。
	Create(ctx context.Context, job *model.Job) error

	// Update は求人を上書き更新する。
	Update(ctx context.Context, job *model.Job) error

	// Delete は指定IDの求人を削除する。応募はカスケード削除しない。
	Delete(ctx context.Context, id string) error
}

// ApplicationRepository は応募データの永続化インターフェース。
type ApplicationRepository interface {
	// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
	// IDの形式が不正な場合はErrInvalidIDを返す。
	FindByID(ctx context.Context, id string) (*model.Application, error)

	// Create は応募を作成し、採番したIDをapp.IDに設定する。
	Create(ctx context.Context, app *model.Application) error

	// ListByEmployer は指定雇用者宛ての応募を作成日時の降順で返す。
	ListByEmployer(ctx context.Context, employerID string) ([]*model.Application, error)

	// ListByApplicant は指定求職者が送信した応募を作成日時の降順で返す。
	ListByApplicant(ctx context.Context, applicantID string) ([]*model.Application, error)

	// Delete は指定IDの応募を削除する。
	Delete(ctx context.Context, id string) error
}

// Store は各リポジトリと接続のライフサイクルをまとめたもの。
// app層で明示的に構築し、ハンドラー・サービスへ注入する。
type Store struct {
	Users        UserRepository
	Jobs         JobRepository
	Applications ApplicationRepository

	pinger func(ctx context.Context) error
	closer func(ctx context.Context) error
}

// PingContext はバックエンドへの疎通を確認する。
func (s *Store) PingContext(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	return s.pinger(ctx)
}

// Close は接続を解放する。
func (s *Store) Close(ctx context.Context) error {
	if s.closer == nil {
		return nil
	}
	return s.closer(ctx)
}
