// Package application は求人への応募の送信・一覧・取り下げのビジネスロジックを提供する。
package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hitoshi/jobboard/internal/metrics"
	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
	"github.com/hitoshi/jobboard/internal/security"
	"github.com/hitoshi/jobboard/internal/storage"
	"github.com/hitoshi/jobboard/internal/validation"
)

// ユーザー向けメッセージ
const (
	MsgResumeRequired     = "Resume File Required!"
	MsgInvalidResumeType  = "Invalid file type. Please upload a PNG, JPEG or WEBP file."
	MsgIncomplete         = "Please fill all fields."
	MsgJobNotFound        = "Job not found!"
	MsgResumeUploadFailed = "Failed to upload resume."
)

// allowedResumeTypes は履歴書として受け付けるMIMEタイプ。
var allowedResumeTypes = []string{"image/png", "image/jpeg", "image/webp"}

// ResumeUpload はアップロードされた履歴書ファイル。
type ResumeUpload struct {
	Filename string
	Data     []byte
}

// SubmitInput は応募送信の入力。
type SubmitInput struct {
	Name        string        `json:"name" validate:"required"`
	Email       string        `json:"email" validate:"required"`
	CoverLetter string        `json:"coverLetter" validate:"required"`
	Phone       string        `json:"phone" validate:"required"`
	Address     string        `json:"address" validate:"required"`
	JobID       string        `json:"jobId" validate:"required"`
	Resume      *ResumeUpload `json:"-"`
}

// Service は応募に関するビジネスロジックを提供する。
type Service struct {
	apps      repository.ApplicationRepository
	jobs      repository.JobRepository
	resumes   storage.ResumeStore
	sanitizer security.TextSanitizer
	validator *validation.Validator
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	apps repository.ApplicationRepository,
	jobs repository.JobRepository,
	resumes storage.ResumeStore,
	sanitizer security.TextSanitizer,
	mc metrics.MetricsCollector,
) *Service {
	return &Service{
		apps:      apps,
		jobs:      jobs,
		resumes:   resumes,
		sanitizer: sanitizer,
		validator: validation.New(),
		metrics:   metrics.OrNop(mc),
		now:       time.Now,
	}
}

// Submit は求職者として求人に応募する。
// 履歴書を保存した後に応募の保存に失敗した場合は、保存済みの履歴書を削除する。
func (s *Service) Submit(ctx context.Context, seeker *model.User, in SubmitInput) (*model.Application, error) {
	if in.Resume == nil || len(in.Resume.Data) == 0 {
		return nil, model.NewBadRequestError(MsgResumeRequired)
	}

	mtype := mimetype.Detect(in.Resume.Data)
	if !mimetype.EqualsAny(mtype.String(), allowedResumeTypes...) {
		s.metrics.RecordResumeUploadFailure("invalid_type")
		return nil, model.NewBadRequestError(MsgInvalidResumeType)
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.CoverLetter = s.sanitizer.Sanitize(in.CoverLetter)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.JobID = strings.TrimSpace(in.JobID)

	if failures := s.validator.Validate(in); failures != nil {
		return nil, model.NewBadRequestError(MsgIncomplete)
	}

	job, err := s.jobs.FindByID(ctx, in.JobID)
	if err != nil {
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}
	if job == nil {
		return nil, model.NewNotFoundError(MsgJobNotFound)
	}

	key := storage.NewResumeKey(mtype.Extension())
	resume, err := s.resumes.Save(ctx, key, mtype.String(), in.Resume.Data)
	if err != nil {
		s.metrics.RecordResumeUploadFailure("storage")
		return nil, model.NewInternalError(MsgResumeUploadFailed, err)
	}

	app := &model.Application{
		Name:        in.Name,
		Email:       in.Email,
		CoverLetter: in.CoverLetter,
		Phone:       in.Phone,
		Address:     in.Address,
		Resume:      resume,
		JobID:       job.ID,
		Applicant:   model.RoleRef{UserID: seeker.ID, Role: model.RoleJobSeeker},
		Employer:    model.RoleRef{UserID: job.PostedBy, Role: model.RoleEmployer},
		CreatedAt:   s.now(),
	}

	if err := s.apps.Create(ctx, app); err != nil {
		s.metrics.RecordResumeUploadFailure("persist")
		if delErr := s.resumes.Delete(ctx, resume.PublicID); delErr != nil {
			slog.Error("failed to remove orphaned resume",
				slog.String("public_id", resume.PublicID),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}

	s.metrics.RecordApplicationSubmitted()
	slog.Info("application submitted",
		slog.String("application_id", app.ID),
		slog.String("job_id", job.ID),
		slog.String("user_id", seeker.ID),
	)
	return app, nil
}

// ListForEmployer は呼び出し元の雇用者宛ての応募一覧を返す。
func (s *Service) ListForEmployer(ctx context.Context, employer *model.User) ([]*model.Application, error) {
	apps, err := s.apps.ListByEmployer(ctx, employer.ID)
	if err != nil {
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}
	return apps, nil
}

// ListForApplicant は呼び出し元の求職者が送信した応募一覧を返す。
func (s *Service) ListForApplicant(ctx context.Context, seeker *model.User) ([]*model.Application, error) {
	apps, err := s.apps.ListByApplicant(ctx, seeker.ID)
	if err != nil {
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}
	return apps, nil
}

// Withdraw は自身の応募を削除する。他者の応募は存在しないものとして扱う。
// 履歴書ファイルの削除は失敗してもログのみ出力する。
func (s *Service) Withdraw(ctx context.Context, seeker *model.User, id string) error {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		return model.NewInternalError(model.MsgInternalError, err)
	}
	if app == nil || app.Applicant.UserID != seeker.ID {
		return model.NewNotFoundError(model.MsgApplicationAbsent)
	}

	if err := s.apps.Delete(ctx, app.ID); err != nil {
		return model.NewInternalError(model.MsgInternalError, err)
	}

	if app.Resume.PublicID != "" {
		if err := s.resumes.Delete(ctx, app.Resume.PublicID); err != nil {
			slog.Warn("failed to remove resume of deleted application",
				slog.String("application_id", app.ID),
				slog.String("public_id", app.Resume.PublicID),
				slog.String("error", err.Error()),
			)
		}
	}

	slog.Info("application deleted",
		slog.String("application_id", app.ID),
		slog.String("user_id", seeker.ID),
	)
	return nil
}
