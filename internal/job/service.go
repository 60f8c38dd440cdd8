// Package job は求人の投稿・更新・削除・参照のビジネスロジックを提供する。
package job

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/jobboard/internal/metrics"
	"github.com/hitoshi/jobboard/internal/model"
	"github.com/hitoshi/jobboard/internal/repository"
	"github.com/hitoshi/jobboard/internal/security"
	"github.com/hitoshi/jobboard/internal/validation"
)

// ユーザー向けメッセージ
const (
	MsgIncompleteJob      = "Please provide full job details."
	MsgSalaryMissing      = "Please either provide fixed salary or ranged salary."
	MsgSalaryBoth         = "Cannot Enter Fixed and Ranged Salary together."
	MsgSalaryNotPositive  = "Salary must be a positive number."
	MsgSalaryRangeInvalid = "Salary From cannot be greater than Salary To."
	MsgJobNotFoundForEdit = "OOPS! Job not found."
)

// PostInput は求人投稿の入力。
type PostInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Country     string `json:"country" validate:"required"`
	City        string `json:"city" validate:"required"`
	Location    string `json:"location" validate:"required"`
	FixedSalary *int64
	SalaryFrom  *int64
	SalaryTo    *int64
}

// SalaryPatch は更新時の給与フィールド。
// Setがfalseなら変更なし、trueでValueがnilなら値を削除する。
type SalaryPatch struct {
	Set   bool
	Value *int64
}

// UpdateInput は求人の部分更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	Country     *string
	City        *string
	Location    *string
	FixedSalary SalaryPatch
	SalaryFrom  SalaryPatch
	SalaryTo    SalaryPatch
	Expired     *bool
}

// requiredFields は更新後の求人に対する必須項目チェック用。
type requiredFields struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Country     string `json:"country" validate:"required"`
	City        string `json:"city" validate:"required"`
	Location    string `json:"location" validate:"required"`
}

// Service は求人に関するビジネスロジックを提供する。
type Service struct {
	jobs      repository.JobRepository
	sanitizer security.TextSanitizer
	validator *validation.Validator
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(jobs repository.JobRepository, sanitizer security.TextSanitizer, mc metrics.MetricsCollector) *Service {
	return &Service{
		jobs:      jobs,
		sanitizer: sanitizer,
		validator: validation.New(),
		metrics:   metrics.OrNop(mc),
		now:       time.Now,
	}
}

// ListActive は募集中の求人一覧を返す。
func (s *Service) ListActive(ctx context.Context) ([]*model.Job, error) {
	jobs, err := s.jobs.ListActive(ctx)
	if err != nil {
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}
	return jobs, nil
}

// Post は雇用者として求人を投稿する。
func (s *Service) Post(ctx context.Context, employer *model.User, in PostInput) (*model.Job, error) {
	job := &model.Job{
		Title:       strings.TrimSpace(in.Title),
		Description: s.sanitizer.Sanitize(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Country:     strings.TrimSpace(in.Country),
		City:        strings.TrimSpace(in.City),
		Location:    strings.TrimSpace(in.Location),
		FixedSalary: in.FixedSalary,
		SalaryFrom:  in.SalaryFrom,
		SalaryTo:    in.SalaryTo,
		JobPostedOn: s.now(),
		PostedBy:    employer.ID,
	}

	if err := s.validateJob(job); err != nil {
		return nil, err
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}

	s.metrics.RecordJobPosted()
	slog.Info("job posted",
		slog.String("job_id", job.ID),
		slog.String("user_id", employer.ID),
	)
	return job, nil
}

// ListMine は呼び出し元の雇用者が投稿した求人一覧を返す。
func (s *Service) ListMine(ctx context.Context, employer *model.User) ([]*model.Job, error) {
	jobs, err := s.jobs.ListByPoster(ctx, employer.ID)
	if err != nil {
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}
	return jobs, nil
}

// Update は自身が投稿した求人を部分更新する。
// 他者の求人は存在しないものとして扱う。
func (s *Service) Update(ctx context.Context, employer *model.User, id string, in UpdateInput) (*model.Job, error) {
	job, err := s.findOwned(ctx, employer, id)
	if err != nil {
		return nil, err
	}

	applyString(&job.Title, in.Title)
	if in.Description != nil {
		job.Description = s.sanitizer.Sanitize(*in.Description)
	}
	applyString(&job.Category, in.Category)
	applyString(&job.Country, in.Country)
	applyString(&job.City, in.City)
	applyString(&job.Location, in.Location)
	applySalary(&job.FixedSalary, in.FixedSalary)
	applySalary(&job.SalaryFrom, in.SalaryFrom)
	applySalary(&job.SalaryTo, in.SalaryTo)
	if in.Expired != nil {
		job.Expired = *in.Expired
	}

	if err := s.validateJob(job); err != nil {
		return nil, err
	}

	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}

	slog.Info("job updated",
		slog.String("job_id", job.ID),
		slog.String("user_id", employer.ID),
	)
	return job, nil
}

// Delete は自身が投稿した求人を削除する。応募は削除しない。
func (s *Service) Delete(ctx context.Context, employer *model.User, id string) error {
	job, err := s.findOwned(ctx, employer, id)
	if err != nil {
		return err
	}

	if err := s.jobs.Delete(ctx, job.ID); err != nil {
		return model.NewInternalError(model.MsgInternalError, err)
	}

	slog.Info("job deleted",
		slog.String("job_id", job.ID),
		slog.String("user_id", employer.ID),
	)
	return nil
}

// Get は指定IDの求人を返す。IDの形式不正も未検出として扱う。
func (s *Service) Get(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidID) {
			return nil, model.NewNotFoundError(model.MsgJobNotFound)
		}
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}
	if job == nil {
		return nil, model.NewNotFoundError(model.MsgJobNotFound)
	}
	return job, nil
}

func (s *Service) findOwned(ctx context.Context, employer *model.User, id string) (*model.Job, error) {
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}
	if job == nil || job.PostedBy != employer.ID {
		return nil, model.NewNotFoundError(MsgJobNotFoundForEdit)
	}
	return job, nil
}

// validateJob は必須項目と給与の整合性を検証する。
func (s *Service) validateJob(job *model.Job) error {
	fields := requiredFields{
		Title:       job.Title,
		Description: job.Description,
		Category:    job.Category,
		Country:     job.Country,
		City:        job.City,
		Location:    job.Location,
	}
	if failures := s.validator.Validate(fields); failures != nil {
		return model.NewBadRequestError(MsgIncompleteJob)
	}
	return ValidateSalary(job)
}

// ValidateSalary は給与が固定額か範囲のどちらか一方のみで指定されていることを検証する。
func ValidateSalary(job *model.Job) error {
	hasAnyRange := job.SalaryFrom != nil || job.SalaryTo != nil

	switch {
	case job.HasFixedSalary() && hasAnyRange:
		return model.NewBadRequestError(MsgSalaryBoth)
	case !job.HasFixedSalary() && !job.HasSalaryRange():
		return model.NewBadRequestError(MsgSalaryMissing)
	}

	for _, v := range []*int64{job.FixedSalary, job.SalaryFrom, job.SalaryTo} {
		if v != nil && *v <= 0 {
			return model.NewBadRequestError(MsgSalaryNotPositive)
		}
	}

	if job.HasSalaryRange() && *job.SalaryFrom > *job.SalaryTo {
		return model.NewBadRequestError(MsgSalaryRangeInvalid)
	}
	return nil
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func applySalary(dst **int64, p SalaryPatch) {
	if p.Set {
		*dst = p.Value
	}
}
