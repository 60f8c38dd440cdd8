package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/jobboard/internal/model"
)

// PostgresJobRepo はPostgreSQLを使用した求人リポジトリ。
type PostgresJobRepo struct {
	db *sql.DB
}

// NewPostgresJobRepo はPostgresJobRepoを生成する。
func NewPostgresJobRepo(db *sql.DB) *PostgresJobRepo {
	return &PostgresJobRepo{db: db}
}

const jobColumns = `id, title, description, category, country, city, location,
	fixed_salary, salary_from, salary_to, expired, job_posted_on, posted_by`

// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
func (r *PostgresJobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	return job, nil
}

// ListActive は募集中の求人を掲載日時の降順で返す。
func (r *PostgresJobRepo) ListActive(ctx context.Context) ([]*model.Job, error) {
	return r.query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE expired = FALSE ORDER BY job_posted_on DESC`,
	)
}

// ListByPoster は指定ユーザーが投稿した求人を返す。
func (r *PostgresJobRepo) ListByPoster(ctx context.Context, userID string) ([]*model.Job, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, userID)
	}
	return r.query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE posted_by = $1 ORDER BY job_posted_on DESC`,
		userID,
	)
}

// Create は求人を作成し、採番したIDをjob.IDに設定する。
func (r *PostgresJobRepo) Create(ctx context.Context, job *model.Job) error {
	if _, err := uuid.Parse(job.PostedBy); err != nil {
		return fmt.Errorf("%w: postedBy %s", ErrInvalidID, job.PostedBy)
	}

	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs (id, title, description, category, country, city, location,
			fixed_salary, salary_from, salary_to, expired, job_posted_on, posted_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		id, job.Title, job.Description, job.Category, job.Country, job.City, job.Location,
		nullInt64(job.FixedSalary), nullInt64(job.SalaryFrom), nullInt64(job.SalaryTo),
		job.Expired, job.JobPostedOn, job.PostedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	job.ID = id
	return nil
}

// Update は求人の全フィールドを上書きする。
func (r *PostgresJobRepo) Update(ctx context.Context, job *model.Job) error {
	if _, err := uuid.Parse(job.ID); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, job.ID)
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET title = $2, description = $3, category = $4, country = $5,
			city = $6, location = $7, fixed_salary = $8, salary_from = $9, salary_to = $10,
			expired = $11
		 WHERE id = $1`,
		job.ID, job.Title, job.Description, job.Category, job.Country,
		job.City, job.Location,
		nullInt64(job.FixedSalary), nullInt64(job.SalaryFrom), nullInt64(job.SalaryTo),
		job.Expired,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// Delete は指定IDの求人を削除する。
func (r *PostgresJobRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

func (r *PostgresJobRepo) query(ctx context.Context, query string, args ...any) ([]*model.Job, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*model.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return jobs, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(s rowScanner) (*model.Job, error) {
	job := &model.Job{}
	var fixed, from, to sql.NullInt64
	err := s.Scan(
		&job.ID, &job.Title, &job.Description, &job.Category, &job.Country, &job.City, &job.Location,
		&fixed, &from, &to, &job.Expired, &job.JobPostedOn, &job.PostedBy,
	)
	if err != nil {
		return nil, err
	}
	job.FixedSalary = int64Ptr(fixed)
	job.SalaryFrom = int64Ptr(from)
	job.SalaryTo = int64Ptr(to)
	return job, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

// compile-time interface check
var _ JobRepository = (*PostgresJobRepo)(nil)
