package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/jobboard/internal/model"
)

// PostgresApplicationRepo はPostgreSQLを使用した応募リポジトリ。
type PostgresApplicationRepo struct {
	db *sql.DB
}

// NewPostgresApplicationRepo はPostgresApplicationRepoを生成する。
func NewPostgresApplicationRepo(db *sql.DB) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{db: db}
}

const applicationColumns = `id, name, email, cover_letter, phone, address,
	resume_public_id, resume_url, job_id, applicant_id, applicant_role,
	employer_id, employer_role, created_at`

// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	app, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find application: %w", err)
	}
	return app, nil
}

// Create は応募を作成し、採番したIDをapp.IDに設定する。
func (r *PostgresApplicationRepo) Create(ctx context.Context, app *model.Application) error {
	for _, ref := range []string{app.JobID, app.Applicant.UserID, app.Employer.UserID} {
		if _, err := uuid.Parse(ref); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidID, ref)
		}
	}

	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (id, name, email, cover_letter, phone, address,
			resume_public_id, resume_url, job_id, applicant_id, applicant_role,
			employer_id, employer_role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		id, app.Name, app.Email, app.CoverLetter, app.Phone, app.Address,
		app.Resume.PublicID, app.Resume.URL, app.JobID,
		app.Applicant.UserID, string(app.Applicant.Role),
		app.Employer.UserID, string(app.Employer.Role),
		app.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}

	app.ID = id
	return nil
}

// ListByEmployer は指定雇用者宛ての応募を作成日時の降順で返す。
func (r *PostgresApplicationRepo) ListByEmployer(ctx context.Context, employerID string) ([]*model.Application, error) {
	if _, err := uuid.Parse(employerID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, employerID)
	}
	return r.query(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE employer_id = $1 ORDER BY created_at DESC`,
		employerID,
	)
}

// ListByApplicant は指定求職者が送信した応募を作成日時の降順で返す。
func (r *PostgresApplicationRepo) ListByApplicant(ctx context.Context, applicantID string) ([]*model.Application, error) {
	if _, err := uuid.Parse(applicantID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, applicantID)
	}
	return r.query(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE applicant_id = $1 ORDER BY created_at DESC`,
		applicantID,
	)
}

// Delete は指定IDの応募を削除する。
func (r *PostgresApplicationRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return nil
}

func (r *PostgresApplicationRepo) query(ctx context.Context, query string, args ...any) ([]*model.Application, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []*model.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return apps, nil
}

func scanApplication(s rowScanner) (*model.Application, error) {
	app := &model.Application{}
	var applicantRole, employerRole string
	err := s.Scan(
		&app.ID, &app.Name, &app.Email, &app.CoverLetter, &app.Phone, &app.Address,
		&app.Resume.PublicID, &app.Resume.URL, &app.JobID,
		&app.Applicant.UserID, &applicantRole,
		&app.Employer.UserID, &employerRole,
		&app.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	app.Applicant.Role = model.Role(applicantRole)
	app.Employer.Role = model.Role(employerRole)
	return app, nil
}

// compile-time interface check
var _ ApplicationRepository = (*PostgresApplicationRepo)(nil)
