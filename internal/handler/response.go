// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"net/http"
	"time"

	"github.com/hitoshi/jobboard/internal/middleware"
	"github.com/hitoshi/jobboard/internal/model"
)

// appHandler はエラーを返すハンドラー。
// 返されたエラーはdispatchで統一フォーマットのレスポンスに変換される。
type appHandler func(w http.ResponseWriter, r *http.Request) error

// dispatch はappHandlerをhttp.HandlerFuncに変換する。
// エラーレスポンスの生成はこの1箇所に集約する。
func dispatch(h appHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			middleware.WriteError(w, r, err)
		}
	}
}

// writeJSON は成功レスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) error {
	middleware.WriteJSON(w, statusCode, body)
	return nil
}

// currentUser は認証済みユーザーを返す。未認証の場合はUnauthorizedエラーを返す。
func currentUser(r *http.Request) (*model.User, error) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		return nil, model.NewUnauthorizedError(model.MsgNotAuthorized)
	}
	return user, nil
}

// --- レスポンスDTO ---
// IDは既存フロントエンドとの互換のため "_id" で返す。

type userResponse struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

type jobResponse struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Country     string    `json:"country"`
	City        string    `json:"city"`
	Location    string    `json:"location"`
	FixedSalary *int64    `json:"fixedSalary,omitempty"`
	SalaryFrom  *int64    `json:"salaryFrom,omitempty"`
	SalaryTo    *int64    `json:"salaryTo,omitempty"`
	Expired     bool      `json:"expired"`
	JobPostedOn time.Time `json:"jobPostedOn"`
	PostedBy    string    `json:"postedBy"`
}

func toJobResponse(j *model.Job) jobResponse {
	return jobResponse{
		ID:          j.ID,
		Title:       j.Title,
		Description: j.Description,
		Category:    j.Category,
		Country:     j.Country,
		City:        j.City,
		Location:    j.Location,
		FixedSalary: j.FixedSalary,
		SalaryFrom:  j.SalaryFrom,
		SalaryTo:    j.SalaryTo,
		Expired:     j.Expired,
		JobPostedOn: j.JobPostedOn,
		PostedBy:    j.PostedBy,
	}
}

func toJobResponses(jobs []*model.Job) []jobResponse {
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	return out
}

type resumeResponse struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

type roleRefResponse struct {
	User string `json:"user"`
	Role string `json:"role"`
}

type applicationResponse struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	CoverLetter string          `json:"coverLetter"`
	Phone       string          `json:"phone"`
	Address     string          `json:"address"`
	Resume      resumeResponse  `json:"resume"`
	JobID       string          `json:"jobId"`
	ApplicantID roleRefResponse `json:"applicantID"`
	EmployerID  roleRefResponse `json:"employerID"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func toApplicationResponse(a *model.Application) applicationResponse {
	return applicationResponse{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		CoverLetter: a.CoverLetter,
		Phone:       a.Phone,
		Address:     a.Address,
		Resume:      resumeResponse{PublicID: a.Resume.PublicID, URL: a.Resume.URL},
		JobID:       a.JobID,
		ApplicantID: roleRefResponse{User: a.Applicant.UserID, Role: string(a.Applicant.Role)},
		EmployerID:  roleRefResponse{User: a.Employer.UserID, Role: string(a.Employer.Role)},
		CreatedAt:   a.CreatedAt,
	}
}

func toApplicationResponses(apps []*model.Application) []applicationResponse {
	out := make([]applicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, toApplicationResponse(a))
	}
	return out
}
