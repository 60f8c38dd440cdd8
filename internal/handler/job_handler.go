package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/jobboard/internal/job"
	"github.com/hitoshi/jobboard/internal/model"
)

// レスポンスメッセージ
const (
	MsgJobPosted  = "Job Posted Successfully!"
	MsgJobUpdated = "Job Updated!"
	MsgJobDeleted = "Job Deleted!"
)

// JobServiceInterface は求人ハンドラーが必要とするサービスインターフェース。
type JobServiceInterface interface {
	ListActive(ctx context.Context) ([]*model.Job, error)
	Post(ctx context.Context, employer *model.User, in job.PostInput) (*model.Job, error)
	ListMine(ctx context.Context, employer *model.User) ([]*model.Job, error)
	Update(ctx context.Context, employer *model.User, id string, in job.UpdateInput) (*model.Job, error)
	Delete(ctx context.Context, employer *model.User, id string) error
	Get(ctx context.Context, id string) (*model.Job, error)
}

// JobHandler は求人のHTTPハンドラー。
type JobHandler struct {
	service JobServiceInterface
}

// NewJobHandler はJobHandlerを生成する。
func NewJobHandler(service JobServiceInterface) *JobHandler {
	return &JobHandler{service: service}
}

// jobRequest は求人の投稿・更新リクエストのボディ。
// 更新では存在するキーのみを反映する。
type jobRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Country     *string   `json:"country"`
	City        *string   `json:"city"`
	Location    *string   `json:"location"`
	FixedSalary flexInt   `json:"fixedSalary"`
	SalaryFrom  flexInt   `json:"salaryFrom"`
	SalaryTo    flexInt   `json:"salaryTo"`
	Expired     *flexBool `json:"expired"`
}

func (req *jobRequest) toPostInput() job.PostInput {
	return job.PostInput{
		Title:       deref(req.Title),
		Description: deref(req.Description),
		Category:    deref(req.Category),
		Country:     deref(req.Country),
		City:        deref(req.City),
		Location:    deref(req.Location),
		FixedSalary: req.FixedSalary.Value,
		SalaryFrom:  req.SalaryFrom.Value,
		SalaryTo:    req.SalaryTo.Value,
	}
}

func (req *jobRequest) toUpdateInput() job.UpdateInput {
	in := job.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Country:     req.Country,
		City:        req.City,
		Location:    req.Location,
		FixedSalary: job.SalaryPatch{Set: req.FixedSalary.Set, Value: req.FixedSalary.Value},
		SalaryFrom:  job.SalaryPatch{Set: req.SalaryFrom.Set, Value: req.SalaryFrom.Value},
		SalaryTo:    job.SalaryPatch{Set: req.SalaryTo.Set, Value: req.SalaryTo.Value},
	}
	if req.Expired != nil {
		expired := bool(*req.Expired)
		in.Expired = &expired
	}
	return in
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GetAll は募集中の求人一覧を返す。
// GET /api/job/getall
func (h *JobHandler) GetAll(w http.ResponseWriter, r *http.Request) error {
	jobs, err := h.service.ListActive(r.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"jobs":    toJobResponses(jobs),
	})
}

// Post は求人を投稿する。
// POST /api/job/post
func (h *JobHandler) Post(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	var req jobRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	posted, err := h.service.Post(r.Context(), user, req.toPostInput())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": MsgJobPosted,
		"job":     toJobResponse(posted),
	})
}

// GetMyJobs は呼び出し元が投稿した求人一覧を返す。
// GET /api/job/getmyjobs
func (h *JobHandler) GetMyJobs(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	jobs, err := h.service.ListMine(r.Context(), user)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"myJobs":  toJobResponses(jobs),
	})
}

// Update は求人を部分更新する。
// PUT /api/job/update/{id}
func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	var req jobRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	updated, err := h.service.Update(r.Context(), user, chi.URLParam(r, "id"), req.toUpdateInput())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": MsgJobUpdated,
		"job":     toJobResponse(updated),
	})
}

// Delete は求人を削除する。
// DELETE /api/job/delete/{id}
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	if err := h.service.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": MsgJobDeleted,
	})
}

// GetByID は求人を1件返す。
// GET /api/job/getJobById/{id}
func (h *JobHandler) GetByID(w http.ResponseWriter, r *http.Request) error {
	found, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"job":     toJobResponse(found),
	})
}
