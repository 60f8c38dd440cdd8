package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/jobboard/internal/job"
	"github.com/hitoshi/jobboard/internal/model"
)

func TestJobHandler_GetAll(t *testing.T) {
	svc := &mockJobService{
		listActiveFn: func(context.Context) ([]*model.Job, error) {
			return []*model.Job{
				{ID: "j1", Title: "Go Engineer", FixedSalary: int64p(500000), JobPostedOn: time.Now()},
				{ID: "j2", Title: "Designer", SalaryFrom: int64p(100), SalaryTo: int64p(200)},
			}, nil
		},
	}

	w := httptest.NewRecorder()
	dispatch(NewJobHandler(svc).GetAll).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/job/getall", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	resp := decodeJSON(t, w)
	jobs := resp["jobs"].([]any)
	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2", len(jobs))
	}
	first := jobs[0].(map[string]any)
	if first["_id"] != "j1" || first["fixedSalary"] != float64(500000) {
		t.Errorf("jobs[0] = %v", first)
	}
	if _, ok := first["salaryFrom"]; ok {
		t.Error("unset salaryFrom should be omitted")
	}
}

// 空の一覧はnullではなく空配列で返す
func TestJobHandler_GetAll_Empty(t *testing.T) {
	w := httptest.NewRecorder()
	dispatch(NewJobHandler(&mockJobService{}).GetAll).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/job/getall", nil))

	if !strings.Contains(w.Body.String(), `"jobs":[]`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestJobHandler_Post(t *testing.T) {
	var got job.PostInput
	var gotEmployer *model.User
	svc := &mockJobService{
		postFn: func(_ context.Context, employer *model.User, in job.PostInput) (*model.Job, error) {
			got, gotEmployer = in, employer
			return &model.Job{ID: "j9", Title: in.Title, PostedBy: employer.ID}, nil
		},
	}

	body := `{"title":"T","description":"D","category":"C","country":"JP","city":"Tokyo","location":"Shibuya","fixedSalary":"","salaryFrom":"1000","salaryTo":2000}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/job/post", strings.NewReader(body)), testEmployer)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	dispatch(NewJobHandler(svc).Post).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}
	if gotEmployer != testEmployer {
		t.Error("employer should be the authenticated user")
	}
	if got.Title != "T" || got.Location != "Shibuya" {
		t.Errorf("input = %+v", got)
	}
	if got.FixedSalary != nil {
		t.Errorf("FixedSalary = %d, want nil for empty string", *got.FixedSalary)
	}
	if got.SalaryFrom == nil || *got.SalaryFrom != 1000 || got.SalaryTo == nil || *got.SalaryTo != 2000 {
		t.Errorf("salary range = %v-%v", got.SalaryFrom, got.SalaryTo)
	}

	resp := decodeJSON(t, w)
	if resp["message"] != MsgJobPosted {
		t.Errorf("message = %v", resp["message"])
	}
	if j := resp["job"].(map[string]any); j["postedBy"] != "emp-1" {
		t.Errorf("job = %v", j)
	}
}

func TestJobHandler_Post_InvalidSalary(t *testing.T) {
	body := `{"title":"T","fixedSalary":"lots"}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/job/post", strings.NewReader(body)), testEmployer)
	w := httptest.NewRecorder()

	dispatch(NewJobHandler(&mockJobService{}).Post).ServeHTTP(w, req)

	assertErrorResponse(t, w, http.StatusBadRequest, MsgInvalidBody)
}

// 部分更新では存在するキーのみが反映され、nullと空文字は値の削除になる
func TestJobHandler_Update_PatchSemantics(t *testing.T) {
	var got job.UpdateInput
	var gotID string
	svc := &mockJobService{
		updateFn: func(_ context.Context, _ *model.User, id string, in job.UpdateInput) (*model.Job, error) {
			got, gotID = in, id
			return &model.Job{ID: id}, nil
		},
	}

	body := `{"title":"New","fixedSalary":null,"salaryFrom":"10","salaryTo":20,"expired":"true"}`
	req := withUser(httptest.NewRequest(http.MethodPut, "/api/job/update/j1", strings.NewReader(body)), testEmployer)
	req = withChiURLParam(req, "id", "j1")
	w := httptest.NewRecorder()

	dispatch(NewJobHandler(svc).Update).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}
	if gotID != "j1" {
		t.Errorf("id = %q, want j1", gotID)
	}
	if got.Title == nil || *got.Title != "New" {
		t.Errorf("Title = %v", got.Title)
	}
	if got.Description != nil {
		t.Error("Description should be unchanged")
	}
	if !got.FixedSalary.Set || got.FixedSalary.Value != nil {
		t.Errorf("FixedSalary = %+v, want cleared", got.FixedSalary)
	}
	if !got.SalaryFrom.Set || *got.SalaryFrom.Value != 10 || !got.SalaryTo.Set || *got.SalaryTo.Value != 20 {
		t.Errorf("range = %+v %+v", got.SalaryFrom, got.SalaryTo)
	}
	if got.Expired == nil || !*got.Expired {
		t.Errorf("Expired = %v, want true", got.Expired)
	}
	if resp := decodeJSON(t, w); resp["message"] != MsgJobUpdated {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestJobHandler_Update_NotFound(t *testing.T) {
	svc := &mockJobService{
		updateFn: func(context.Context, *model.User, string, job.UpdateInput) (*model.Job, error) {
			return nil, model.NewNotFoundError(job.MsgJobNotFoundForEdit)
		},
	}
	req := withUser(httptest.NewRequest(http.MethodPut, "/api/job/update/x", strings.NewReader(`{}`)), testEmployer)
	w := httptest.NewRecorder()

	dispatch(NewJobHandler(svc).Update).ServeHTTP(w, withChiURLParam(req, "id", "x"))

	assertErrorResponse(t, w, http.StatusNotFound, job.MsgJobNotFoundForEdit)
}

func TestJobHandler_Delete(t *testing.T) {
	var gotID string
	svc := &mockJobService{
		deleteFn: func(_ context.Context, _ *model.User, id string) error {
			gotID = id
			return nil
		},
	}
	req := withUser(httptest.NewRequest(http.MethodDelete, "/api/job/delete/j3", nil), testEmployer)
	w := httptest.NewRecorder()

	dispatch(NewJobHandler(svc).Delete).ServeHTTP(w, withChiURLParam(req, "id", "j3"))

	if w.Code != http.StatusOK || gotID != "j3" {
		t.Errorf("status = %d, id = %q", w.Code, gotID)
	}
	if resp := decodeJSON(t, w); resp["message"] != MsgJobDeleted {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestJobHandler_GetByID(t *testing.T) {
	tests := []struct {
		name       string
		getFn      func(context.Context, string) (*model.Job, error)
		wantStatus int
	}{
		{"存在する", func(_ context.Context, id string) (*model.Job, error) { return &model.Job{ID: id}, nil }, http.StatusOK},
		{"存在しない", func(context.Context, string) (*model.Job, error) {
			return nil, model.NewNotFoundError(model.MsgJobNotFound)
		}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withUser(httptest.NewRequest(http.MethodGet, "/api/job/getJobById/j5", nil), testSeeker)
			w := httptest.NewRecorder()

			dispatch(NewJobHandler(&mockJobService{getFn: tt.getFn}).GetByID).ServeHTTP(w, withChiURLParam(req, "id", "j5"))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
