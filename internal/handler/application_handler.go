package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/jobboard/internal/application"
	"github.com/hitoshi/jobboard/internal/model"
)

// レスポンスメッセージ
const (
	MsgApplicationSubmitted = "Application Submitted!"
	MsgApplicationDeleted   = "Application Deleted!"
	MsgResumeTooLarge       = "Resume file is too large."
)

// resumeField は履歴書ファイルのフォームフィールド名。
const resumeField = "resume"

// multipartMemory はParseMultipartFormでメモリに保持する上限。超過分は一時ファイルに退避される。
const multipartMemory = 8 << 20

// ApplicationServiceInterface は応募ハンドラーが必要とするサービスインターフェース。
type ApplicationServiceInterface interface {
	Submit(ctx context.Context, seeker *model.User, in application.SubmitInput) (*model.Application, error)
	ListForEmployer(ctx context.Context, employer *model.User) ([]*model.Application, error)
	ListForApplicant(ctx context.Context, seeker *model.User) ([]*model.Application, error)
	Withdraw(ctx context.Context, seeker *model.User, id string) error
}

// ApplicationHandler は応募のHTTPハンドラー。
type ApplicationHandler struct {
	service       ApplicationServiceInterface
	maxResumeSize int64
}

// NewApplicationHandler はApplicationHandlerを生成する。maxResumeSizeは履歴書ファイルの上限バイト数。
func NewApplicationHandler(service ApplicationServiceInterface, maxResumeSize int64) *ApplicationHandler {
	return &ApplicationHandler{
		service:       service,
		maxResumeSize: maxResumeSize,
	}
}

// Post はmultipartフォームで送信された応募を登録する。
// POST /api/application/post
func (h *ApplicationHandler) Post(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	// ファイル以外のフィールド分の余裕を持たせる
	r.Body = http.MaxBytesReader(w, r.Body, h.maxResumeSize+maxBodyBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		switch {
		case isBodyTooLarge(err):
			return &model.APIError{Kind: model.KindBadRequest, Message: MsgResumeTooLarge, Err: err}
		case errors.Is(err, http.ErrNotMultipart):
			// 履歴書なしとしてサービスで検証する
		default:
			return &model.APIError{Kind: model.KindBadRequest, Message: MsgInvalidBody, Err: err}
		}
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	resume, err := h.readResume(r)
	if err != nil {
		return err
	}

	app, err := h.service.Submit(r.Context(), user, application.SubmitInput{
		Name:        r.FormValue("name"),
		Email:       r.FormValue("email"),
		CoverLetter: r.FormValue("coverLetter"),
		Phone:       r.FormValue("phone"),
		Address:     r.FormValue("address"),
		JobID:       r.FormValue("jobId"),
		Resume:      resume,
	})
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     MsgApplicationSubmitted,
		"application": toApplicationResponse(app),
	})
}

// readResume はフォームから履歴書ファイルを読み込む。ファイルがない場合はnilを返す。
func (h *ApplicationHandler) readResume(r *http.Request) (*application.ResumeUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	file, header, err := r.FormFile(resumeField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, &model.APIError{Kind: model.KindBadRequest, Message: MsgInvalidBody, Err: err}
	}
	defer file.Close()

	if header.Size > h.maxResumeSize {
		return nil, model.NewBadRequestError(MsgResumeTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxResumeSize+1))
	if err != nil {
		return nil, model.NewInternalError(model.MsgInternalError, err)
	}
	if int64(len(data)) > h.maxResumeSize {
		return nil, model.NewBadRequestError(MsgResumeTooLarge)
	}

	return &application.ResumeUpload{Filename: header.Filename, Data: data}, nil
}

// EmployerGetAll は呼び出し元の雇用者宛ての応募一覧を返す。
// GET /api/application/employer/getall
func (h *ApplicationHandler) EmployerGetAll(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	apps, err := h.service.ListForEmployer(r.Context(), user)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"applications": toApplicationResponses(apps),
	})
}

// JobseekerGetAll は呼び出し元の求職者が送信した応募一覧を返す。
// GET /api/application/jobseeker/getall
func (h *ApplicationHandler) JobseekerGetAll(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	apps, err := h.service.ListForApplicant(r.Context(), user)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"applications": toApplicationResponses(apps),
	})
}

// JobseekerDelete は自身の応募を削除する。
// DELETE /api/application/delete/{id}
func (h *ApplicationHandler) JobseekerDelete(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	if err := h.service.Withdraw(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": MsgApplicationDeleted,
	})
}
