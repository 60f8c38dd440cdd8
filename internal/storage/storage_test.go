package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestNewResumeKey(t *testing.T) {
	a := NewResumeKey(".png")
	b := NewResumeKey(".png")

	if !strings.HasPrefix(a, "resumes/") || !strings.HasSuffix(a, ".png") {
		t.Errorf("key = %q, want resumes/<uuid>.png", a)
	}
	if a == b {
		t.Error("keys should be unique")
	}
	if err := validateKey(a); err != nil {
		t.Errorf("generated key should be valid: %v", err)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"resumes/a.png", true},
		{"", false},
		{"/etc/passwd", false},
		{"../secret", false},
		{"resumes/../../secret", false},
		{"resumes//a.png", false},
	}
	for _, tt := range tests {
		err := validateKey(tt.key)
		if (err == nil) != tt.valid {
			t.Errorf("validateKey(%q) = %v, valid want %v", tt.key, err, tt.valid)
		}
	}
}

// --- LocalStore ---

func TestLocalStore_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "http://localhost:4000/uploads/")
	ctx := context.Background()

	ref, err := store.Save(ctx, "resumes/r1.png", "image/png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if ref.PublicID != "resumes/r1.png" {
		t.Errorf("PublicID = %q, want %q", ref.PublicID, "resumes/r1.png")
	}
	if ref.URL != "http://localhost:4000/uploads/resumes/r1.png" {
		t.Errorf("URL = %q", ref.URL)
	}

	data, err := os.ReadFile(filepath.Join(dir, "resumes", "r1.png"))
	if err != nil {
		t.Fatalf("file not written: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("content = %q, want %q", data, "png-bytes")
	}

	if err := store.Delete(ctx, "resumes/r1.png"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "resumes", "r1.png")); !os.IsNotExist(err) {
		t.Error("file should be removed")
	}

	// 存在しないファイルの削除はエラーにならない
	if err := store.Delete(ctx, "resumes/r1.png"); err != nil {
		t.Errorf("Delete of missing file = %v, want nil", err)
	}
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "http://localhost")
	_, err := store.Save(context.Background(), "../escape.png", "image/png", []byte("x"))
	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("err = %v, want ErrInvalidKey", err)
	}
}

func TestLocalStore_Handler_ServesFile(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "http://localhost/uploads")
	if _, err := store.Save(context.Background(), "resumes/r2.png", "image/png", []byte("served")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/uploads/resumes/r2.png", nil)
	w := httptest.NewRecorder()
	store.Handler("/uploads/").ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "served" {
		t.Errorf("body = %q, want %q", w.Body.String(), "served")
	}
}

func TestLocalStore_Handler_DoesNotListDirectories(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "http://localhost/uploads")
	for _, key := range []string{"resumes/r1.png", "resumes/r2.pdf"} {
		if _, err := store.Save(context.Background(), key, "image/png", []byte("data")); err != nil {
			t.Fatalf("Save(%q): %v", key, err)
		}
	}

	for _, path := range []string{"/uploads/", "/uploads/resumes/", "/uploads/resumes"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		store.Handler("/uploads/").ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want %d", path, w.Code, http.StatusNotFound)
		}
		if strings.Contains(w.Body.String(), "r1.png") {
			t.Errorf("GET %s should not expose file names, got %q", path, w.Body.String())
		}
	}
}

// --- S3Store ---

type mockS3 struct {
	putFn    func(ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error)
	deleteFn func(ctx context.Context, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error)
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putFn != nil {
		return m.putFn(ctx, in)
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, in)
	}
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_Save(t *testing.T) {
	var got *s3.PutObjectInput
	var body []byte
	client := &mockS3{
		putFn: func(_ context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
			got = in
			body, _ = io.ReadAll(in.Body)
			return &s3.PutObjectOutput{}, nil
		},
	}
	store := newS3Store(client, S3Options{Bucket: "resumes-bucket", PublicBaseURL: "https://cdn.example.com"})

	ref, err := store.Save(context.Background(), "resumes/a.webp", "image/webp", []byte("webp"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if aws.ToString(got.Bucket) != "resumes-bucket" {
		t.Errorf("Bucket = %q", aws.ToString(got.Bucket))
	}
	if aws.ToString(got.Key) != "resumes/a.webp" {
		t.Errorf("Key = %q", aws.ToString(got.Key))
	}
	if aws.ToString(got.ContentType) != "image/webp" {
		t.Errorf("ContentType = %q", aws.ToString(got.ContentType))
	}
	if string(body) != "webp" {
		t.Errorf("body = %q", body)
	}
	if ref.URL != "https://cdn.example.com/resumes/a.webp" {
		t.Errorf("URL = %q", ref.URL)
	}
}

func TestS3Store_Save_Error(t *testing.T) {
	client := &mockS3{
		putFn: func(context.Context, *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
			return nil, errors.New("access denied")
		},
	}
	store := newS3Store(client, S3Options{Bucket: "b", Region: "us-east-1"})

	if _, err := store.Save(context.Background(), "resumes/a.png", "image/png", []byte("x")); err == nil {
		t.Fatal("expected error")
	}
}

func TestS3Store_Delete(t *testing.T) {
	var deleted string
	client := &mockS3{
		deleteFn: func(_ context.Context, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
			deleted = aws.ToString(in.Key)
			return &s3.DeleteObjectOutput{}, nil
		},
	}
	store := newS3Store(client, S3Options{Bucket: "b", Region: "us-east-1"})

	if err := store.Delete(context.Background(), "resumes/a.png"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deleted != "resumes/a.png" {
		t.Errorf("deleted key = %q", deleted)
	}
}

func TestNewS3Store_BaseURL(t *testing.T) {
	tests := []struct {
		name string
		opts S3Options
		want string
	}{
		{"公開URL指定", S3Options{Bucket: "b", PublicBaseURL: "https://cdn.example.com/"}, "https://cdn.example.com"},
		{"S3互換エンドポイント", S3Options{Bucket: "b", Endpoint: "http://minio:9000"}, "http://minio:9000/b"},
		{"AWS既定", S3Options{Bucket: "b", Region: "ap-northeast-1"}, "https://b.s3.ap-northeast-1.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newS3Store(&mockS3{}, tt.opts)
			if store.baseURL != tt.want {
				t.Errorf("baseURL = %q, want %q", store.baseURL, tt.want)
			}
		})
	}
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	if _, err := NewS3Store(context.Background(), S3Options{Region: "us-east-1"}); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}
