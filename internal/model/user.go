package model

import (
	"strings"
	"time"
)

// Role は利用者の区分を表す。エンドポイントのアクセス可否を決める。
type Role string

const (
	RoleJobSeeker Role = "Job Seeker"
	RoleEmployer  Role = "Employer"
)

// ParseRole はリクエストで受け取ったロール文字列を正規化する。
// 既存クライアントとの互換のため、表記揺れ（"job-seeker", "user" 等）も受け付ける。
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "job seeker", "job-seeker", "jobseeker", "job_seeker", "user":
		return RoleJobSeeker, true
	case "employer":
		return RoleEmployer, true
	default:
		return "", false
	}
}

// User はサービス利用ユーザーを表す。
// Passwordはbcryptハッシュであり、レスポンスには決して含めない。
type User struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Password  string
	Role      Role
	CreatedAt time.Time
}
