package model

import "time"

// ResumeFile は外部ストレージに保存された履歴書ファイルへの参照を表す。
type ResumeFile struct {
	PublicID string // ストレージ上のオブジェクトキー
	URL      string
}

// RoleRef はユーザーIDとその時点のロールの組を表す。
type RoleRef struct {
	UserID string
	Role   Role
}

// Application は求人への応募を表す。
// Applicant と Employer は作成後に変更されない。
type Application struct {
	ID          string
	Name        string
	Email       string
	CoverLetter string
	Phone       string
	Address     string
	Resume      ResumeFile
	JobID       string
	Applicant   RoleRef
	Employer    RoleRef
	CreatedAt   time.Time
}
