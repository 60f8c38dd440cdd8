package model

import "time"

// Job は求人情報を表す。
// 給与は固定額（FixedSalary）か範囲（SalaryFrom〜SalaryTo）のどちらか一方のみを持つ。
type Job struct {
	ID          string
	Title       string
	Description string
	Category    string
	Country     string
	City        string
	Location    string
	FixedSalary *int64
	SalaryFrom  *int64
	SalaryTo    *int64
	Expired     bool
	JobPostedOn time.Time
	PostedBy    string // 投稿した雇用者のユーザーID
}

// Active は求人が募集中かどうかを返す。
func (j *Job) Active() bool {
	return !j.Expired
}

// HasFixedSalary は固定給与が設定されているかどうかを返す。
func (j *Job) HasFixedSalary() bool {
	return j.FixedSalary != nil
}

// HasSalaryRange は給与範囲の両端が設定されているかどうかを返す。
func (j *Job) HasSalaryRange() bool {
	return j.SalaryFrom != nil && j.SalaryTo != nil
}
