// Package validation はサービス入力の構造体タグによる検証を提供する。
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Failure は検証に失敗したフィールドとタグの組。
type Failure struct {
	Field string // jsonタグ名
	Tag   string // 失敗したルール（required, email, min 等）
}

// Validator はvalidator.Validateの薄いラッパー。
// 並行利用してよい。
type Validator struct {
	v *validator.Validate
}

// New はValidatorを生成する。フィールド名にはjsonタグ名を使う。
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Validate は構造体を検証し、失敗したフィールドの一覧を返す。成功時はnil。
func (v *Validator) Validate(s any) []Failure {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Failure{{Field: "", Tag: "invalid"}}
	}

	failures := make([]Failure, 0, len(verrs))
	for _, fe := range verrs {
		failures = append(failures, Failure{Field: fe.Field(), Tag: fe.Tag()})
	}
	return failures
}

// HasTag は失敗一覧に指定タグが含まれるかを返す。
func HasTag(failures []Failure, tag string) bool {
	for _, f := range failures {
		if f.Tag == tag {
			return true
		}
	}
	return false
}

// HasField は失敗一覧に指定フィールドが含まれるかを返す。
func HasField(failures []Failure, field string) bool {
	for _, f := range failures {
		if f.Field == field {
			return true
		}
	}
	return false
}
