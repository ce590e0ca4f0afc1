package validator

import (
	"errors"
	"strings"
)

// FieldError 字段错误
type FieldError struct {
	Field     string `json:"field"`
	Namespace string `json:"-"`
	Tag       string `json:"tag"`
	Message   string `json:"message"`
}

// ValidationErrors 校验错误集合
type ValidationErrors struct {
	fields []FieldError
}

// Error 以 "; " 连接所有字段的错误消息
func (ve *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve.fields))
	for _, f := range ve.fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Fields 返回字段错误列表
func (ve *ValidationErrors) Fields() []FieldError {
	return ve.fields
}

// Has 是否存在指定字段的错误
func (ve *ValidationErrors) Has(field string) bool {
	for _, f := range ve.fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// IsValidationError 检查是否为校验错误
func IsValidationError(err error) bool {
	var ve *ValidationErrors
	return errors.As(err, &ve)
}

// FirstField 返回第一个出错字段名，非校验错误返回空串
func FirstField(err error) string {
	var ve *ValidationErrors
	if errors.As(err, &ve) && len(ve.fields) > 0 {
		return ve.fields[0].Field
	}
	return ""
}
