package service

import (
	"errors"
	"fmt"
)

const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
)

type Resource string

const (
	ResourceUser    Resource = "пользователь"
	ResourceProject Resource = "проект"
	ResourceTask    Resource = "задача"
	ResourceComment Resource = "комментарий"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Fields  []FieldError
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func AsBusinessError(err error) (*BusinessError, bool) {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr, true
	}
	return nil, false
}

func IsCode(err error, code string) bool {
	busErr, ok := AsBusinessError(err)
	return ok && busErr.Code == code
}

func NewNotFound(resource Resource, id string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeInvalidArgument,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
		Fields: []FieldError{{Field: field, Message: reason}},
	}
}

func NewInvalidArgument(message string) *BusinessError {
	return NewBusinessError(CodeInvalidArgument, message)
}

func NewForbidden(action string) *BusinessError {
	return NewBusinessError(CodeForbidden,
		fmt.Sprintf("Недостаточно прав: %s", action),
		ToDetail("action", action))
}

func NewConflict(message string, details ...Detail) *BusinessError {
	return NewBusinessError(CodeConflict, message, details...)
}

func NewUnauthenticated(message string) *BusinessError {
	return NewBusinessError(CodeUnauthenticated, message)
}

// собирает ошибки полей и отдает их вместе
type Validation struct {
	fields []FieldError
}

func (v *Validation) Add(field, message string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: message})
}

func (v *Validation) Check(ok bool, field, message string) {
	if !ok {
		v.Add(field, message)
	}
}

func (v *Validation) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &BusinessError{
		Code:    CodeInvalidArgument,
		Message: "Ошибка валидации",
		Details: map[string]any{},
		Fields:  v.fields,
	}
}
