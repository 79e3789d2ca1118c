package errprocess

import (
	"errors"
	"fmt"
	"net/http"

	"legal_consult_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// Kind 錯誤分類
type Kind string

const (
	// KindValidation 輸入錯誤，呼叫端需修正後重送
	KindValidation Kind = "validation"
	// KindConflict 時段已被預約
	KindConflict Kind = "conflict"
	// KindRemoteUnavailable 遠端儲存/佇列無法連線或回傳錯誤
	KindRemoteUnavailable Kind = "remote_unavailable"
	// KindPartialUpload 附件上傳失敗，訊息未寫入
	KindPartialUpload Kind = "partial_upload"
	// KindNotFound 查無資料
	KindNotFound Kind = "not_found"
	// KindForbidden 不是該筆資料的當事人
	KindForbidden Kind = "forbidden"
)

// AppError 帶分類的錯誤
type AppError struct {
	Kind Kind
	Msg  string
	Err  error
}

// 各分類的 sentinel，配合 errors.Is 使用
var (
	ErrValidation        = &AppError{Kind: KindValidation}
	ErrConflict          = &AppError{Kind: KindConflict}
	ErrRemoteUnavailable = &AppError{Kind: KindRemoteUnavailable}
	ErrPartialUpload     = &AppError{Kind: KindPartialUpload}
	ErrNotFound          = &AppError{Kind: KindNotFound}
	ErrForbidden         = &AppError{Kind: KindForbidden}
)

func (e *AppError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 同分類即視為相同
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Validation create validation error
func Validation(format string, args ...interface{}) error {
	return &AppError{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Conflict create conflict error
func Conflict(format string, args ...interface{}) error {
	return &AppError{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// NotFound create not found error
func NotFound(format string, args ...interface{}) error {
	return &AppError{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Forbidden create forbidden error
func Forbidden(format string, args ...interface{}) error {
	return &AppError{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

// Remote wrap a store or broker failure
func Remote(err error, format string, args ...interface{}) error {
	return &AppError{Kind: KindRemoteUnavailable, Msg: fmt.Sprintf(format, args...), Err: err}
}

// PartialUpload wrap an attachment upload failure
func PartialUpload(err error, format string, args ...interface{}) error {
	return &AppError{Kind: KindPartialUpload, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Set set err info，記錄後回傳
func Set(err error) error {
	logger.Log.Error(err.Error())
	return err
}

// KindOf get error kind, 非 AppError 視為 remote
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindRemoteUnavailable
}

// HTTPStatus map error kind to http status code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindPartialUpload:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

// Response 依錯誤分類回傳 http status 與 json body
func Response(c *fiber.Ctx, err error) error {
	return c.Status(HTTPStatus(err)).JSON(fiber.Map{
		"error": err.Error(),
		"kind":  KindOf(err),
	})
}
