package validate

import (
	"errors"
	"strings"

	errprocess "legal_consult_service/pkg/err"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

// Struct 依 `validate` tag 檢查欄位，失敗時回傳 validation error
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errprocess.Validation("invalid request: %v", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fe.Field()+" must satisfy "+fe.Tag()+"="+fe.Param())
			continue
		}
		msgs = append(msgs, fe.Field()+" is "+fe.Tag())
	}
	return errprocess.Validation("%s", strings.Join(msgs, "; "))
}
