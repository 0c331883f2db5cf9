package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"staffhub/backend/internal/attendance"
	"staffhub/backend/internal/model"
)

var registerOnce sync.Once

// RegisterValidators 向 gin 的校验引擎注册自定义规则（hhmm、request_type），
// 并让错误信息使用 json 字段名。由路由初始化时调用，可重复调用。
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("hhmm", validateHHMM)
		_ = v.RegisterValidation("request_type", validateRequestType)
	})
}

func validateHHMM(fl validator.FieldLevel) bool {
	_, err := attendance.ParseClock(fl.Field().String())
	return err == nil
}

func validateRequestType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case model.RequestTypeClaim, model.RequestTypePaidLeave, model.RequestTypeUnpaidLeave,
		model.RequestTypeMedicalLeave, model.RequestTypeResignation, model.RequestTypeCancel:
		return true
	}
	return false
}

// FormatBindingError 将绑定/校验错误转成可读信息
func FormatBindingError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, io.EOF) {
		return "请求体为空"
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("JSON 格式错误（偏移 %d）", syntaxErr.Offset)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("字段 %s 类型应为 %s", typeErr.Field, typeErr.Type.String())
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]string, 0, len(ve))
		for _, fe := range ve {
			out = append(out, formatFieldError(fe))
		}
		return strings.Join(out, "; ")
	}
	return err.Error()
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s 不能为空", fe.Field())
	case "email":
		return fmt.Sprintf("%s 必须是合法邮箱", fe.Field())
	case "uuid":
		return fmt.Sprintf("%s 必须是 UUID", fe.Field())
	case "min":
		return fmt.Sprintf("%s 不能小于 %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s 不能大于 %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s 必须是 [%s] 之一", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s 日期格式必须为 %s", fe.Field(), fe.Param())
	case "hhmm":
		return fmt.Sprintf("%s 时间格式必须为 HH:MM", fe.Field())
	case "request_type":
		return fmt.Sprintf("%s 不是合法的申请类型", fe.Field())
	}
	return fmt.Sprintf("%s 校验失败（%s）", fe.Field(), fe.Tag())
}
