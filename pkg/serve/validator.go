package serve

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type customValidator struct {
	validate *validator.Validate
}

func NewCustomValidator() echo.Validator {
	validate := validator.New()
	// 错误信息使用 json 字段名
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &customValidator{validate: validate}
}

func (cv *customValidator) Validate(i interface{}) error {
	if err := cv.validate.Struct(i); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(errs))
			for _, e := range errs {
				msgs = append(msgs, translateError(e))
			}
			return echo.NewHTTPError(http.StatusBadRequest, strings.Join(msgs, ", ")).SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}

func translateError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}

// customBinder 绑定后统一 trim 字符串
type customBinder struct{}

func NewCustomBinder() echo.Binder {
	return &customBinder{}
}

func (cb *customBinder) Bind(i interface{}, c echo.Context) error {
	db := new(echo.DefaultBinder)
	if err := db.Bind(i, c); err != nil {
		return err
	}
	trimStrings(i)
	return nil
}

func trimStrings(i interface{}) {
	if i == nil {
		return
	}
	trimValue(reflect.ValueOf(i))
}

func trimValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return
		}
		trimValue(v.Elem())
	case reflect.String:
		if v.CanSet() {
			v.SetString(strings.TrimSpace(v.String()))
		}
	case reflect.Struct:
		for idx := 0; idx < v.NumField(); idx++ {
			trimValue(v.Field(idx))
		}
	case reflect.Slice, reflect.Array:
		for idx := 0; idx < v.Len(); idx++ {
			trimValue(v.Index(idx))
		}
	}
}

// BindAndValidate 绑定请求参数并校验
func BindAndValidate[T any](c echo.Context, input *T) error {
	if err := c.Bind(input); err != nil {
		return err
	}
	return c.Validate(input)
}
