package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

var setupValidator sync.Once

// configureValidator makes validator report "email" rather than "Email" and
// adds the rules the domain tags rely on.
func configureValidator() {
	setupValidator.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonNameFromStructField)
		_ = v.RegisterValidation("maxbytes", maxBytes)
		_ = v.RegisterValidation("notblank", notBlank)
	})
}

// maxBytes bounds the encoded length; max= counts runes.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// BindJSON decodes and validates the body into out. On failure it writes the
// 400 response and returns false.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	configureValidator()

	err := ctx.ShouldBindJSON(out)
	if err == nil {
		return true
	}

	// empty body
	if errors.Is(err, io.EOF) {
		RespondValidation(ctx, "Request body is required", nil)
		return false
	}

	var validatorError validator.ValidationErrors
	if errors.As(err, &validatorError) {
		fields := make([]FieldError, 0, len(validatorError))

		for _, fieldError := range validatorError {
			rule := fieldError.Tag()
			param := fieldError.Param()

			fields = append(fields, FieldError{
				Field:   fieldError.Field(),
				Rule:    rule,
				Param:   param,
				Message: validationMessage(rule, param),
			})
		}

		RespondValidation(ctx, "Invalid request body", fields)
		return false
	}

	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) || errors.Is(err, io.ErrUnexpectedEOF) {
		RespondBadRequest(ctx, "invalid_json", "Request body contains malformed JSON")
		return false
	}

	// in the event of a type mismatch
	var unmatchedTypeError *json.UnmarshalTypeError
	if errors.As(err, &unmatchedTypeError) {
		field := strings.TrimSpace(unmatchedTypeError.Field)

		RespondValidation(ctx, "Invalid request body", []FieldError{{
			Field:   field,
			Rule:    "type",
			Message: fmt.Sprintf("must be of type %s", unmatchedTypeError.Type.String()),
		}})
		return false
	}

	RespondBadRequest(ctx, "invalid_request", "Invalid request body")
	return false
}

func jsonNameFromStructField(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param + " characters"
	case "max":
		return "must be at most " + param + " characters"
	case "maxbytes":
		return "must be at most " + param + " bytes"
	case "notblank":
		return "must not be blank"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
