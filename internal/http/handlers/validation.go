package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/yungbote/classroom-backend/internal/domain/classroom"
	"github.com/yungbote/classroom-backend/internal/http/response"
)

// custom validation tags
const (
	courseStatusTag     = "course_status"
	materialKindTag     = "material_kind"
	submissionStatusTag = "submission_status"
	visibilityTag       = "visibility"
)

var (
	registerOnce sync.Once
	registerErr  error
	translator   ut.Translator
)

// RegisterValidators installs the custom tags and English messages on gin's
// binding engine. Safe to call more than once.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin binding engine is not go-playground/validator")
			return
		}

		english := en.New()
		translator, _ = ut.New(english, english).GetTranslator("en")
		if err := en_translations.RegisterDefaultTranslations(v, translator); err != nil {
			registerErr = err
			return
		}

		// Use JSON tag names for errors instead of Go struct names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		custom := map[string]validator.Func{
			courseStatusTag: func(fl validator.FieldLevel) bool {
				return classroom.CourseStatus(fl.Field().String()).Valid()
			},
			materialKindTag: func(fl validator.FieldLevel) bool {
				_, ok := classroom.ParseMaterialKind(fl.Field().String())
				return ok
			},
			submissionStatusTag: func(fl validator.FieldLevel) bool {
				return classroom.SubmissionStatus(fl.Field().String()).Valid()
			},
			visibilityTag: func(fl validator.FieldLevel) bool {
				switch fl.Field().String() {
				case classroom.VisibilityPrivate, classroom.VisibilityPublic:
					return true
				}
				return false
			},
		}
		for tag, fn := range custom {
			if err := v.RegisterValidation(tag, fn); err != nil {
				registerErr = err
				return
			}
			// a RegisterTranslationsFunc is required; the default one is already in place.
			noop := func(ut.Translator) error { return nil }
			if err := v.RegisterTranslation(tag, translator, noop, translateCustom); err != nil {
				registerErr = err
				return
			}
		}
	})
	return registerErr
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case courseStatusTag:
		return fmt.Sprintf("%s must be draft, active or archived", fe.Field())
	case materialKindTag:
		return fmt.Sprintf("%s must be doc, link or video", fe.Field())
	case submissionStatusTag:
		return fmt.Sprintf("%s must be submitted or returned", fe.Field())
	case visibilityTag:
		return fmt.Sprintf("%s must be private or public", fe.Field())
	default:
		return fe.Error()
	}
}

// bindJSON decodes and validates the body into dst, writing a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", validationMessage(err))
		return false
	}
	return true
}

// validateValue runs a single tag against a loose value, e.g. a meta bag entry.
func validateValue(value any, tag string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.Var(value, tag); err != nil {
		return validationMessage(err)
	}
	return nil
}

func validationMessage(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || translator == nil {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Translate(translator))
	}
	return errors.New(strings.Join(msgs, "; "))
}
