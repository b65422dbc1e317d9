package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// trans is the singleton English translator for validation errors.
	trans ut.Translator

	// standalone validates structs outside a Gin request (loader, CLI,
	// session start). It reads the same `binding` tags as Gin.
	standalone *govalidator.Validate

	once sync.Once
)

// Setup registers the validator with English translations on Gin's binding
// engine and prepares the standalone engine. Safe to call more than once.
func Setup() {
	once.Do(func() {
		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")

		standalone = govalidator.New()
		standalone.SetTagName("binding")
		configure(standalone)

		if v, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
			configure(v)
		}
	})
}

func configure(v *govalidator.Validate) {
	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = en_translations.RegisterDefaultTranslations(v, trans)
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name to human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Namespace()] = fe.Translate(trans)
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// Struct validates v against its `binding` tags.
// Returns nil on success or a translated field error map on failure.
func Struct(v interface{}) map[string]string {
	Setup()
	if err := standalone.Struct(v); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
