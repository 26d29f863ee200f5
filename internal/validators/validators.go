// Package validators holds the field rules shared by the HTTP layer and the
// engine: handle format and grapheme-counted text lengths.
package validators

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rivo/uniseg"
)

// Field limits, counted in grapheme clusters.
const (
	HandleMinLen      = 3
	HandleMaxLen      = 30
	BodyMaxLen        = 280
	BioMaxLen         = 160
	DisplayNameMaxLen = 50
)

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// GraphemeCount returns the number of user-perceived characters in s.
func GraphemeCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// ValidHandle reports whether h is 3–30 ASCII letters, digits or underscores.
func ValidHandle(h string) bool {
	return len(h) >= HandleMinLen && len(h) <= HandleMaxLen && handlePattern.MatchString(h)
}

// HandleKey is the case-insensitive uniqueness key of a handle.
func HandleKey(h string) string {
	return strings.ToLower(h)
}

// CheckHandle returns a validation error when h is not a legal handle.
func CheckHandle(op, h string) error {
	if !ValidHandle(h) {
		return apperr.Validation(op, "handle must be %d-%d letters, digits or underscores", HandleMinLen, HandleMaxLen)
	}
	return nil
}

// CheckBody validates a post or comment body: 1 to 280 graphemes. Whitespace
// counts like any other character.
func CheckBody(op, body string) error {
	if body == "" {
		return apperr.Validation(op, "body must not be empty")
	}
	if n := GraphemeCount(body); n > BodyMaxLen {
		return apperr.Validation(op, "body is %d characters, limit is %d", n, BodyMaxLen)
	}
	return nil
}

// CheckMaxLen validates an optional text field against a grapheme limit.
func CheckMaxLen(op, field, value string, limit int) error {
	if n := GraphemeCount(value); n > limit {
		return apperr.Validation(op, "%s is %d characters, limit is %d", field, n, limit)
	}
	return nil
}

// CustomValidator adapts go-playground/validator to echo.Validator.
type CustomValidator struct {
	validator *validator.Validate
}

var (
	once     sync.Once
	instance *validator.Validate
)

// Instance returns the shared validator with the custom tags registered.
func Instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
			return ValidHandle(fl.Field().String())
		})
		_ = v.RegisterValidation("maxgraphemes", func(fl validator.FieldLevel) bool {
			limit, err := strconv.Atoi(fl.Param())
			if err != nil {
				return false
			}
			return GraphemeCount(fl.Field().String()) <= limit
		})
		instance = v
	})
	return instance
}

// NewValidator returns the echo validator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: Instance()}
}

// Validate implements echo.Validator.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
