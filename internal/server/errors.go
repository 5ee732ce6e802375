package server

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/rehna-jp/Louer/internal/auth"
	"github.com/rehna-jp/Louer/internal/mw"
	"github.com/rehna-jp/Louer/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

func init() {
	// Report json field names in validation messages.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalid), errors.Is(err, service.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes service errors as-is and hides anything else behind a 500.
func respondError(c *gin.Context, op string, err error) {
	var se *service.Error
	if errors.As(err, &se) {
		c.JSON(statusFor(se), gin.H{"error": se.Msg})
		return
	}
	log.Error().Err(err).
		Str("op", op).
		Str("request_id", mw.GetRequestID(c)).
		Uint("user_id", auth.GetUserID(c)).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// bindError turns a binding failure into a 400 with a readable message.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.Join(msgs, "; ")})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must have length %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "email":
		return field + " must be a valid email"
	case "url":
		return field + " must be a valid URL"
	case "datetime":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	}
	return field + " is invalid"
}
