package middleware

import (
	"github.com/gin-gonic/gin"

	"foodhub-api/apperrors"
)

// ErrorBody is the JSON shape of every non-2xx response.
type ErrorBody struct {
	Error   string                       `json:"error"`
	Code    string                       `json:"code"`
	Details []apperrors.ValidationDetail `json:"details,omitempty"`
}

func NewErrorBody(err error) (int, ErrorBody) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(apperrors.KindInternal, "", err)
	}
	msg := appErr.Message
	if appErr.Kind == apperrors.KindInternal || msg == "" {
		msg = "something went wrong, please try again"
	}
	return appErr.Kind.HTTPStatus(), ErrorBody{
		Error:   msg,
		Code:    appErr.Kind.Code(),
		Details: appErr.Details,
	}
}

// AbortWithError writes err as an error body and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := NewErrorBody(err)
	c.AbortWithStatusJSON(status, body)
}
