package middleware

import (
	"net/http"

	apperrors "servicely/pkg/errors"
	httputil "servicely/pkg/http"
)

// reject renders a middleware refusal in the same envelope the handlers use.
func reject(w http.ResponseWriter, err *apperrors.AppError) {
	_ = httputil.WriteError(w, err)
}
