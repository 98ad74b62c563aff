package middleware

import (
	"errors"
	"net/http"
	"servicely/pkg/auth"
	apperrors "servicely/pkg/errors"
	"servicely/pkg/logger"
)

// BearerAuth rejects requests without a valid bearer token and stores the
// claims on the request context.
func BearerAuth(verifier *auth.Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verifier.Parse(auth.BearerToken(r.Header.Get("Authorization")))
			if err != nil {
				rejectUnauthorized(w, log, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

func rejectUnauthorized(w http.ResponseWriter, log *logger.Logger, r *http.Request, err error) {
	log.Warn("Request rejected by bearer auth",
		"request_id", requestIDFrom(r),
		"path", r.URL.Path,
		"missing_token", errors.Is(err, auth.ErrMissingToken),
		"error", err,
	)

	reject(w, apperrors.Unauthorized("Unauthorized"))
}

func requestIDFrom(r *http.Request) string {
	return GetRequestID(r.Context())
}
