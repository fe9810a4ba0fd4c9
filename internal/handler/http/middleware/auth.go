package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/haulops/backoffice-go/internal/domain/user"
	"github.com/haulops/backoffice-go/internal/handler/http/response"
	"github.com/haulops/backoffice-go/internal/pkg/jwt"
)

// AuthRequired rejects requests without a verified, unrevoked access token carrying a company.
// It must run after jwtauth.Verifier.
func AuthRequired(jwtService jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			tokenType, ok := claims["type"].(string)
			if tokenType != "access" || !ok {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			if jwtService.IsTokenRevoked(jwtauth.TokenFromHeader(r)) {
				response.HandleError(w, user.ErrInvalidToken)
				return
			}

			companyID, ok := claims["company_id"].(string)
			if !ok || companyID == "" {
				response.HandleError(w, user.ErrCompanyIDRequired)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
