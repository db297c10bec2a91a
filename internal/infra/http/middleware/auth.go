package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
)

type staffKey struct{}

// StaffClaim is the JWT claim carrying the staff member's id.
const StaffClaim = "sub"

// NewTokenAuth builds the HS256 verifier for staff tokens.
func NewTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// RequireStaff must run after jwtauth.Verifier. It rejects requests without a
// valid token carrying a staff id and stores that id in the context.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			unauthorized(w)
			return
		}
		staffID, _ := claims[StaffClaim].(string)
		if staffID == "" {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithStaffID(r.Context(), staffID)))
	})
}

func WithStaffID(ctx context.Context, staffID string) context.Context {
	return context.WithValue(ctx, staffKey{}, staffID)
}

// StaffID returns the authenticated staff id, or "" on public routes.
func StaffID(ctx context.Context) string {
	id, _ := ctx.Value(staffKey{}).(string)
	return id
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "staff authentication required",
		"code":  "UNAUTHORIZED",
	})
}
