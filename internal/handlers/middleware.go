package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"nursescript/internal/auth"
	"nursescript/internal/models"
	"nursescript/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	ClaimsContextKey  ContextKey = "claims"
	TeacherContextKey ContextKey = "teacher"
)

// tokenVerifier validates bearer tokens
type tokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// adminChecker resolves admin status for a verified subject
type adminChecker interface {
	IsAdmin(id string) (bool, error)
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	verifier tokenVerifier
	teachers *service.TeacherService
	users    adminChecker
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(verifier tokenVerifier, teachers *service.TeacherService, users adminChecker) *Middleware {
	return &Middleware{verifier: verifier, teachers: teachers, users: users}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// RequireAuth requires a valid bearer token and stores the claims in context
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.verifier.Verify(r.Context(), bearerToken(r))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "authentication required", err)
			return
		}
		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireTeacher requires a bearer token that resolves to an active teacher
// account. The resolved teacher is stored in context.
func (m *Middleware) RequireTeacher(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaimsFromContext(r.Context())

		teacher, err := m.teachers.Lookup(claims.Subject)
		if errors.Is(err, service.ErrTeacherNotFound) && claims.Email != "" {
			teacher, err = m.teachers.Lookup(claims.Email)
		}
		if err != nil {
			respondError(w, http.StatusForbidden, "teacher account required", err)
			return
		}
		if !teacher.IsActive {
			respondError(w, http.StatusForbidden, "teacher account is deactivated", nil)
			return
		}

		ctx := context.WithValue(r.Context(), TeacherContextKey, teacher)
		next(w, r.WithContext(ctx))
	})
}

// RequireAdmin requires a bearer token whose subject is an administrator
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaimsFromContext(r.Context())

		isAdmin, err := m.users.IsAdmin(claims.Subject)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to check permissions", err)
			return
		}
		if !isAdmin {
			respondError(w, http.StatusForbidden, "administrator access required", nil)
			return
		}
		next(w, r)
	})
}

// GetClaimsFromContext retrieves verified token claims from the context
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetTeacherFromContext retrieves the resolved teacher from the context
func GetTeacherFromContext(ctx context.Context) *models.Teacher {
	teacher, ok := ctx.Value(TeacherContextKey).(*models.Teacher)
	if !ok {
		return nil
	}
	return teacher
}

// CORS restricts cross-origin requests to the configured origins
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowed[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id, X-Student-Id, X-Room-Code")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
