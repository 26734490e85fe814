package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"raddiwala/internal/models"
	"raddiwala/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := GetPartyID(c)
		role, _ := GetRole(c)
		c.JSON(http.StatusOK, gin.H{"party_id": id.Hex(), "role": string(role)})
	})
	router.GET("/protected", handlers...)
	return router
}

func issue(t *testing.T, role models.Role) (primitive.ObjectID, string) {
	t.Helper()
	id := primitive.NewObjectID()
	token, _, err := utils.GenerateToken(id, string(role), testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return id, token
}

func TestAuthRequiredAcceptsCookieAndHeader(t *testing.T) {
	router := newRouter(AuthRequired(testSecret, "token", nil))
	_, token := issue(t, models.RoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("cookie auth: status %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("header auth: status %d", w.Code)
	}
}

func TestAuthRequiredRejects(t *testing.T) {
	router := newRouter(AuthRequired(testSecret, "token", nil))
	_, forged := issue(t, models.RoleCustomer)

	cases := map[string]string{
		"missing":      "",
		"not bearer":   "Token abc",
		"garbage":      "Bearer abc.def.ghi",
		"tampered": "Bearer " + forged + "x",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status %d, want 401", w.Code)
			}
		})
	}
}

type activeParties struct {
	active map[primitive.ObjectID]bool
	err    error
}

func (p *activeParties) Active(ctx context.Context, partyID primitive.ObjectID, role models.Role) (bool, error) {
	if p.err != nil {
		return false, p.err
	}
	return p.active[partyID], nil
}

func TestAuthRequiredChecksAccountIsActive(t *testing.T) {
	activeID, activeToken := issue(t, models.RoleCustomer)
	_, deletedToken := issue(t, models.RoleCustomer)
	parties := &activeParties{active: map[primitive.ObjectID]bool{activeID: true}}

	cases := []struct {
		name    string
		parties *activeParties
		token   string
		want    int
	}{
		{"active account", parties, activeToken, http.StatusOK},
		{"deleted account", parties, deletedToken, http.StatusUnauthorized},
		{"lookup failure", &activeParties{err: errors.New("mongo down")}, activeToken, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newRouter(AuthRequired(testSecret, "token", tc.parties))
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestRoleGuards(t *testing.T) {
	_, customerToken := issue(t, models.RoleCustomer)
	_, collectorToken := issue(t, models.RoleCollector)

	customerOnly := newRouter(AuthRequired(testSecret, "token", nil), CustomerRequired())
	collectorOnly := newRouter(AuthRequired(testSecret, "token", nil), CollectorRequired())

	cases := []struct {
		name   string
		router *gin.Engine
		token  string
		want   int
	}{
		{"customer on customer route", customerOnly, customerToken, http.StatusOK},
		{"collector on customer route", customerOnly, collectorToken, http.StatusForbidden},
		{"collector on collector route", collectorOnly, collectorToken, http.StatusOK},
		{"customer on collector route", collectorOnly, customerToken, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			w := httptest.NewRecorder()
			tc.router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	router := newRouter(CORSMiddleware([]string{"https://app.raddiwala.in"}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Origin", "https://app.raddiwala.in")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.raddiwala.in" {
		t.Fatalf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	router := newRouter(RequestIDMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a generated request id")
	}
}
