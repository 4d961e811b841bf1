package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"quality-desk/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveAs(t *testing.T, operatorID, role string, chain ...gin.HandlerFunc) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handlers := []gin.HandlerFunc{func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), operatorID, "someone", role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}}
	handlers = append(handlers, chain...)
	handlers = append(handlers, func(c *gin.Context) { c.Status(200) })

	r := gin.New()
	r.GET("/x", handlers...)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w.Code
}

func TestRequireAnyRole_AdminBypasses(t *testing.T) {
	if code := serveAs(t, "u", RoleAdmin, RequireIdentity(), RequireAnyRole(RoleSupervisor)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_OperatorDeniedOnSupervisorRoute(t *testing.T) {
	if code := serveAs(t, "u", RoleOperator, RequireIdentity(), RequireAnyRole(RoleSupervisor)); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_AllowedRolePasses(t *testing.T) {
	if code := serveAs(t, "u", RoleSupervisor, RequireIdentity(), RequireAnyRole(RoleSupervisor)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireIdentity_MissingOperator(t *testing.T) {
	if code := serveAs(t, "", RoleOperator, RequireIdentity(), RequireAnyRole(RoleOperator)); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []string{RoleAdmin, RoleSupervisor, RoleOperator} {
		if !ValidRole(r) {
			t.Fatalf("expected %q valid", r)
		}
	}
	if ValidRole("super_admin") {
		t.Fatalf("unknown role must be invalid")
	}
}
