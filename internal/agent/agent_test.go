package agent

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestLogin_RequiresCredentials(t *testing.T) {
	h := &Handler{Log: zap.NewNop()}

	for _, body := range []string{`not json`, `{"email":"","password":"x"}`, `{"email":"a@b.co"}`} {
		rr := httptest.NewRecorder()
		h.Login(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, rr.Code)
		}
	}
}

func TestCreate_Validation(t *testing.T) {
	h := &Handler{Log: zap.NewNop()}

	cases := map[string]string{
		"missing name":  `{"name":"  ","email":"x@y.com"}`,
		"invalid email": `{"name":"Ana","email":"not-an-email"}`,
		"bad json":      `{`,
	}
	for name, body := range cases {
		rr := httptest.NewRecorder()
		h.Create(rr, httptest.NewRequest(http.MethodPost, "/api/agents", strings.NewReader(body)))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, rr.Code)
		}
	}
}

func TestChangePassword_TooShort(t *testing.T) {
	h := &Handler{Log: zap.NewNop()}
	rr := httptest.NewRecorder()
	h.ChangePassword(rr, httptest.NewRequest(http.MethodPut, "/api/me/password",
		strings.NewReader(`{"currentPassword":"old","newPassword":"short"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}
