package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/matchacafe/api/internal/auth"
	"github.com/matchacafe/api/internal/handler"
)

const testSecret = "test-secret"

func loginRouter() chi.Router {
	r := chi.NewRouter()
	h := handler.NewAuthHandler(auth.NewStaticChecker("", "matcha-admin"), testSecret)
	h.RegisterRoutes(r)
	return r
}

func postLogin(t *testing.T, r chi.Router, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/admin/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestLoginSuccess(t *testing.T) {
	rr := postLogin(t, loginRouter(), map[string]string{"password": "matcha-admin"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	claims, err := auth.ValidateToken(testSecret, resp["access_token"])
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Role != auth.RoleAdmin {
		t.Errorf("role: got %q", claims.Role)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	rr := postLogin(t, loginRouter(), map[string]string{"password": "wrong"})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLoginEmptyPassword(t *testing.T) {
	rr := postLogin(t, loginRouter(), map[string]string{"password": ""})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestLoginInvalidBody(t *testing.T) {
	r := loginRouter()
	req := httptest.NewRequest("POST", "/admin/login", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
