package utils

import (
	"CourseForge/internal/repo"
	"CourseForge/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func failWith(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Fail(c, err)
	return w
}

func TestFailStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing parameter", &service.OpError{Kind: service.ErrMissingParameter, Detail: "x is required"}, http.StatusBadRequest},
		{"malformed key", &service.OpError{Kind: service.ErrMalformedKey, Detail: "junk"}, http.StatusBadRequest},
		{"not found", &service.OpError{Kind: service.ErrNotFound, Detail: "object k"}, http.StatusNotFound},
		{"lock busy", repo.ErrLockBusy, http.StatusConflict},
		{"failed to save", &service.OpError{Kind: service.ErrFailedToSave, Cause: errors.New("down")}, http.StatusInternalServerError},
		{"store unavailable", &service.OpError{Kind: service.ErrStoreUnavailable, Detail: "put"}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := failWith(t, tc.err)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestFailMarksStateChanged(t *testing.T) {
	w := failWith(t, &service.OpError{
		Kind:         service.ErrFailedToSave,
		Cause:        errors.New("down"),
		StateChanged: true,
	})
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["state_changed"] != true {
		t.Errorf("state_changed missing from body: %v", body)
	}

	w = failWith(t, &service.OpError{Kind: service.ErrNotFound})
	body = nil
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if _, ok := body["state_changed"]; ok {
		t.Errorf("state_changed present for a clean failure: %v", body)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"
	token, err := GenerateToken(secret, "alice", "staff")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := VerifyToken(secret, token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.Subject != "alice" || claims.Role != "staff" {
		t.Errorf("claims = %+v", claims)
	}
	if _, err := VerifyToken("other-secret", token); err == nil {
		t.Error("token verified with the wrong secret")
	}
}
