package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type tagProbe struct {
	Status     string `json:"status" binding:"omitempty,course_status"`
	Kind       string `json:"kind" binding:"required,material_kind"`
	Visibility string `json:"visibility" binding:"omitempty,visibility"`
}

func bindProbe(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		t.Fatalf("RegisterValidators: %v", err)
	}
	r := gin.New()
	r.POST("/probe", func(c *gin.Context) {
		var p tagProbe
		if !bindJSON(c, &p) {
			return
		}
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodPost, "/probe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestBindJSONCustomTags(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"valid", `{"status":"active","kind":"doc","visibility":"public"}`, http.StatusNoContent, ""},
		{"bad status", `{"status":"published","kind":"doc"}`, http.StatusBadRequest, "status must be draft, active or archived"},
		{"bad kind", `{"kind":"podcast"}`, http.StatusBadRequest, "kind must be doc, link or video"},
		{"missing kind", `{}`, http.StatusBadRequest, "kind is a required field"},
		{"bad visibility", `{"kind":"link","visibility":"secret"}`, http.StatusBadRequest, "visibility must be private or public"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := bindProbe(t, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status: want=%d got=%d body=%s", tc.status, rec.Code, rec.Body.String())
			}
			if tc.message != "" && !strings.Contains(rec.Body.String(), tc.message) {
				t.Fatalf("body %q does not mention %q", rec.Body.String(), tc.message)
			}
		})
	}
}

func TestRegisterValidatorsIsIdempotent(t *testing.T) {
	if err := RegisterValidators(); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := RegisterValidators(); err != nil {
		t.Fatalf("second call: %v", err)
	}
}

func TestValidateValue(t *testing.T) {
	if err := RegisterValidators(); err != nil {
		t.Fatalf("RegisterValidators: %v", err)
	}
	if err := validateValue("private", visibilityTag); err != nil {
		t.Fatalf("private should pass: %v", err)
	}
	err := validateValue("everyone", visibilityTag)
	if err == nil || !strings.Contains(err.Error(), "must be private or public") {
		t.Fatalf("unexpected error: %v", err)
	}
}
