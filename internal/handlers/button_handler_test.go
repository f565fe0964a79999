package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakeLimiter struct {
	allow   bool
	err     error
	callers []string
}

func (f *fakeLimiter) AllowAction(ctx context.Context, caller, action string, rate, burst int) (bool, error) {
	f.callers = append(f.callers, caller)
	return f.allow, f.err
}

func postCallback(h *ButtonHandler, payload string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/hooks/interactive", h.HandleCallback)

	form := url.Values{}
	if payload != "" {
		form.Set("payload", payload)
	}
	req := httptest.NewRequest(http.MethodPost, "/hooks/interactive", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleCallbackRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing payload", ""},
		{"invalid json", "{not json"},
		{"no actions", `{"callback_id":"user_warning","user":{"name":"an_op"},"actions":[]}`},
		{"value without separator", `{"user":{"name":"an_op"},"actions":[{"value":"verify"}]}`},
		{"value without username", `{"user":{"name":"an_op"},"actions":[{"value":"verify_"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewButtonHandler(nil, nil, nil, "testdomain")
			if w := postCallback(h, tt.payload); w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
			}
		})
	}
}

func TestHandleCallbackThrottlesPerCaller(t *testing.T) {
	limiter := &fakeLimiter{allow: false}
	h := NewButtonHandler(nil, nil, limiter, "testdomain")

	payload := `{"user":{"name":"busy_op"},"actions":[{"value":"bogus_someuser"}]}`
	w := postCallback(h, payload)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d (%s)", w.Code, w.Body.String())
	}
	if len(limiter.callers) != 1 || limiter.callers[0] != "busy_op" {
		t.Fatalf("expected limiter keyed by the pressing user, got %v", limiter.callers)
	}
}

func TestHandleCallbackUnknownCommand(t *testing.T) {
	limiter := &fakeLimiter{allow: true}
	h := NewButtonHandler(nil, nil, limiter, "testdomain")

	payload := `{"user":{"name":"an_op"},"actions":[{"value":"bogus_someuser"}]}`
	w := postCallback(h, payload)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with failure text, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Command failed") {
		t.Fatalf("expected failure text in reply, got %s", w.Body.String())
	}
}
