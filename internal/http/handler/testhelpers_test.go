package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sandeepkv93/bearer-auth-api/internal/domain"
	"github.com/sandeepkv93/bearer-auth-api/internal/http/middleware"
	"github.com/sandeepkv93/bearer-auth-api/internal/service"
)

type envelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

func newJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		if err := json.NewEncoder(&buf).Encode(v); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withPrincipal(req *http.Request, p *service.Principal) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.PrincipalContextKey, p)
	return req.WithContext(ctx)
}

func testPrincipal() *service.Principal {
	return &service.Principal{
		UserID:  7,
		TokenID: "4f7d4d4e-2f0e-4a4c-9d0e-6c1b5b8f8a11",
		User:    &domain.User{ID: 7, Name: "Ann", Email: "ann@x.io"},
	}
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", rr.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var data map[string]any
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data %q: %v", string(env.Data), err)
	}
	return data
}
