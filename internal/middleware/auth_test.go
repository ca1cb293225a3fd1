package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantOK    bool
	}{
		{name: "bearer token", header: "Bearer abc.def.ghi", wantToken: "abc.def.ghi", wantOK: true},
		{name: "lowercase scheme", header: "bearer xyz", wantToken: "xyz", wantOK: true},
		{name: "no header", header: "", wantOK: false},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz", wantOK: false},
		{name: "scheme only", header: "Bearer", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				token, ok := GetTokenFromContext(r.Context())
				if ok != tt.wantOK {
					t.Fatalf("token present = %v, want %v", ok, tt.wantOK)
				}
				if token != tt.wantToken {
					t.Fatalf("token = %q, want %q", token, tt.wantToken)
				}
			})

			r := httptest.NewRequest(http.MethodGet, "/api/wizards/1", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			BearerToken(next).ServeHTTP(w, r)

			if !nextCalled {
				t.Fatalf("next handler was not called")
			}
			if w.Result().StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
			}
		})
	}
}
