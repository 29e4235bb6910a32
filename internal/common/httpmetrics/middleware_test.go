package httpmetrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: "/"},
		{in: "/messages", want: "/messages"},
		{in: "/admin/posts/edit/42", want: "/admin/posts/edit/{param}"},
		{in: "/user/profile/3fa85f64-5717-4562-b3fc-2c963f66afa6", want: "/user/profile/{param}"},
	}
	for _, tc := range cases {
		if got := NormalizePath(tc.in); got != tc.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCollector_RecordsStatus(t *testing.T) {
	var seen *statusRecorder
	handler := New().Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = w.(*statusRecorder)
		w.WriteHeader(http.StatusSeeOther)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if seen == nil || seen.status != http.StatusSeeOther {
		t.Errorf("recorder should capture status, got %+v", seen)
	}
}
