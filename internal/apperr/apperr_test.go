package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:         400,
		KindInvalidCredentials: 401,
		KindUnauthenticated:    401,
		KindForbidden:          403,
		KindNotFound:           404,
		KindConflict:           409,
		KindRateLimited:        429,
		KindUnavailable:        503,
		KindInternal:           500,
	}
	for k, want := range cases {
		if got := k.Status(); got != want {
			t.Fatalf("%s: expected %d, got %d", k, want, got)
		}
	}
}

func TestAs_WrappedError(t *testing.T) {
	base := New(KindNotFound, "todo_not_found", "todo not found")
	err := fmt.Errorf("lookup: %w", base)
	if got := As(err); got != base {
		t.Fatalf("expected to unwrap to base error")
	}
	if got := As(errors.New("boom")); got.Kind != KindInternal {
		t.Fatalf("expected internal kind, got %s", got.Kind)
	}
}

func TestAbort_DoesNotLeakCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		Abort(c, Internal(errors.New("pq: password authentication failed")))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 500 {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Reason != "internal_error" || body.StatusCode != 500 {
		t.Fatalf("unexpected body %+v", body)
	}
	if body.Message == "" || body.Timestamp.IsZero() {
		t.Fatalf("expected message and timestamp")
	}
	if got := w.Body.String(); strings.Contains(got, "pq:") {
		t.Fatalf("cause leaked into body: %s", got)
	}
}
