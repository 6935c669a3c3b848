package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func invokeInternalKey(t *testing.T, configuredKey, providedKey string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/internal/scoring/run", nil)
	if providedKey != "" {
		req.Header.Set("X-Internal-Key", providedKey)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := InternalKey(configuredKey)(func(c echo.Context) error {
		reached = true
		return c.String(http.StatusOK, "ok")
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	return rec, reached
}

func TestInternalKey_RejectsWrongKey(t *testing.T) {
	rec, reached := invokeInternalKey(t, "secret", "not-the-secret")
	if reached {
		t.Fatal("handler ran despite wrong key")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestInternalKey_RejectsMissingKey(t *testing.T) {
	rec, reached := invokeInternalKey(t, "secret", "")
	if reached {
		t.Fatal("handler ran despite missing key")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestInternalKey_AllowsMatchingKey(t *testing.T) {
	rec, reached := invokeInternalKey(t, "secret", "secret")
	if !reached {
		t.Fatal("handler did not run with the correct key")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestInternalKey_EmptyConfiguredKeyDisablesGuard(t *testing.T) {
	rec, reached := invokeInternalKey(t, "", "")
	if !reached {
		t.Fatal("handler did not run with the guard disabled")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
