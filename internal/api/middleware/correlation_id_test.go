package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func runCorrelationRequest(t *testing.T, incoming string) (ctxID, headerID string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/portfolio/profile", nil)
	if incoming != "" {
		c.Request.Header.Set("X-Correlation-ID", incoming)
	}

	CorrelationIDMiddleware()(c)

	return GetCorrelationID(c), w.Header().Get("X-Correlation-ID")
}

func TestCorrelationID_ValidHeaderPreserved(t *testing.T) {
	want := uuid.NewString()

	ctxID, headerID := runCorrelationRequest(t, want)

	if ctxID != want {
		t.Errorf("context id = %q, want %q", ctxID, want)
	}
	if headerID != want {
		t.Errorf("response header = %q, want %q", headerID, want)
	}
}

func TestCorrelationID_InvalidHeaderReplaced(t *testing.T) {
	ctxID, headerID := runCorrelationRequest(t, "not-a-uuid; drop table")

	if _, err := uuid.Parse(ctxID); err != nil {
		t.Fatalf("replacement id %q is not a uuid: %v", ctxID, err)
	}
	if ctxID == "not-a-uuid; drop table" {
		t.Error("untrusted correlation id was preserved")
	}
	if headerID != ctxID {
		t.Errorf("header %q does not match context id %q", headerID, ctxID)
	}
}

func TestCorrelationID_MissingHeaderGenerated(t *testing.T) {
	ctxID, headerID := runCorrelationRequest(t, "")

	if _, err := uuid.Parse(ctxID); err != nil {
		t.Fatalf("generated id %q is not a uuid: %v", ctxID, err)
	}
	if headerID != ctxID {
		t.Errorf("header %q does not match context id %q", headerID, ctxID)
	}
}
