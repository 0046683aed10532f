package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/jcmexdev/storefront-preorders/internal/pkg/requestctx"
)

func TestAttachRequestContext(t *testing.T) {
	var gotID, gotKey string
	h := middleware.RequestID(AttachRequestContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = requestctx.RequestID(r.Context())
		gotKey = requestctx.IdempotencyKey(r.Context())
	})))

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set("X-Request-Id", "req-42")
	req.Header.Set(requestctx.HeaderXIdempotencyKey, " key-1 ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", gotID)
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, "req-42", rec.Header().Get(requestctx.HeaderXRequestID))
}

func TestOversizedIdempotencyKeyIsIgnored(t *testing.T) {
	var gotKey string
	h := AttachRequestContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = requestctx.IdempotencyKey(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(requestctx.HeaderXIdempotencyKey, strings.Repeat("k", maxIdempotencyKeyLen+1))
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Empty(t, gotKey)
}
