package middlewares

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/storefront-preorders/internal/pkg/requestctx"
)

// maxIdempotencyKeyLen bounds the client supplied key before it reaches the cache.
const maxIdempotencyKeyLen = 128

// AttachRequestContext copies the chi request id and the client's
// idempotency key into the request context and echoes the request id back.
// It must run after middleware.RequestID.
func AttachRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		idempotencyKey := strings.TrimSpace(r.Header.Get(requestctx.HeaderXIdempotencyKey))
		if len(idempotencyKey) > maxIdempotencyKeyLen {
			idempotencyKey = ""
		}

		ctx := requestctx.WithRequestID(r.Context(), requestID)
		ctx = requestctx.WithIdempotencyKey(ctx, idempotencyKey)
		if requestID != "" {
			w.Header().Set(requestctx.HeaderXRequestID, requestID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
