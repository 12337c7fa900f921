package http

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateLimit is a fixed-window limiter keyed by API key (falling back to
// remote address for public endpoints). It fails open if redis is down;
// a sandbox gateway should not refuse traffic because its limiter did.
func rateLimit(rdb *redis.Client, perMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rdb == nil || perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Api-Key")
			if id == "" {
				id = r.RemoteAddr
			}
			key := fmt.Sprintf("ratelimit:%s:%d", id, time.Now().Unix()/60)

			// INCR and EXPIRE travel together so a counter key can
			// never end up without a TTL.
			pipe := rdb.TxPipeline()
			incr := pipe.Incr(r.Context(), key)
			pipe.Expire(r.Context(), key, time.Minute)
			if _, err := pipe.Exec(r.Context()); err != nil {
				log.Printf("rate limit check failed: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if count := incr.Val(); count > int64(perMinute) {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
