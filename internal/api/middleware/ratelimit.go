package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matyusmilan/xm-forex/pkg/ratelimit"
)

var rateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Name: "forex_http_rate_limited_total",
	Help: "Requests rejected by the order placement rate limit",
})

// RateLimit - ограничение частоты запросов по адресу клиента
//
// nil limiter - ограничение выключено (RATE_LIMIT_RPS=0).
// При превышении: 429 {"detail":"Too Many Requests"} и Retry-After в секундах.
//
// Использование:
//
//	limited := middleware.RateLimit(ratelimit.NewKeyedLimiter(5, 10, 0))
//	router.Handle("/orders", limited(placeHandler)).Methods(http.MethodPost)
func RateLimit(limiter *ratelimit.KeyedLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket := limiter.Get(clientIP(r))
			if !bucket.Allow() {
				rateLimited.Inc()

				retryAfter := int(math.Ceil(bucket.RetryAfter().Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"detail":"Too Many Requests"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP возвращает адрес клиента без порта
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
