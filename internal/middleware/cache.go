package middleware

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/blood-donation-match/internal/config"
)

// cachedResponse is the envelope stored in Redis for one cached hit.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// cacheKey identifies one response by the concrete request URL path,
// not the registered route pattern: keying on the pattern would fold
// every /v1/requests/:id onto a single entry.  The query string and
// the caller credential are part of the key too, so one caller's
// cached body is never served to another, and a credential that has
// never received a 200 cannot hit the cache at all.
func cacheKey(prefix string, c echo.Context) string {
	r := c.Request()
	caller := strings.TrimSpace(r.Header.Get(IdentityHeader))
	sum := sha1.Sum([]byte(r.Method + " " + r.URL.Path + "?" + r.URL.RawQuery + "@" + caller))
	return fmt.Sprintf("%s:%x", prefix, sum)
}

// bodyRecorder tees the response body into memory up to a size cap so
// a successful response can be stored after the handler runs.  Bodies
// over the cap are passed through untouched and never cached; storing
// a truncated body would corrupt later hits.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	body   []byte
	max    int64
	over   bool
}

func (w *bodyRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	if !w.over {
		if int64(len(w.body))+int64(len(b)) > w.max {
			w.over = true
			w.body = nil
		} else {
			w.body = append(w.body, b...)
		}
	}
	return w.ResponseWriter.Write(b)
}

// NewRedisCache caches successful GET responses for cfg.TTL.  Entries
// are keyed per caller, so a caller whose account is deleted mid-TTL
// can still replay its own earlier 200 until the entry expires; every
// miss resolves the caller through the matching service as usual.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}

			key := cacheKey(cfg.Prefix, c)
			ctx := c.Request().Context()

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var stored cachedResponse
				if json.Unmarshal(raw, &stored) == nil {
					hdr := c.Response().Header()
					for k, vals := range stored.Header {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							hdr.Add(k, v)
						}
					}
					hdr.Set("X-Cache", "HIT")
					c.Response().WriteHeader(stored.Status)
					_, werr := c.Response().Write(stored.Body)
					return werr
				}
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, max: maxBody}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if rec.status != http.StatusOK || rec.over {
				return nil
			}
			stored := cachedResponse{Status: rec.status, Header: c.Response().Header().Clone(), Body: rec.body}
			if raw, err := json.Marshal(stored); err == nil {
				// Stored with a background context so a client hangup
				// after the response does not abort the write.
				_ = rdb.SetEx(context.Background(), key, raw, ttl).Err()
			}
			return nil
		}
	}
}
