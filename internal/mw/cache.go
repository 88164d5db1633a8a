package mw

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"panel-backend/internal/cache"
)

type cachedResponse struct {
	Status  int         `json:"status"`
	Headers http.Header `json:"headers"`
	Body    []byte      `json:"body"`
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache caches successful GET responses in store. Responses are keyed per
// user so one user's data is never served to another.
func Cache(store cache.Cache, duration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(c)
		if raw, found, err := store.Get(c.Request.Context(), key); err != nil {
			log.Warnf("Response cache lookup failed: %v", err)
		} else if found {
			var cached cachedResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				for k, v := range cached.Headers {
					c.Writer.Header()[k] = v
				}
				c.Writer.WriteHeader(cached.Status)
				c.Writer.Write(cached.Body)
				c.Abort()
				return
			}
		}

		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if len(c.Errors) > 0 || !blw.Written() || blw.Status() < 200 || blw.Status() >= 300 {
			return
		}
		raw, err := json.Marshal(cachedResponse{
			Status:  blw.Status(),
			Headers: blw.Header().Clone(),
			Body:    blw.body.Bytes(),
		})
		if err != nil {
			return
		}
		if err := store.Set(c.Request.Context(), key, raw, duration); err != nil {
			log.Warnf("Response cache write failed: %v", err)
		}
	}
}

func cacheKey(c *gin.Context) string {
	var userID int64
	if user := CurrentUser(c); user != nil {
		userID = user.ID
	}
	return fmt.Sprintf("response:%d:%s", userID, c.Request.RequestURI)
}
