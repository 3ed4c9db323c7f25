package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/time/rate"

	"github.com/insightpilot/insightpilot/app/core"
	v1 "github.com/insightpilot/insightpilot/app/logic/v1"
	"github.com/insightpilot/insightpilot/app/response"
	"github.com/insightpilot/insightpilot/pkg/errors"
	"github.com/insightpilot/insightpilot/pkg/i18n"
)

const USER_HEADER_KEY = "X-User-ID"

func I18n() gin.HandlerFunc {
	var allowList []string
	for k := range i18n.ALLOW_LANG {
		allowList = append(allowList, k)
	}
	l := i18n.NewLocalizer(allowList...)

	return response.ProvideResponseLocalizer(l)
}

// Authorization resolves the caller from the X-User-ID header and puts it
// on the request context for the logic layer.
func Authorization() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.GetHeader(USER_HEADER_KEY)
		if user == "" {
			response.APIError(c, errors.New("middleware.Authorization", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), v1.UserKey{}, user))
	}
}

func Cors(c *gin.Context) {
	method := c.Request.Method
	origin := c.Request.Header.Get("Origin")
	if origin != "" {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, X-User-ID, Accept-Language")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Cache-Control, Content-Language, Content-Type")
		c.Header("Access-Control-Allow-Credentials", "true")
	}
	if method == "OPTIONS" {
		c.AbortWithStatus(http.StatusNoContent)
	}
	c.Next()
}

var limiters = cmap.New[*rate.Limiter]()

type LimiterFunc func(key string) gin.HandlerFunc

// UseLimit throttles by operation plus a caller-derived key. Limiters are
// created lazily from the rate_limit config.
func UseLimit(appCore *core.Core, operation string, genKeyFunc func(c *gin.Context) string) gin.HandlerFunc {
	cfg := appCore.Cfg().RateLimit
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond) * 2
	}

	return func(c *gin.Context) {
		key := operation + ":" + genKeyFunc(c)
		l, exist := limiters.Get(key)
		if !exist {
			l = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
			limiters.SetIfAbsent(key, l)
			l, _ = limiters.Get(key)
		}

		if !l.Allow() {
			response.APIError(c, errors.New("middleware.limiter", i18n.ERROR_TOO_MANY_REQUESTS, nil).Code(http.StatusTooManyRequests))
			c.Abort()
		}
	}
}
