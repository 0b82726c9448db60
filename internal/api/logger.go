package api

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/booking-sync/internal/auth"
)

// logFormatter is gin's default request line with the access token query
// parameter redacted.
func logFormatter(param gin.LogFormatterParams) string {
	var statusColor, methodColor, resetColor string
	if param.IsOutputColor() {
		statusColor = param.StatusCodeColor()
		methodColor = param.MethodColor()
		resetColor = param.ResetColor()
	}
	if param.Latency > time.Minute {
		param.Latency = param.Latency.Truncate(time.Second)
	}
	return fmt.Sprintf("[GIN] %v |%s %3d %s| %13v | %15s |%s %-7s %s %#v\n%s",
		param.TimeStamp.Format("2006/01/02 - 15:04:05"),
		statusColor, param.StatusCode, resetColor,
		param.Latency,
		param.ClientIP,
		methodColor, param.Method, resetColor,
		redactPath(param.Path),
		param.ErrorMessage,
	)
}

func redactPath(path string) string {
	p, raw, ok := strings.Cut(path, "?")
	if !ok {
		return path
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		// Unparseable queries are dropped rather than logged as-is.
		return p + "?REDACTED"
	}
	if !q.Has(auth.AccessTokenParam) {
		return path
	}
	q.Set(auth.AccessTokenParam, "REDACTED")
	return p + "?" + q.Encode()
}
