package server

import (
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/mainservice/internal/filter"
)

var detectionLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// bindOptionalJSON binds the request body into dst and treats an empty body
// as an empty object.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// parseID accepts a positive integer, as a JSON number or numeric string.
func parseID(v filter.Value) (int64, bool) {
	ids := filter.IDs([]string{string(v)})
	if len(ids) != 1 || ids[0] <= 0 {
		return 0, false
	}
	return ids[0], true
}

func parseNumber(v filter.Value) (float64, bool) {
	trimmed := strings.TrimSpace(string(v))
	if trimmed == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseDetectionTime returns the zero time for input it cannot read, which
// the notification service rejects.
func parseDetectionTime(value string) time.Time {
	trimmed := strings.TrimSpace(value)
	for _, layout := range detectionLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

// queryList collects a list parameter sent as repeated keys, bracketed keys
// or a comma separated value.
func queryList(c *gin.Context, name string) []string {
	var out []string
	for _, key := range []string{name, name + "[]"} {
		for _, item := range c.QueryArray(key) {
			out = append(out, strings.Split(item, ",")...)
		}
	}
	return filter.Strings(out)
}
