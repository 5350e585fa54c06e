package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// skippedHeaders never end up in stored webhook headers.
var skippedHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
}

// readPayload flattens a gateway post, form encoded or JSON, into the
// string map the signature is computed over.
func readPayload(c *gin.Context) (map[string]string, error) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		dec := json.NewDecoder(c.Request.Body)
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidParams, err)
		}
		out := make(map[string]string, len(raw))
		for k, v := range raw {
			out[k] = flatten(v)
		}
		return out, nil
	}

	if err := c.Request.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: malformed form body: %v", domain.ErrInvalidParams, err)
	}
	out := make(map[string]string, len(c.Request.PostForm))
	for k, v := range c.Request.PostForm {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out, nil
}

func flatten(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func readHeaders(c *gin.Context) map[string]string {
	out := make(map[string]string, len(c.Request.Header))
	for k, v := range c.Request.Header {
		if skippedHeaders[k] || len(v) == 0 {
			continue
		}
		out[k] = v[0]
	}
	return out
}
