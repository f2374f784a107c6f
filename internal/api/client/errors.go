package client

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yungbote/coursemarket/internal/platform/apierr"
)

// parseHTTPError takes the message from body.message, then body.detail, then
// body.error (when it is a string).
func parseHTTPError(status int, raw []byte, headers http.Header) error {
	var env struct {
		Message json.RawMessage `json:"message"`
		Detail  json.RawMessage `json:"detail"`
		Error   json.RawMessage `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(raw, &env); err == nil {
		for _, candidate := range []json.RawMessage{env.Message, env.Detail, env.Error} {
			if s := rawString(candidate); s != "" {
				msg = s
				break
			}
		}
	}
	return apierr.HTTP(status, msg, raw, headers.Clone())
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}
