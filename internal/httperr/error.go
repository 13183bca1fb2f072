package httperr

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxBody = 64 * 1024

// Error represents non-2xx API response
type Error struct {
	StatusCode int
	// Detail is the human-readable message from the response body, if any
	Detail string
	Body   []byte
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

type payload struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// FromResponse reads (and closes) response body and returns an Error
func FromResponse(resp *http.Response) *Error {
	ret := &Error{StatusCode: resp.StatusCode}
	if resp.Body == nil {
		return ret
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	ret.Body = data
	ret.Detail = detail(data)
	return ret
}

func detail(data []byte) string {
	var p payload
	if len(data) == 0 || json.Unmarshal(data, &p) != nil {
		return ""
	}
	if len(p.Detail) > 0 {
		var text string
		if json.Unmarshal(p.Detail, &text) == nil {
			return text
		}
		//validation errors come as a list of {msg: ...}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(p.Detail, &items) == nil {
			var messages []string
			for _, item := range items {
				if item.Msg != "" {
					messages = append(messages, item.Msg)
				}
			}
			return strings.Join(messages, "; ")
		}
	}
	if p.Message != "" {
		return p.Message
	}
	return p.Error
}
