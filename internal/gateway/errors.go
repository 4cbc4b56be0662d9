package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// TransportError means the request never produced an HTTP response:
// the connection failed or the deadline expired.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Timeout() {
		return fmt.Sprintf("gateway: %s: timed out", e.Op)
	}
	return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline expiry.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// RejectedError means the server answered but refused: a non-2xx status,
// a success=false body or a body that could not be decoded.
type RejectedError struct {
	Op      string
	Status  int
	Message string
	Body    string
}

func (e *RejectedError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if msg == "" {
		msg = "request rejected"
	}
	return fmt.Sprintf("gateway: %s: status=%d message=%s", e.Op, e.Status, msg)
}

// parseRejection pulls the message out of {"error": "..."} or {"error": {"message": "..."}} bodies.
func parseRejection(op string, status int, raw []byte) error {
	body := strings.TrimSpace(string(raw))
	rejected := &RejectedError{Op: op, Status: status, Body: body}

	var flat struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &flat); err == nil {
		if msg := strings.TrimSpace(flat.Error); msg != "" {
			rejected.Message = msg
			return rejected
		}
		if msg := strings.TrimSpace(flat.Message); msg != "" {
			rejected.Message = msg
			return rejected
		}
	}
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		rejected.Message = strings.TrimSpace(nested.Error.Message)
	}
	return rejected
}
