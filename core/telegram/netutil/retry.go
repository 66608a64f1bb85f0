package netutil

import (
	"context"
	"errors"
	"net"
	"strings"
)

// IsTimeout reports whether err is a timeout-class transport failure:
// a deadline hit while dialing, reading or waiting for the API.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// telebot flattens transport errors into strings in some paths
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded")
}

// IsConnect reports whether err happened while establishing a connection.
func IsConnect(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
