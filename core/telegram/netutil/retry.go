package netutil

import (
	"errors"
	"net"
	"net/url"

	tele "gopkg.in/telebot.v4"
)

// ShouldRetry reports whether a failed Telegram API call is worth repeating.
// Dial failures, timeouts and flood-control replies qualify; API rejections do not.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var flood tele.FloodError
	if errors.As(err, &flood) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && (opErr.Timeout() || opErr.Op == "dial") {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			return ShouldRetry(urlErr.Err)
		}
	}
	return false
}
