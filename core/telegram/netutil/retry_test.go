package netutil

import (
	"context"
	"errors"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestShouldRetry(t *testing.T) {
	dial := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad request"), false},
		{"dial", dial, true},
		{"wrapped dial", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: dial}, true},
		{"deadline", &url.Error{Op: "Post", Err: context.DeadlineExceeded}, true},
		{"blocked", tele.ErrBlockedByUser, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldRetry(tc.err))
		})
	}
}
