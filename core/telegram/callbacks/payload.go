package callbacks

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// PayloadSep separates numeric ids inside one payload, e.g. "<statusID>|<orderID>".
const PayloadSep = "|"

// Payload joins ids into a callback payload.
func Payload(ids ...int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, PayloadSep)
}

// PayloadInt64 parses a single numeric payload.
func PayloadInt64(c tele.Context) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(CallbackPayload(c)), 10, 64)
}

// PayloadInt64s parses exactly n numeric ids from the payload.
func PayloadInt64s(c tele.Context, n int) ([]int64, error) {
	return ParseIDs(CallbackPayload(c), n)
}

// ParseIDs parses exactly n ids separated by PayloadSep.
func ParseIDs(payload string, n int) ([]int64, error) {
	parts := strings.Split(payload, PayloadSep)
	if len(parts) != n {
		return nil, fmt.Errorf("callback payload %q: want %d ids, got %d", payload, n, len(parts))
	}
	ids := make([]int64, n)
	for i, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("callback payload %q: %w", payload, err)
		}
		ids[i] = id
	}
	return ids, nil
}
