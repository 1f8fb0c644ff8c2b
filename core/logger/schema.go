package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
	"fatal":   "FATAL",
}

var (
	knownStatus  = setOf("ok", "fail", "skip", "retry", "rate_limited", "cancelled", "invalid")
	knownOutcome = setOf("ok", "fail", "cancelled", "rate_limited", "prompt", "invalid", "committed", "aborted")
)

func setOf(values ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

// normalizeEnum lowercases v and reports whether it belongs to the allowed set.
func normalizeEnum(v string, allowed map[string]struct{}) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", false
	}
	_, ok := allowed[v]
	return v, ok
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"op",
	"cb_key",
	"flow",
	"field",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"count",
	"payload",
	"lang",
	"username",
	"mode",
	"listen",
	"public_url",
	"db",
	"host",
	"port",
	"book_id",
	"order_id",
	"status_id",
	"status_name",
	"dialog_id",
	"admin_id",
	"customer_id",
	"kind",
	"err",
	"err_code",
	"cause",
	"delivery_err",
	"attempts",
	"backoff_ms",
}
