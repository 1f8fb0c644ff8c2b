package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/bookbot/internal/domain"
)

const validateOp = "flow.validate"

var maxPrice = decimal.NewFromInt(100_000_000)

// MinLen accepts trimmed text of at least n characters.
func MinLen(n int, what string) Validator {
	return func(_ context.Context, in Input, _ Values) (string, error) {
		text := strings.TrimSpace(in.Text)
		if utf8.RuneCountInString(text) < n {
			return "", domain.Validation(validateOp, fmt.Sprintf("%s must be at least %d characters long.", what, n))
		}
		return text, nil
	}
}

// NonEmpty accepts any trimmed, non-empty text.
func NonEmpty(what string) Validator {
	return MinLen(1, what)
}

// Price accepts a positive amount with at most two decimals. A comma is read
// as the decimal separator. The stored value is the canonical "12.50" form.
func Price(_ context.Context, in Input, _ Values) (string, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(in.Text), ",", ".")
	d, err := decimal.NewFromString(raw)
	switch {
	case err != nil:
		return "", domain.Validation(validateOp, "Price must be a number, for example 499.90.")
	case !d.IsPositive():
		return "", domain.Validation(validateOp, "Price must be greater than zero.")
	case d.Exponent() < -2 && !d.Equal(d.Round(2)):
		return "", domain.Validation(validateOp, "Price can have at most two decimals.")
	case d.GreaterThanOrEqual(maxPrice):
		return "", domain.Validation(validateOp, "Price is too large.")
	}
	return d.StringFixed(2), nil
}

// Quantity accepts a whole number of copies, zero included.
func Quantity(_ context.Context, in Input, _ Values) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(in.Text))
	if err != nil || n < 0 {
		return "", domain.Validation(validateOp, "Quantity must be a whole number, 0 or more.")
	}
	return strconv.Itoa(n), nil
}

// Photo accepts an attached photo and stores its file id.
func Photo(_ context.Context, in Input, _ Values) (string, error) {
	if in.PhotoID == "" {
		return "", domain.Validation(validateOp, "Please send a photo.")
	}
	return in.PhotoID, nil
}

// Phone accepts a phone number of 5 to 15 digits. Spaces, dashes, dots,
// parentheses and a leading plus are allowed and kept as typed.
func Phone(_ context.Context, in Input, _ Values) (string, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" && in.Contact != nil {
		text = strings.TrimSpace(in.Contact.Phone)
	}
	digits := 0
	for i, r := range text {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", domain.Validation(validateOp, "Phone number may contain only digits, spaces and + - ( ).")
		}
	}
	if digits < 5 || digits > 15 {
		return "", domain.Validation(validateOp, "Phone number must have 5 to 15 digits.")
	}
	return text, nil
}

// SharedContact accepts a contact card of a Telegram user and stores the user id.
func SharedContact(_ context.Context, in Input, _ Values) (string, error) {
	if in.Contact == nil || in.Contact.UserID == 0 {
		return "", domain.Validation(validateOp, "Please share the contact of a Telegram user.")
	}
	return strconv.FormatInt(in.Contact.UserID, 10), nil
}

// OneOf accepts the value or the label of one of the options.
func OneOf(options ...Option) Validator {
	return func(_ context.Context, in Input, _ Values) (string, error) {
		return matchOption(options, in.Text)
	}
}

func matchOption(options []Option, text string) (string, error) {
	text = strings.TrimSpace(text)
	for _, o := range options {
		if text == o.Value || strings.EqualFold(text, o.Label) {
			return o.Value, nil
		}
	}
	return "", domain.Validation(validateOp, "Please pick one of the offered options.")
}
