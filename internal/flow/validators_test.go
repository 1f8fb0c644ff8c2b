package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/bookbot/internal/domain"
)

func TestPrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"9.99", "9.99", true},
		{"9,99", "9.99", true},
		{" 500 ", "500.00", true},
		{"12.50", "12.50", true},
		{"1.230", "1.23", true},
		{"0", "", false},
		{"-3", "", false},
		{"1.234", "", false},
		{"abc", "", false},
		{"100000000", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Price(context.Background(), Input{Text: tc.in}, nil)
			if !tc.ok {
				assert.True(t, domain.IsKind(err, domain.KindValidation))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestQuantity(t *testing.T) {
	got, err := Quantity(context.Background(), Input{Text: "0"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "0", got)

	for _, bad := range []string{"-1", "1.5", "x", ""} {
		_, err := Quantity(context.Background(), Input{Text: bad}, nil)
		assert.Error(t, err, bad)
	}
}

func TestPhone(t *testing.T) {
	for _, good := range []string{"79990000000", "+7 (999) 000-00-00", "12345"} {
		_, err := Phone(context.Background(), Input{Text: good}, nil)
		assert.NoError(t, err, good)
	}
	for _, bad := range []string{"", "1234", "phone", "7+999", "1234567890123456"} {
		_, err := Phone(context.Background(), Input{Text: bad}, nil)
		assert.Error(t, err, bad)
	}

	got, err := Phone(context.Background(), Input{Contact: &Contact{Phone: "+4912345"}}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "+4912345", got)
}

func TestMinLenCountsRunes(t *testing.T) {
	v := MinLen(5, "Text")
	_, err := v(context.Background(), Input{Text: "Привет"}, nil)
	assert.NoError(t, err)
	_, err = v(context.Background(), Input{Text: "  abc  "}, nil)
	assert.Error(t, err)
}

func TestOneOfMatchesValueOrLabel(t *testing.T) {
	v := OneOf(BookFields...)
	got, err := v(context.Background(), Input{Text: "description"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, KeyDesc, got)

	got, err = v(context.Background(), Input{Text: "price"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, KeyPrice, got)

	_, err = v(context.Background(), Input{Text: "isbn"}, nil)
	assert.Error(t, err)
}

func TestSharedContactNeedsUser(t *testing.T) {
	_, err := SharedContact(context.Background(), Input{Contact: &Contact{Phone: "+1"}}, nil)
	assert.Error(t, err)
	got, err := SharedContact(context.Background(), Input{Contact: &Contact{UserID: 9}}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "9", got)
}
