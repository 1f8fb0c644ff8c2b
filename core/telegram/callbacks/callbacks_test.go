package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	key, payload := ParseCallbackData(&tele.Callback{Data: "\forder_status_set|3|17"})
	assert.Equal(t, "order_status_set", key)
	assert.Equal(t, "3|17", payload)

	key, payload = ParseCallbackData(&tele.Callback{Unique: "book_edit", Data: "5"})
	assert.Equal(t, "book_edit", key)
	assert.Equal(t, "5", payload)

	key, payload = ParseCallbackData(&tele.Callback{Data: "\fcancel"})
	assert.Equal(t, "cancel", key)
	assert.Empty(t, payload)

	key, _ = ParseCallbackData(nil)
	assert.Empty(t, key)
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs(Payload(3, 17), 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 17}, ids)

	_, err = ParseIDs("3", 2)
	assert.Error(t, err)
	_, err = ParseIDs("x|1", 2)
	assert.Error(t, err)
}
