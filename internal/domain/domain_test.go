package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validBook() Book {
	return Book{
		Name:        "Test",
		Author:      "A",
		Price:       decimal.RequireFromString("9.99"),
		Description: "0123456789",
		Photo:       "fid1",
		Quantity:    3,
	}
}

func TestBookValidate(t *testing.T) {
	assert.NoError(t, validBook().Validate())

	cases := map[string]func(*Book){
		"empty name":     func(b *Book) { b.Name = " " },
		"zero price":     func(b *Book) { b.Price = decimal.Zero },
		"negative stock": func(b *Book) { b.Quantity = -1 },
		"no photo":       func(b *Book) { b.Photo = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			b := validBook()
			mutate(&b)
			assert.True(t, IsKind(b.Validate(), KindValidation))
		})
	}
}

func TestBookInfo(t *testing.T) {
	assert.Equal(t, "Test - A", validBook().Info())
}

func TestDefaultStatusesOrdered(t *testing.T) {
	statuses := DefaultStatuses()
	assert.Len(t, statuses, 7)
	assert.Equal(t, StatusNew, statuses[0].Name)
	assert.Equal(t, StatusCancelled, statuses[6].Name)
	for i, s := range statuses {
		assert.Equal(t, i+1, s.Position)
	}
	assert.Equal(t, "❌ Your order has been cancelled. Contact us if you have any questions.", statuses[6].Notice())
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("orders.set_status: %w", Delivery("notify", 42, cause))

	assert.Equal(t, KindDelivery, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "could not notify 42", Message(err))

	var de *Error
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, "delivery", de.Code())

	assert.Equal(t, Kind(""), KindOf(cause))
	assert.Equal(t, "something went wrong", Message(cause))
	assert.False(t, IsKind(nil, KindNotFound))
}

func TestPersistenceMessageCarriesCause(t *testing.T) {
	err := fmt.Errorf("books.create: %w", Persistence("books.insert", errors.New("database is locked")))

	assert.Equal(t, KindPersistence, KindOf(err))
	assert.Equal(t, "storage error: database is locked", Message(err))
	assert.Equal(t, "book not found", Message(NotFound("books.get", "book")))
}

func TestTextKind(t *testing.T) {
	assert.True(t, TextGallery.Valid())
	assert.False(t, TextKind("footer").Valid())
}

func TestAdminTitle(t *testing.T) {
	assert.Equal(t, "Anna", Admin{DisplayName: "Anna", UserName: "anna_k"}.Title())
	assert.Equal(t, "anna_k", Admin{UserName: "anna_k"}.Title())
	assert.Equal(t, "Administrator", Admin{}.Title())
}
