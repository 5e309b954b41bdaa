package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakeshop/pkg/cart"
	"bakeshop/pkg/catalog"
)

func sampleCart(t *testing.T) cart.Cart {
	t.Helper()
	items, err := catalog.Default()
	require.NoError(t, err)
	var c cart.Cart
	for _, id := range []string{"1", "1", "k1"} {
		item, err := items.Get(id)
		require.NoError(t, err)
		c.AddItem(item)
	}
	return c
}

func TestNewDraft(t *testing.T) {
	c := sampleCart(t)
	totals, err := Compute(ModeDelivery, c.TotalPrice(), "Bethel", "06801")
	require.NoError(t, err)

	d, err := NewDraft(c, totals, validCustomer(), PaymentMethodCard, "pi_123")
	require.NoError(t, err)
	assert.Len(t, d.Items, 2)
	assert.Equal(t, "20.50", d.Subtotal.StringFixed(2))
	assert.Equal(t, "8.00", d.DeliveryFee.StringFixed(2))
	assert.Equal(t, "28.50", d.Total.StringFixed(2))

	// The draft is a snapshot; later cart edits do not reach it.
	c.Clear()
	assert.Len(t, d.Items, 2)
}

func TestNewDraftRejects(t *testing.T) {
	c := sampleCart(t)
	totals, err := Compute(ModeDelivery, c.TotalPrice(), "Bethel", "06801")
	require.NoError(t, err)

	_, err = NewDraft(cart.Cart{}, totals, validCustomer(), PaymentMethodCard, "pi_1")
	assert.True(t, IsValidation(err))

	_, err = NewDraft(c, totals, validCustomer(), PaymentMethod("cash"), "pi_1")
	assert.True(t, IsValidation(err))

	_, err = NewDraft(c, totals, validCustomer(), PaymentMethodWallet, " ")
	assert.True(t, IsValidation(err))

	bad := validCustomer()
	bad.Email = "nope"
	_, err = NewDraft(c, totals, bad, PaymentMethodWallet, "WALLET-1")
	assert.True(t, IsValidation(err))
}
