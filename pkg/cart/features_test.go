package cart_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"bakeshop/pkg/cart"
	"bakeshop/pkg/catalog"
)

type cartTestContext struct {
	items *catalog.Catalog
	cart  cart.Cart
}

func (c *cartTestContext) reset() {
	c.cart = cart.Cart{}
}

func (c *cartTestContext) anEmptyCart() error {
	c.reset()
	return nil
}

func (c *cartTestContext) iAddToTheCart(id string) error {
	item, err := c.items.Get(id)
	if err != nil {
		return fmt.Errorf("catalog item %s: %w", id, err)
	}
	c.cart.AddItem(item)
	return nil
}

func (c *cartTestContext) iRemoveFromTheCart(id string) error {
	c.cart.RemoveItem(id)
	return nil
}

func (c *cartTestContext) iSetTheQuantityOfTo(id string, quantity int) error {
	c.cart.UpdateQuantity(id, quantity)
	return nil
}

func (c *cartTestContext) iClearTheCart() error {
	c.cart.Clear()
	return nil
}

func (c *cartTestContext) theCartHoldsOf(quantity int, id string) error {
	if got := c.cart.ItemQuantity(id); got != quantity {
		return fmt.Errorf("expected %d of %s, got %d", quantity, id, got)
	}
	return nil
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if got := c.cart.Len(); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theCartTotalIs(total string) error {
	if got := c.cart.TotalPrice().StringFixed(2); got != total {
		return fmt.Errorf("expected total %s, got %s", total, got)
	}
	return nil
}

func (c *cartTestContext) lineIs(position int, id string) error {
	lines := c.cart.Lines()
	if position < 1 || position > len(lines) {
		return fmt.Errorf("cart has %d lines, no line %d", len(lines), position)
	}
	if got := lines[position-1].ID; got != id {
		return fmt.Errorf("expected line %d to be %s, got %s", position, id, got)
	}
	return nil
}

func initializeScenario(items *catalog.Catalog) func(*godog.ScenarioContext) {
	return func(ctx *godog.ScenarioContext) {
		tc := &cartTestContext{items: items}

		ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
			tc.reset()
			return ctx, nil
		})

		ctx.Step(`^an empty cart$`, tc.anEmptyCart)
		ctx.Step(`^I add "([^"]*)" to the cart$`, tc.iAddToTheCart)
		ctx.Step(`^I remove "([^"]*)" from the cart$`, tc.iRemoveFromTheCart)
		ctx.Step(`^I set the quantity of "([^"]*)" to (-?\d+)$`, tc.iSetTheQuantityOfTo)
		ctx.Step(`^I clear the cart$`, tc.iClearTheCart)
		ctx.Step(`^the cart holds (\d+) of "([^"]*)"$`, tc.theCartHoldsOf)
		ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
		ctx.Step(`^the cart total is "([^"]*)"$`, tc.theCartTotalIs)
		ctx.Step(`^line (\d+) is "([^"]*)"$`, tc.lineIs)
	}
}

func TestFeatures(t *testing.T) {
	items, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario(items),
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
