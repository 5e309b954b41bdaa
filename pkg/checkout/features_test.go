package checkout_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"bakeshop/pkg/checkout"
	"bakeshop/pkg/delivery"
)

type totalsTestContext struct {
	subtotal decimal.Decimal
	city     string
	zip      string
	totals   checkout.Totals
}

func (c *totalsTestContext) reset() {
	*c = totalsTestContext{subtotal: decimal.Zero}
}

func (c *totalsTestContext) theCustomerEntersCityAndZIP(city, zip string) error {
	c.city = city
	c.zip = zip
	return nil
}

func (c *totalsTestContext) theDeliveryFeeIs(fee string) error {
	got := delivery.Fee(c.city, c.zip).StringFixed(2)
	if got != fee {
		return fmt.Errorf("expected delivery fee %s for %q, got %s", fee, c.city, got)
	}
	return nil
}

func (c *totalsTestContext) aSubtotalOf(amount string) error {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	c.subtotal = d
	return nil
}

func (c *totalsTestContext) totalsAreComputedInMode(mode string) error {
	m, err := checkout.ParseMode(mode)
	if err != nil {
		return err
	}
	c.totals, err = checkout.Compute(m, c.subtotal, c.city, c.zip)
	return err
}

func compare(field string, got decimal.Decimal, want string) error {
	if got.StringFixed(2) != want {
		return fmt.Errorf("expected %s %s, got %s", field, want, got.StringFixed(2))
	}
	return nil
}

func (c *totalsTestContext) theTaxIs(want string) error { return compare("tax", c.totals.Tax, want) }

func (c *totalsTestContext) theShippingIs(want string) error {
	return compare("shipping", c.totals.Shipping, want)
}

func (c *totalsTestContext) theTotalIs(want string) error {
	return compare("total", c.totals.Total, want)
}

func (c *totalsTestContext) aTotalOf(amount string) error {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	c.totals = checkout.Totals{Total: d}
	return nil
}

func (c *totalsTestContext) theCardAmountIsCents(cents int64) error {
	if got := c.totals.MinorUnits(); got != cents {
		return fmt.Errorf("expected %d cents, got %d", cents, got)
	}
	return nil
}

func initializeScenario(ctx *godog.ScenarioContext) {
	tc := &totalsTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^the customer enters city "([^"]*)" and ZIP "([^"]*)"$`, tc.theCustomerEntersCityAndZIP)
	ctx.Step(`^the delivery fee is "([^"]*)"$`, tc.theDeliveryFeeIs)
	ctx.Step(`^a subtotal of "([^"]*)"$`, tc.aSubtotalOf)
	ctx.Step(`^totals are computed in "([^"]*)" mode$`, tc.totalsAreComputedInMode)
	ctx.Step(`^the tax is "([^"]*)"$`, tc.theTaxIs)
	ctx.Step(`^the shipping is "([^"]*)"$`, tc.theShippingIs)
	ctx.Step(`^the total is "([^"]*)"$`, tc.theTotalIs)
	ctx.Step(`^a total of "([^"]*)"$`, tc.aTotalOf)
	ctx.Step(`^the card amount is (\d+) cents$`, tc.theCardAmountIsCents)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/totals.feature"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
