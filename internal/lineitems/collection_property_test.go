package lineitems

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/angelmondragon/orderdesk/pkg/models"
)

var catalog = []models.Product{
	{ProductID: "P-1", ProductName: "Widget A"},
	{ProductID: "P-2", ProductName: "Widget B"},
	{ProductName: "Widget A"},
	{ProductName: "Loose Bolt"},
	{ProductID: "P-3", ProductName: "Widget A"},
}

func TestAddOrMergeAtMostOneEntryPerKey(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("at most one entry per product key", prop.ForAll(
		func(picks []int) bool {
			c := Empty()
			distinct := map[string]struct{}{}
			for _, i := range picks {
				p := catalog[i]
				distinct[KeyFor(p)] = struct{}{}
				c = c.AddOrMerge(p)
			}
			seen := map[string]struct{}{}
			for _, item := range c.Items() {
				if _, dup := seen[item.Key]; dup {
					return false
				}
				if item.Quantity <= 0 {
					return false
				}
				seen[item.Key] = struct{}{}
			}
			return len(seen) == len(distinct)
		},
		gen.SliceOf(gen.IntRange(0, len(catalog)-1)),
	))

	properties.Property("rejected quantity text never changes the stored quantity", prop.ForAll(
		func(n int, junk string) bool {
			c := Empty().AddOrMerge(catalog[0])
			c, err := c.UpdateQuantity("P-1", fmt.Sprint(n))
			if err != nil {
				return false
			}
			for _, raw := range []string{junk + "x", fmt.Sprint(-n), "0"} {
				next, err := c.UpdateQuantity("P-1", raw)
				if err == nil {
					return false
				}
				if item, _ := next.Get("P-1"); item.Quantity != n {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 1000),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
