package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordIDAcceptsStringOrNumber(t *testing.T) {
	var payload struct {
		A RecordID `json:"a"`
		B RecordID `json:"b"`
		C RecordID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"abc","b":42,"c":null}`), &payload))
	assert.Equal(t, RecordID("abc"), payload.A)
	assert.Equal(t, RecordID("42"), payload.B)
	assert.True(t, payload.C.IsZero())
}

func TestQuantityWireFormat(t *testing.T) {
	var items []OrderProduct
	require.NoError(t, json.Unmarshal([]byte(`[{"productName":"a","quantity":"3"},{"productName":"b","quantity":2},{"productName":"c","quantity":"x"}]`), &items))
	require.Len(t, items, 3)
	assert.Equal(t, Quantity(3), items[0].Quantity)
	assert.Equal(t, Quantity(2), items[1].Quantity)
	assert.Equal(t, Quantity(0), items[2].Quantity)

	out, err := json.Marshal(OrderProduct{ProductName: "a", Quantity: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"productName":"a","quantity":"5"}`, string(out))
}

func TestQuantityDropsFraction(t *testing.T) {
	var items []OrderProduct
	require.NoError(t, json.Unmarshal([]byte(`[{"quantity":2.0},{"quantity":"2.0"},{"quantity":3.7},{"quantity":1e1},{"quantity":true}]`), &items))
	require.Len(t, items, 5)
	assert.Equal(t, Quantity(2), items[0].Quantity)
	assert.Equal(t, Quantity(2), items[1].Quantity)
	assert.Equal(t, Quantity(3), items[2].Quantity)
	assert.Equal(t, Quantity(10), items[3].Quantity)
	assert.Equal(t, Quantity(0), items[4].Quantity)
}

func TestFormatDate(t *testing.T) {
	cases := map[string]string{
		"2024-03-05T10:00:00.000Z":  "2024-03-05",
		"2024-03-05T23:30:00-05:00": "2024-03-06",
		"2024-03-05":                "2024-03-05",
		"not a date":                "not a date",
	}
	for in, want := range cases {
		if got := FormatDate(in); got != want {
			t.Fatalf("FormatDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProductSummary(t *testing.T) {
	assert.Equal(t, "N/A", ProductSummary(nil))
	got := ProductSummary([]OrderProduct{
		{ProductName: "Widget A", Quantity: 2},
		{ProductName: "Widget B", Quantity: 1},
	})
	assert.Equal(t, "Widget A (Quantity: 2), Widget B (Quantity: 1)", got)
}

func TestProductDefaults(t *testing.T) {
	p := Product{}
	p.ApplyDefaults()
	assert.Equal(t, "Active", p.Status.String())
	assert.Equal(t, "No", p.DiscountAllowed.String())

	p = Product{Status: "Inactive", DiscountAllowed: "Yes"}
	p.ApplyDefaults()
	assert.Equal(t, "Inactive", p.Status.String())
	assert.Equal(t, "Yes", p.DiscountAllowed.String())
}
