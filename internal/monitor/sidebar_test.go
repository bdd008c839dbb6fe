package monitor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSidebars(t *testing.T) {
	orders := model("model.shop.orders", "shop", "models/marts/orders.sql")
	orders.Owners = []string{"data-team"}
	orders.Tags = []string{"finance", "daily"}
	customers := model("model.shop.customers", "shop", "models/marts/customers.sql")
	raw := source("source.shop.raw.orders", "shop", "models/staging/sources.yml")
	raw.Tags = []string{"daily"}

	sidebars := BuildSidebars([]Artifact{&orders, &customers, &raw})

	marts, ok := sidebars.Dbt.Lookup("shop", "models", "marts")
	require.True(t, ok)
	assert.Equal(t, []string{"model.shop.customers", "model.shop.orders"}, marts.Files)

	staging, ok := sidebars.Dbt.Lookup("shop", "models", "staging")
	require.True(t, ok)
	assert.Equal(t, []string{"source.shop.raw.orders"}, staging.Files)

	team, ok := sidebars.Owners.Lookup("data-team")
	require.True(t, ok)
	assert.Equal(t, []string{"model.shop.orders"}, team.Files)

	unowned, ok := sidebars.Owners.Lookup("No owners")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"model.shop.customers", "source.shop.raw.orders"}, unowned.Files)

	daily, ok := sidebars.Tags.Lookup("daily")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"model.shop.orders", "source.shop.raw.orders"}, daily.Files)

	untagged, ok := sidebars.Tags.Lookup("No tags")
	require.True(t, ok)
	assert.Equal(t, []string{"model.shop.customers"}, untagged.Files)
}

func TestSidebarTree_MarshalJSON(t *testing.T) {
	tree := NewSidebarTree()
	tree.Child("shop").Child("models").Files = []string{"model.shop.a"}
	tree.Files = []string{"model.root"}

	data, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, `{"shop":{"models":{"__files__":["model.shop.a"]}},"__files__":["model.root"]}`, string(data))
}

func TestNewSidebars_EmptyJSON(t *testing.T) {
	data, err := json.Marshal(NewSidebars())
	require.NoError(t, err)
	assert.JSONEq(t, `{"dbt":{},"tags":{},"owners":{}}`, string(data))
}
