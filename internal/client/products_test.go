package client_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/fivetwenty-io/brightpearl/internal/client"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

func TestProductsClient_CRUD(t *testing.T) {
	t.Parallel()

	server := NewTestServer(t)
	products := NewTestClient(server.URL).Products()
	ctx := context.Background()

	_, err := products.Get(ctx, "55")
	require.NoError(t, err)
	assert.Equal(t, "/public-api/acme/product-service/product/55", server.LastRequest().Path)

	_, err = products.GetBulk(ctx, []string{"55", "56"})
	require.NoError(t, err)
	assert.Equal(t, "/public-api/acme/product-service/product", server.LastRequest().Path)
	assert.Equal(t, "55,56", server.LastRequest().Query.Get("productId"))

	_, err = products.Create(ctx, map[string]string{"SKU": "SKU-1"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, server.LastRequest().Method)
	assert.JSONEq(t, `{"SKU":"SKU-1"}`, string(server.LastRequest().Body))

	_, err = products.Patch(ctx, "55", map[string]string{"productName": "Widget"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, server.LastRequest().Method)

	_, err = products.Replace(ctx, "55", map[string]string{"productName": "Widget"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, server.LastRequest().Method)
	assert.Equal(t, "/public-api/acme/product-service/product/55", server.LastRequest().Path)
}

func TestProductsClient_FindBySKU(t *testing.T) {
	t.Parallel()

	t.Run("match", func(t *testing.T) {
		t.Parallel()

		server := NewTestServer(t, TestResponse{
			Body: SearchPage([]string{"productId", "SKU", "productName"}, []interface{}{55, "SKU-1", "Widget"}),
		})
		products := NewTestClient(server.URL).Products()

		record, err := products.FindBySKU(context.Background(), "SKU-1")
		require.NoError(t, err)
		assert.Equal(t, brightpearl.Record{"productId": float64(55), "SKU": "SKU-1", "productName": "Widget"}, record)

		request := server.LastRequest()
		assert.Equal(t, http.MethodGet, request.Method)
		assert.Equal(t, "/public-api/acme/product-service/product-search", request.Path)
		assert.Equal(t, "productId,SKU,productName", request.Query.Get("columns"))
		assert.Equal(t, "1", request.Query.Get("pageSize"))
		assert.Equal(t, "1", request.Query.Get("page"))
		assert.Equal(t, "SKU-1", request.Query.Get("SKU"))
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()

		server := NewTestServer(t, TestResponse{Body: SearchPage([]string{"productId", "SKU", "productName"})})
		products := NewTestClient(server.URL).Products()

		record, err := products.FindBySKU(context.Background(), "missing")
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("empty SKU", func(t *testing.T) {
		t.Parallel()

		server := NewTestServer(t)
		products := NewTestClient(server.URL).Products()

		_, err := products.FindBySKU(context.Background(), "")
		require.ErrorIs(t, err, brightpearl.ErrSKURequired)
		assert.Empty(t, server.Requests())
	})
}

func TestProductsClient_GetAvailability(t *testing.T) {
	t.Parallel()

	server := NewTestServer(t, TestResponse{Body: map[string]interface{}{"response": map[string]interface{}{"55": map[string]interface{}{"total": map[string]interface{}{"onHand": 3}}}}})
	products := NewTestClient(server.URL).Products()

	warehouse := 2

	payload, err := products.GetAvailability(context.Background(), []string{"55", "56"}, &warehouse)
	require.NoError(t, err)
	assert.Contains(t, payload.Response(), "55")

	request := server.LastRequest()
	assert.Equal(t, "/public-api/acme/product-service/product-availability", request.Path)
	assert.Equal(t, "55,56", request.Query.Get("productId"))
	assert.Equal(t, "2", request.Query.Get("warehouseId"))

	_, err = products.GetAvailability(context.Background(), []string{"55"}, nil)
	require.NoError(t, err)
	assert.False(t, server.LastRequest().Query.Has("warehouseId"))

	_, err = products.GetAvailability(context.Background(), nil, nil)
	require.ErrorIs(t, err, brightpearl.ErrIDRequired)
}
