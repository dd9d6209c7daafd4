package client

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"slices"

	"github.com/fivetwenty-io/brightpearl/internal/constants"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

// skuLookupColumns is the projection used by FindBySKU.
var skuLookupColumns = []string{"productId", "SKU", "productName"}

// ProductsClient implements brightpearl.ProductsClient.
type ProductsClient struct {
	*searcher

	requester brightpearl.Requester
}

// NewProductsClient creates a new products client. A nil columns slice
// selects brightpearl.DefaultProductColumns for listings.
func NewProductsClient(requester brightpearl.Requester, columns []string) *ProductsClient {
	if columns == nil {
		columns = brightpearl.DefaultProductColumns()
	} else {
		columns = slices.Clone(columns)
	}

	return &ProductsClient{
		searcher: newSearcher(requester, SearchSpec{
			Path:           constants.APIPathProductSearch,
			SortKey:        constants.QuerySort,
			DefaultColumns: columns,
		}),
		requester: requester,
	}
}

// Get implements brightpearl.ProductsClient.Get.
func (c *ProductsClient) Get(ctx context.Context, productID string) (brightpearl.Payload, error) {
	path, err := productPath(productID)
	if err != nil {
		return nil, err
	}

	payload, err := c.requester.Request(ctx, nethttp.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("getting product %s: %w", productID, err)
	}

	return payload, nil
}

// GetBulk implements brightpearl.ProductsClient.GetBulk.
func (c *ProductsClient) GetBulk(ctx context.Context, productIDs []string) (brightpearl.Payload, error) {
	if len(productIDs) == 0 {
		return nil, fmt.Errorf("getting products: %w", brightpearl.ErrIDRequired)
	}

	params := brightpearl.Params{"productId": productIDs}

	payload, err := c.requester.Request(ctx, nethttp.MethodGet, constants.APIPathProducts, params, nil)
	if err != nil {
		return nil, fmt.Errorf("getting products: %w", err)
	}

	return payload, nil
}

// Create implements brightpearl.ProductsClient.Create.
func (c *ProductsClient) Create(ctx context.Context, product any) (brightpearl.Payload, error) {
	payload, err := c.requester.Request(ctx, nethttp.MethodPost, constants.APIPathProducts, nil, product)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	return payload, nil
}

// Patch implements brightpearl.ProductsClient.Patch.
func (c *ProductsClient) Patch(ctx context.Context, productID string, changes any) (brightpearl.Payload, error) {
	path, err := productPath(productID)
	if err != nil {
		return nil, err
	}

	payload, err := c.requester.Request(ctx, nethttp.MethodPatch, path, nil, changes)
	if err != nil {
		return nil, fmt.Errorf("patching product %s: %w", productID, err)
	}

	return payload, nil
}

// Replace implements brightpearl.ProductsClient.Replace.
func (c *ProductsClient) Replace(ctx context.Context, productID string, product any) (brightpearl.Payload, error) {
	path, err := productPath(productID)
	if err != nil {
		return nil, err
	}

	payload, err := c.requester.Request(ctx, nethttp.MethodPut, path, nil, product)
	if err != nil {
		return nil, fmt.Errorf("replacing product %s: %w", productID, err)
	}

	return payload, nil
}

// FindBySKU returns the first product whose SKU matches, or nil.
func (c *ProductsClient) FindBySKU(ctx context.Context, sku string) (brightpearl.Record, error) {
	if sku == "" {
		return nil, fmt.Errorf("finding product: %w", brightpearl.ErrSKURequired)
	}

	payload, err := c.Search(ctx, &brightpearl.SearchOptions{
		Columns:  skuLookupColumns,
		PageSize: 1,
		Page:     1,
		Filters:  brightpearl.Params{"SKU": sku},
	})
	if err != nil {
		return nil, fmt.Errorf("finding product by SKU %q: %w", sku, err)
	}

	records := c.normalizer.Normalize(payload)
	if len(records) == 0 {
		return nil, nil
	}

	return records[0], nil
}

// GetAvailability implements brightpearl.ProductsClient.GetAvailability.
func (c *ProductsClient) GetAvailability(ctx context.Context, productIDs []string, warehouseID *int) (brightpearl.Payload, error) {
	if len(productIDs) == 0 {
		return nil, fmt.Errorf("getting availability: %w", brightpearl.ErrIDRequired)
	}

	params := brightpearl.Params{"productId": productIDs}
	if warehouseID != nil {
		params["warehouseId"] = *warehouseID
	}

	payload, err := c.requester.Request(ctx, nethttp.MethodGet, constants.APIPathProductAvailability, params, nil)
	if err != nil {
		return nil, fmt.Errorf("getting availability: %w", err)
	}

	return payload, nil
}

func productPath(productID string) (string, error) {
	if productID == "" {
		return "", fmt.Errorf("product: %w", brightpearl.ErrIDRequired)
	}

	return constants.APIPathProducts + "/" + url.PathEscape(productID), nil
}
