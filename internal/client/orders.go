package client

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"

	"github.com/fivetwenty-io/brightpearl/internal/constants"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

// OrdersClient implements brightpearl.OrdersClient.
type OrdersClient struct {
	*searcher

	requester brightpearl.Requester
}

// NewOrdersClient creates a new orders client.
func NewOrdersClient(requester brightpearl.Requester) *OrdersClient {
	return &OrdersClient{
		searcher: newSearcher(requester, SearchSpec{
			Path:    constants.APIPathOrderSearch,
			SortKey: constants.QueryOrderBy,
		}),
		requester: requester,
	}
}

// Get implements brightpearl.OrdersClient.Get.
func (c *OrdersClient) Get(ctx context.Context, orderID string) (brightpearl.Payload, error) {
	path, err := orderPath(orderID)
	if err != nil {
		return nil, err
	}

	payload, err := c.requester.Request(ctx, nethttp.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("getting order %s: %w", orderID, err)
	}

	return payload, nil
}

// GetBulk implements brightpearl.OrdersClient.GetBulk.
func (c *OrdersClient) GetBulk(ctx context.Context, orderIDs []string) (brightpearl.Payload, error) {
	if len(orderIDs) == 0 {
		return nil, fmt.Errorf("getting orders: %w", brightpearl.ErrIDRequired)
	}

	params := brightpearl.Params{"orderId": orderIDs}

	payload, err := c.requester.Request(ctx, nethttp.MethodGet, constants.APIPathOrders, params, nil)
	if err != nil {
		return nil, fmt.Errorf("getting orders: %w", err)
	}

	return payload, nil
}

// Create implements brightpearl.OrdersClient.Create.
func (c *OrdersClient) Create(ctx context.Context, order any) (brightpearl.Payload, error) {
	payload, err := c.requester.Request(ctx, nethttp.MethodPost, constants.APIPathOrders, nil, order)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}

	return payload, nil
}

// Patch implements brightpearl.OrdersClient.Patch.
func (c *OrdersClient) Patch(ctx context.Context, orderID string, patch any) (brightpearl.Payload, error) {
	path, err := orderPath(orderID)
	if err != nil {
		return nil, err
	}

	payload, err := c.requester.Request(ctx, nethttp.MethodPatch, path, nil, patch)
	if err != nil {
		return nil, fmt.Errorf("patching order %s: %w", orderID, err)
	}

	return payload, nil
}

// Replace implements brightpearl.OrdersClient.Replace.
func (c *OrdersClient) Replace(ctx context.Context, orderID string, order any) (brightpearl.Payload, error) {
	path, err := orderPath(orderID)
	if err != nil {
		return nil, err
	}

	payload, err := c.requester.Request(ctx, nethttp.MethodPut, path, nil, order)
	if err != nil {
		return nil, fmt.Errorf("replacing order %s: %w", orderID, err)
	}

	return payload, nil
}

// AddNote implements brightpearl.OrdersClient.AddNote.
func (c *OrdersClient) AddNote(ctx context.Context, orderID string, note *brightpearl.OrderNote) (brightpearl.Payload, error) {
	if note == nil {
		return nil, fmt.Errorf("adding note to order %s: %w", orderID, brightpearl.ErrNoteRequired)
	}

	path, err := orderPath(orderID)
	if err != nil {
		return nil, err
	}

	payload, err := c.requester.Request(ctx, nethttp.MethodPost, path+"/note", nil, note)
	if err != nil {
		return nil, fmt.Errorf("adding note to order %s: %w", orderID, err)
	}

	return payload, nil
}

// ListNotes implements brightpearl.OrdersClient.ListNotes.
func (c *OrdersClient) ListNotes(ctx context.Context, orderID string) (brightpearl.Payload, error) {
	path, err := orderPath(orderID)
	if err != nil {
		return nil, err
	}

	payload, err := c.requester.Request(ctx, nethttp.MethodGet, path+"/note", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("listing notes for order %s: %w", orderID, err)
	}

	return payload, nil
}

// UpdateStatus implements brightpearl.OrdersClient.UpdateStatus.
func (c *OrdersClient) UpdateStatus(ctx context.Context, orderID string, statusID int) (brightpearl.Payload, error) {
	return c.Patch(ctx, orderID, map[string]int{"statusId": statusID})
}

func orderPath(orderID string) (string, error) {
	if orderID == "" {
		return "", fmt.Errorf("order: %w", brightpearl.ErrIDRequired)
	}

	return constants.APIPathOrders + "/" + url.PathEscape(orderID), nil
}
