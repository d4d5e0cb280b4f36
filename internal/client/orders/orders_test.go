package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evermart/storefront/internal/models"
)

type fakeRemote struct {
	GetFunc  func(ctx context.Context, path string, out any) error
	PostFunc func(ctx context.Context, path string, body, out any) error
}

func (f *fakeRemote) Get(ctx context.Context, path string, out any) error {
	return f.GetFunc(ctx, path, out)
}

func (f *fakeRemote) Post(ctx context.Context, path string, body, out any) error {
	return f.PostFunc(ctx, path, body, out)
}

func TestPlace(t *testing.T) {
	remote := &fakeRemote{
		PostFunc: func(ctx context.Context, path string, body, out any) error {
			assert.Equal(t, "/orders", path)
			req := body.(PlaceRequest)
			require.Len(t, req.Items, 1)
			resp := out.(*struct {
				Order models.Order `json:"order"`
			})
			resp.Order = models.Order{ID: "o1", Status: models.OrderPending, Total: 31.60}
			return nil
		},
	}
	c := New(remote)

	order, err := c.Place(context.Background(), PlaceRequest{
		Items:         []PlacedItem{{ProductID: "p1", VariantID: "v1", Quantity: 1}},
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, models.OrderPending, order.Status)
}

func TestPay(t *testing.T) {
	remote := &fakeRemote{
		PostFunc: func(ctx context.Context, path string, body, out any) error {
			assert.Equal(t, "/orders/o1/pay", path)
			resp := out.(*struct {
				Order models.Order `json:"order"`
			})
			resp.Order = models.Order{ID: "o1", Status: models.OrderPaid, TransactionID: "MOCK-1"}
			return nil
		},
	}
	c := New(remote)

	order, err := c.Pay(context.Background(), "o1", "MOCK-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, order.Status)
	assert.Equal(t, "MOCK-1", order.TransactionID)
}

func TestList_PageClampAndPath(t *testing.T) {
	var gotPath string
	remote := &fakeRemote{
		GetFunc: func(ctx context.Context, path string, out any) error {
			gotPath = path
			page := out.(*Page)
			page.Orders = []models.Order{{ID: "o1"}}
			page.Total = 1
			page.Pages = 1
			return nil
		},
	}
	c := New(remote)

	page, err := c.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "/orders/my-orders?page=1&limit=10", gotPath)
	require.Len(t, page.Orders, 1)
}

func TestCancel_Error(t *testing.T) {
	remote := &fakeRemote{
		PostFunc: func(ctx context.Context, path string, body, out any) error {
			return errors.New("already shipped")
		},
	}
	c := New(remote)

	_, err := c.Cancel(context.Background(), "o1")
	assert.ErrorContains(t, err, "cancel order o1")
}
