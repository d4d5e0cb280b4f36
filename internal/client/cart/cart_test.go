package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evermart/storefront/internal/client/storage"
	"github.com/evermart/storefront/internal/models"
)

// fakeRemote implements Remote with per-method func fields.
type fakeRemote struct {
	GetFunc    func(ctx context.Context, path string, out any) error
	PostFunc   func(ctx context.Context, path string, body, out any) error
	PutFunc    func(ctx context.Context, path string, body, out any) error
	DeleteFunc func(ctx context.Context, path string, out any) error
}

func (f *fakeRemote) Get(ctx context.Context, path string, out any) error {
	if f.GetFunc == nil {
		return nil
	}
	return f.GetFunc(ctx, path, out)
}

func (f *fakeRemote) Post(ctx context.Context, path string, body, out any) error {
	if f.PostFunc == nil {
		return nil
	}
	return f.PostFunc(ctx, path, body, out)
}

func (f *fakeRemote) Put(ctx context.Context, path string, body, out any) error {
	if f.PutFunc == nil {
		return nil
	}
	return f.PutFunc(ctx, path, body, out)
}

func (f *fakeRemote) Delete(ctx context.Context, path string, out any) error {
	if f.DeleteFunc == nil {
		return nil
	}
	return f.DeleteFunc(ctx, path, out)
}

// countingNotifier records how many signals of each kind fired.
type countingNotifier struct {
	successes []string
	failures  []string
}

func (n *countingNotifier) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *countingNotifier) Failure(msg string) { n.failures = append(n.failures, msg) }

func newTestEngine(t *testing.T, remote Remote, authed bool) (*Engine, *countingNotifier) {
	t.Helper()
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	notify := &countingNotifier{}
	e := New(remote, store, func() bool { return authed }, notify, nil)
	return e, notify
}

var (
	testProduct = models.Product{
		ID:     "p1",
		Name:   "Canvas Sneaker",
		Images: []string{"https://img.example/p1.jpg"},
	}
	testVariant = models.Variant{VariantID: "v1", Color: "white", Size: "42", Price: 60, Stock: 9}
)

func TestAddItem_Guest(t *testing.T) {
	e, notify := newTestEngine(t, &fakeRemote{}, false)

	require.NoError(t, e.AddItem(context.Background(), testProduct, testVariant, 2))

	items := e.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, "v1", items[0].VariantID)
	assert.Equal(t, "Canvas Sneaker", items[0].ProductName)
	assert.Equal(t, "https://img.example/p1.jpg", items[0].ProductImage)
	assert.Equal(t, 2, items[0].Quantity)
	assert.NotEmpty(t, items[0].ItemID)
	assert.Equal(t, []string{"Added to cart"}, notify.successes)
}

func TestAddItem_SamePairCoalesces(t *testing.T) {
	e, _ := newTestEngine(t, &fakeRemote{}, false)
	ctx := context.Background()

	require.NoError(t, e.AddItem(ctx, testProduct, testVariant, 2))
	require.NoError(t, e.AddItem(ctx, testProduct, testVariant, 3))

	items := e.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestAddItem_DistinctVariantsStaySeparate(t *testing.T) {
	e, _ := newTestEngine(t, &fakeRemote{}, false)
	ctx := context.Background()

	other := models.Variant{VariantID: "v2", Color: "black", Size: "42", Price: 65}
	require.NoError(t, e.AddItem(ctx, testProduct, testVariant, 1))
	require.NoError(t, e.AddItem(ctx, testProduct, other, 1))

	items := e.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "v1", items[0].VariantID)
	assert.Equal(t, "v2", items[1].VariantID)
}

func TestAddItem_RemoteFailureRollsBack(t *testing.T) {
	remote := &fakeRemote{
		PostFunc: func(ctx context.Context, path string, body, out any) error {
			return errors.New("stock check failed")
		},
	}
	e, notify := newTestEngine(t, remote, true)

	var transitions []MutationState
	e.TransitionHook = func(m Mutation) { transitions = append(transitions, m.State) }

	err := e.AddItem(context.Background(), testProduct, testVariant, 1)

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, OpAdd, syncErr.Op)
	assert.Empty(t, e.Items(), "optimistic item must be removed after rejection")
	assert.Len(t, notify.failures, 1, "exactly one failure signal")
	assert.Empty(t, notify.successes)
	assert.Equal(t, []MutationState{MutationApplied, MutationRolledBack}, transitions)
}

func TestAddItem_RemoteSuccessResyncs(t *testing.T) {
	serverItems := []models.CartEntry{{
		ItemID:   "srv-1",
		Product:  testProduct,
		Variant:  testVariant,
		Quantity: 1,
	}}
	var posted, fetched bool
	remote := &fakeRemote{
		PostFunc: func(ctx context.Context, path string, body, out any) error {
			posted = true
			assert.Equal(t, "/cart/add", path)
			return nil
		},
		GetFunc: func(ctx context.Context, path string, out any) error {
			fetched = true
			resp := out.(*struct {
				Cart models.CartPayload `json:"cart"`
			})
			resp.Cart.Items = serverItems
			return nil
		},
	}
	e, _ := newTestEngine(t, remote, true)

	require.NoError(t, e.AddItem(context.Background(), testProduct, testVariant, 1))

	assert.True(t, posted)
	assert.True(t, fetched, "confirmed add must trigger resync")
	items := e.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "srv-1", items[0].ItemID, "server-assigned identity adopted")
}

func TestUpdateQuantity_ZeroRemoves(t *testing.T) {
	e, _ := newTestEngine(t, &fakeRemote{}, false)
	ctx := context.Background()

	require.NoError(t, e.AddItem(ctx, testProduct, testVariant, 2))
	id := e.Items()[0].ItemID

	require.NoError(t, e.UpdateQuantity(ctx, id, 0))
	assert.Empty(t, e.Items())
}

func TestUpdateQuantity_Guest(t *testing.T) {
	e, _ := newTestEngine(t, &fakeRemote{}, false)
	ctx := context.Background()

	require.NoError(t, e.AddItem(ctx, testProduct, testVariant, 1))
	id := e.Items()[0].ItemID

	require.NoError(t, e.UpdateQuantity(ctx, id, 4))
	assert.Equal(t, 4, e.Items()[0].Quantity)
}

func TestUpdateQuantity_UnknownItem(t *testing.T) {
	e, _ := newTestEngine(t, &fakeRemote{}, false)
	err := e.UpdateQuantity(context.Background(), "missing", 3)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestUpdateQuantity_RemoteFailureResyncs(t *testing.T) {
	serverItems := []models.CartEntry{{
		ItemID:   "srv-1",
		Product:  testProduct,
		Variant:  testVariant,
		Quantity: 7,
	}}
	remote := &fakeRemote{
		PutFunc: func(ctx context.Context, path string, body, out any) error {
			return errors.New("rejected")
		},
		GetFunc: func(ctx context.Context, path string, out any) error {
			resp := out.(*struct {
				Cart models.CartPayload `json:"cart"`
			})
			resp.Cart.Items = serverItems
			return nil
		},
	}
	e, notify := newTestEngine(t, remote, true)
	e.items = []LineItem{{ItemID: "srv-1", ProductID: "p1", VariantID: "v1", UnitPrice: 60, Quantity: 7}}

	err := e.UpdateQuantity(context.Background(), "srv-1", 2)

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, OpUpdate, syncErr.Op)
	// Failed update discards the optimistic value via full resync, not a
	// local rollback.
	require.Len(t, e.Items(), 1)
	assert.Equal(t, 7, e.Items()[0].Quantity)
	assert.Len(t, notify.failures, 1)
}

func TestRemoveItem_RemoteFailureRestoresAtPriorPosition(t *testing.T) {
	remote := &fakeRemote{
		DeleteFunc: func(ctx context.Context, path string, out any) error {
			return errors.New("rejected")
		},
	}
	e, notify := newTestEngine(t, remote, true)
	e.items = []LineItem{
		{ItemID: "a", ProductID: "p1", VariantID: "v1", Quantity: 1},
		{ItemID: "b", ProductID: "p2", VariantID: "v2", Quantity: 3},
		{ItemID: "c", ProductID: "p3", VariantID: "v3", Quantity: 2},
	}

	var transitions []MutationState
	e.TransitionHook = func(m Mutation) { transitions = append(transitions, m.State) }

	err := e.RemoveItem(context.Background(), "b")

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	items := e.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "b", items[1].ItemID, "restored at prior position")
	assert.Equal(t, 3, items[1].Quantity, "restored at prior quantity")
	assert.Len(t, notify.failures, 1)
	assert.Equal(t, []MutationState{MutationApplied, MutationRolledBack}, transitions)
}

func TestRemoveItem_Guest(t *testing.T) {
	e, notify := newTestEngine(t, &fakeRemote{}, false)
	ctx := context.Background()

	require.NoError(t, e.AddItem(ctx, testProduct, testVariant, 1))
	id := e.Items()[0].ItemID

	require.NoError(t, e.RemoveItem(ctx, id))
	assert.Empty(t, e.Items())
	assert.Contains(t, notify.successes, "Removed from cart")
}

func TestClearCart_RemoteFailureTriggersResync(t *testing.T) {
	serverItems := []models.CartEntry{{
		ItemID:   "srv-1",
		Product:  testProduct,
		Variant:  testVariant,
		Quantity: 1,
	}}
	var fetched bool
	remote := &fakeRemote{
		DeleteFunc: func(ctx context.Context, path string, out any) error {
			return errors.New("rejected")
		},
		GetFunc: func(ctx context.Context, path string, out any) error {
			fetched = true
			resp := out.(*struct {
				Cart models.CartPayload `json:"cart"`
			})
			resp.Cart.Items = serverItems
			return nil
		},
	}
	e, _ := newTestEngine(t, remote, true)
	e.items = []LineItem{{ItemID: "srv-1", Quantity: 1}}

	err := e.ClearCart(context.Background())

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.True(t, fetched)
	// Best-effort: local state follows remote truth, not the pre-clear list.
	require.Len(t, e.Items(), 1)
	assert.Equal(t, "srv-1", e.Items()[0].ItemID)
}

func TestClearCart_Guest(t *testing.T) {
	e, _ := newTestEngine(t, &fakeRemote{}, false)
	ctx := context.Background()

	require.NoError(t, e.AddItem(ctx, testProduct, testVariant, 1))
	require.NoError(t, e.ClearCart(ctx))
	assert.Empty(t, e.Items())
}

func TestSyncCart_NoSessionIsNoop(t *testing.T) {
	called := false
	remote := &fakeRemote{
		GetFunc: func(ctx context.Context, path string, out any) error {
			called = true
			return nil
		},
	}
	e, _ := newTestEngine(t, remote, false)
	e.items = []LineItem{{ItemID: "local", Quantity: 1}}

	require.NoError(t, e.SyncCart(context.Background()))
	assert.False(t, called, "no remote call without a session")
	assert.Len(t, e.Items(), 1, "guest cart untouched")
}

func TestSyncCart_ReplacesLocalStateWholesale(t *testing.T) {
	serverItems := []models.CartEntry{{
		ItemID:   "srv-9",
		Product:  testProduct,
		Variant:  testVariant,
		Quantity: 4,
	}}
	remote := &fakeRemote{
		GetFunc: func(ctx context.Context, path string, out any) error {
			resp := out.(*struct {
				Cart models.CartPayload `json:"cart"`
			})
			resp.Cart.Items = serverItems
			return nil
		},
	}
	e, _ := newTestEngine(t, remote, true)
	// A guest-only item not present remotely must be discarded by the
	// post-sign-in sync.
	e.items = []LineItem{{ItemID: "guest-only", ProductID: "px", VariantID: "vx", Quantity: 1}}

	require.NoError(t, e.SyncCart(context.Background()))

	items := e.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "srv-9", items[0].ItemID)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, float64(60), items[0].UnitPrice)
	assert.Equal(t, 4, items[0].Quantity)
}

func TestValidateCart_NoSession(t *testing.T) {
	called := false
	remote := &fakeRemote{
		PostFunc: func(ctx context.Context, path string, body, out any) error {
			called = true
			return nil
		},
	}
	e, _ := newTestEngine(t, remote, false)

	verdict, err := e.ValidateCart(context.Background())
	require.NoError(t, err)
	assert.False(t, verdict.Valid)
	assert.Empty(t, verdict.Issues)
	assert.False(t, called, "no remote call without a session")
}

func TestValidateCart_InvalidTriggersResync(t *testing.T) {
	var fetched bool
	remote := &fakeRemote{
		PostFunc: func(ctx context.Context, path string, body, out any) error {
			verdict := out.(*models.ValidationResult)
			verdict.Valid = false
			verdict.Issues = []models.ValidationIssue{{Type: models.IssueStockReduced, ItemID: "srv-1"}}
			return nil
		},
		GetFunc: func(ctx context.Context, path string, out any) error {
			fetched = true
			return nil
		},
	}
	e, _ := newTestEngine(t, remote, true)

	verdict, err := e.ValidateCart(context.Background())
	require.NoError(t, err)
	assert.False(t, verdict.Valid)
	require.Len(t, verdict.Issues, 1)
	assert.Equal(t, models.IssueStockReduced, verdict.Issues[0].Type)
	assert.True(t, fetched, "invalid verdict must force a resync")
}

func TestValidateCart_ValidSkipsResync(t *testing.T) {
	var fetched bool
	remote := &fakeRemote{
		PostFunc: func(ctx context.Context, path string, body, out any) error {
			verdict := out.(*models.ValidationResult)
			verdict.Valid = true
			return nil
		},
		GetFunc: func(ctx context.Context, path string, out any) error {
			fetched = true
			return nil
		},
	}
	e, _ := newTestEngine(t, remote, true)

	verdict, err := e.ValidateCart(context.Background())
	require.NoError(t, err)
	assert.True(t, verdict.Valid)
	assert.False(t, fetched)
}

func TestInitCart_RestoresPersistedGuestState(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.New(dir)
	require.NoError(t, err)

	first := New(&fakeRemote{}, store, func() bool { return false }, nil, nil)
	require.NoError(t, first.AddItem(context.Background(), testProduct, testVariant, 2))

	second := New(&fakeRemote{}, store, func() bool { return false }, nil, nil)
	require.NoError(t, second.InitCart(context.Background()))

	items := second.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestInitCart_SyncFailureKeepsLocalItems(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.New(dir)
	require.NoError(t, err)

	guest := New(&fakeRemote{}, store, func() bool { return false }, nil, nil)
	require.NoError(t, guest.AddItem(context.Background(), testProduct, testVariant, 2))

	remote := &fakeRemote{
		GetFunc: func(ctx context.Context, path string, out any) error {
			return errors.New("connection refused")
		},
	}
	e := New(remote, store, func() bool { return true }, nil, nil)

	// An unreachable backend at startup must not cost the restored items.
	require.NoError(t, e.InitCart(context.Background()))

	items := e.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestInitCart_WithSessionSyncs(t *testing.T) {
	var fetched bool
	remote := &fakeRemote{
		GetFunc: func(ctx context.Context, path string, out any) error {
			fetched = true
			return nil
		},
	}
	e, _ := newTestEngine(t, remote, true)

	require.NoError(t, e.InitCart(context.Background()))
	assert.True(t, fetched)
}

func TestMutationSequences_GuestConfirmImmediately(t *testing.T) {
	e, _ := newTestEngine(t, &fakeRemote{}, false)

	var transitions []Mutation
	e.TransitionHook = func(m Mutation) { transitions = append(transitions, m) }

	require.NoError(t, e.AddItem(context.Background(), testProduct, testVariant, 1))

	require.Len(t, transitions, 2)
	assert.Equal(t, OpAdd, transitions[0].Op)
	assert.Equal(t, MutationApplied, transitions[0].State)
	assert.Equal(t, MutationConfirmed, transitions[1].State)
}

func TestItemCountInvariant_GuestSequences(t *testing.T) {
	e, _ := newTestEngine(t, &fakeRemote{}, false)
	ctx := context.Background()

	shirt := models.Product{ID: "p2", Name: "Shirt", Images: []string{"i"}}
	shirtV := models.Variant{VariantID: "v9", Price: 20}

	require.NoError(t, e.AddItem(ctx, testProduct, testVariant, 2))
	require.NoError(t, e.AddItem(ctx, shirt, shirtV, 1))
	require.NoError(t, e.AddItem(ctx, testProduct, testVariant, 3))
	id := e.Items()[1].ItemID
	require.NoError(t, e.UpdateQuantity(ctx, id, 4))
	require.NoError(t, e.RemoveItem(ctx, e.Items()[0].ItemID))

	want := 0
	seen := map[string]bool{}
	for _, item := range e.Items() {
		want += item.Quantity
		key := item.ProductID + "/" + item.VariantID
		assert.False(t, seen[key], "duplicate (product, variant) pair %s", key)
		seen[key] = true
	}
	assert.Equal(t, want, e.Totals().ItemCount)
}
