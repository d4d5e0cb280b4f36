// Package cart implements the client-side cart engine: an insertion-ordered
// collection of line items with optimistic local mutation, durable local
// persistence, and reconciliation against the remote cart resource when a
// session exists.
package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evermart/storefront/internal/client/api"
	"github.com/evermart/storefront/internal/client/storage"
	"github.com/evermart/storefront/internal/models"
)

// ErrItemNotFound is returned when an operation references an unknown item.
var ErrItemNotFound = errors.New("cart item not found")

// SyncError reports a remote cart mutation that was rejected. The local
// compensating action (rollback or resync) has already run when callers
// see it.
type SyncError struct {
	// Op is the operation whose remote call failed.
	Op Op
	// Err is the underlying transport or status error.
	Err error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("cart %s rejected: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// LineItem is one cart entry: a (product, variant) reference, a positive
// quantity, and a snapshot of display fields captured at add time.
type LineItem struct {
	// ItemID is the stable identity of the entry. Locally created items
	// carry a temporary ID until a resync adopts the server-assigned one.
	ItemID string `json:"itemId"`
	// ProductID and VariantID reference the purchased variation.
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	// ProductName, ProductImage, Color, Size and UnitPrice are the
	// display snapshot captured when the item was added.
	ProductName  string  `json:"productName"`
	ProductImage string  `json:"productImage"`
	Color        string  `json:"color"`
	Size         string  `json:"size"`
	UnitPrice    float64 `json:"price"`
	// Quantity is always at least 1; updates to zero remove the item.
	Quantity int `json:"quantity"`
}

// Remote defines the API calls the engine needs.
type Remote interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Notifier receives the user-facing transient signals the engine raises.
type Notifier interface {
	// Success reports a completed cart action.
	Success(msg string)
	// Failure reports a rejected remote mutation, exactly once per failure.
	Failure(msg string)
}

// record is the persisted cart blob.
type record struct {
	Items []LineItem `json:"items"`
}

// Engine owns the line-item collection. Mutations apply optimistically to
// local state; when a session exists the matching remote call follows, and
// failures trigger the per-operation compensating action. Overlapping
// mutations are not serialized against each other: the last remote call to
// complete determines the state after its resync.
type Engine struct {
	mu    sync.Mutex
	items []LineItem

	// authed is the injected read-only session query; the engine never
	// imports the session package.
	authed func() bool

	remote Remote
	store  *storage.Store
	notify Notifier
	log    *zap.Logger

	// TransitionHook, when set, observes every mutation state change.
	TransitionHook func(Mutation)
}

// New constructs an Engine. authed reports whether a session exists;
// notify may be nil when no user-facing signals are wanted.
func New(remote Remote, store *storage.Store, authed func() bool, notify Notifier, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		remote: remote,
		store:  store,
		authed: authed,
		notify: notify,
		log:    log,
	}
}

// InitCart restores the persisted cart record and, if a session already
// exists, replaces it with the authoritative remote state. Called once at
// startup. A failed startup sync is transient, not fatal: the restored
// local items stay in place and the next sync reconciles them.
func (e *Engine) InitCart(ctx context.Context) error {
	var rec record
	if err := e.store.Load(storage.CartRecord, &rec); err != nil {
		return err
	}

	e.mu.Lock()
	e.items = rec.Items
	e.mu.Unlock()

	if e.authed() {
		if err := e.SyncCart(ctx); err != nil {
			e.log.Warn("startup cart sync failed, keeping local items", zap.Error(err))
		}
	}
	return nil
}

// Items returns a copy of the current line items in insertion order.
func (e *Engine) Items() []LineItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.items)
}

// AddItem appends a line item for the given product variant. If an item
// for the same (product, variant) pair exists, the quantities are summed
// via UpdateQuantity instead of duplicating the pair. With a session, the
// remote add is followed by a full resync so the server-assigned identity
// and any server-side coalescing or re-pricing take effect; a rejected add
// drops the optimistic item.
func (e *Engine) AddItem(ctx context.Context, product models.Product, variant models.Variant, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	e.mu.Lock()
	for _, item := range e.items {
		if item.ProductID == product.ID && item.VariantID == variant.VariantID {
			id, qty := item.ItemID, item.Quantity+quantity
			e.mu.Unlock()
			return e.UpdateQuantity(ctx, id, qty)
		}
	}

	item := LineItem{
		ItemID:      uuid.NewString(),
		ProductID:   product.ID,
		VariantID:   variant.VariantID,
		ProductName: product.Name,
		Color:       variant.Color,
		Size:        variant.Size,
		UnitPrice:   variant.Price,
		Quantity:    quantity,
	}
	if len(product.Images) > 0 {
		item.ProductImage = product.Images[0]
	}

	m := &Mutation{Op: OpAdd, ItemID: item.ItemID, State: MutationIdle}
	e.items = append(e.items, item)
	e.persistLocked()
	e.mu.Unlock()
	e.transition(m, MutationApplied)

	if !e.authed() {
		e.transition(m, MutationConfirmed)
		e.success("Added to cart")
		return nil
	}

	req := struct {
		ProductID string `json:"productId"`
		VariantID string `json:"variantId"`
		Quantity  int    `json:"quantity"`
	}{ProductID: product.ID, VariantID: variant.VariantID, Quantity: quantity}

	if err := e.remote.Post(ctx, "/cart/add", req, nil); err != nil {
		e.mu.Lock()
		e.items = slices.DeleteFunc(e.items, func(it LineItem) bool {
			return it.ItemID == item.ItemID
		})
		e.persistLocked()
		e.mu.Unlock()
		e.transition(m, MutationRolledBack)
		e.failure(failureMessage(err, "Failed to add to cart"))
		return &SyncError{Op: OpAdd, Err: err}
	}

	if err := e.SyncCart(ctx); err != nil {
		e.log.Warn("post-add resync failed", zap.Error(err))
	}
	e.transition(m, MutationConfirmed)
	e.success("Added to cart")
	return nil
}

// UpdateQuantity sets a line item's quantity. A quantity of zero or below
// removes the item instead; a non-positive quantity is never stored. With
// a session, a rejected remote update triggers a full resync rather than a
// simple rollback, since intervening remote state may have changed.
func (e *Engine) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity <= 0 {
		return e.RemoveItem(ctx, itemID)
	}

	e.mu.Lock()
	idx := slices.IndexFunc(e.items, func(it LineItem) bool { return it.ItemID == itemID })
	if idx < 0 {
		e.mu.Unlock()
		return ErrItemNotFound
	}
	m := &Mutation{Op: OpUpdate, ItemID: itemID, State: MutationIdle}
	e.items[idx].Quantity = quantity
	e.persistLocked()
	e.mu.Unlock()
	e.transition(m, MutationApplied)

	if !e.authed() {
		e.transition(m, MutationConfirmed)
		return nil
	}

	req := struct {
		Quantity int `json:"quantity"`
	}{Quantity: quantity}

	if err := e.remote.Put(ctx, "/cart/items/"+itemID, req, nil); err != nil {
		if syncErr := e.SyncCart(ctx); syncErr != nil {
			e.log.Warn("post-failure resync failed", zap.Error(syncErr))
		}
		e.transition(m, MutationRolledBack)
		e.failure(failureMessage(err, "Failed to update quantity"))
		return &SyncError{Op: OpUpdate, Err: err}
	}

	e.transition(m, MutationConfirmed)
	return nil
}

// RemoveItem deletes a line item, retaining a copy so a rejected remote
// delete can restore it at its prior position.
func (e *Engine) RemoveItem(ctx context.Context, itemID string) error {
	e.mu.Lock()
	idx := slices.IndexFunc(e.items, func(it LineItem) bool { return it.ItemID == itemID })
	if idx < 0 {
		e.mu.Unlock()
		return ErrItemNotFound
	}
	retained := e.items[idx]
	m := &Mutation{Op: OpRemove, ItemID: itemID, State: MutationIdle}
	e.items = slices.Delete(e.items, idx, idx+1)
	e.persistLocked()
	e.mu.Unlock()
	e.transition(m, MutationApplied)

	if !e.authed() {
		e.transition(m, MutationConfirmed)
		e.success("Removed from cart")
		return nil
	}

	if err := e.remote.Delete(ctx, "/cart/items/"+itemID, nil); err != nil {
		e.mu.Lock()
		at := min(idx, len(e.items))
		e.items = slices.Insert(e.items, at, retained)
		e.persistLocked()
		e.mu.Unlock()
		e.transition(m, MutationRolledBack)
		e.failure("Failed to remove item")
		return &SyncError{Op: OpRemove, Err: err}
	}

	e.transition(m, MutationConfirmed)
	e.success("Removed from cart")
	return nil
}

// ClearCart empties the cart. A rejected remote clear triggers a
// best-effort resync; the pre-clear list is not restored, since a clear is
// typically the tail of a completed order.
func (e *Engine) ClearCart(ctx context.Context) error {
	m := &Mutation{Op: OpClear, State: MutationIdle}

	e.mu.Lock()
	e.items = nil
	e.persistLocked()
	e.mu.Unlock()
	e.transition(m, MutationApplied)

	if !e.authed() {
		e.transition(m, MutationConfirmed)
		return nil
	}

	if err := e.remote.Delete(ctx, "/cart/clear", nil); err != nil {
		if syncErr := e.SyncCart(ctx); syncErr != nil {
			e.log.Warn("post-clear resync failed", zap.Error(syncErr))
		}
		e.transition(m, MutationRolledBack)
		e.failure("Failed to clear cart")
		return &SyncError{Op: OpClear, Err: err}
	}

	e.transition(m, MutationConfirmed)
	return nil
}

// SyncCart fetches the authoritative remote item list and replaces local
// state wholesale, remapping the remote shape into line items. It is the
// single source-of-truth refresh used after remote-confirmed mutations and
// after sign-in. Without a session it is a no-op.
func (e *Engine) SyncCart(ctx context.Context) error {
	if !e.authed() {
		return nil
	}

	var resp struct {
		Cart models.CartPayload `json:"cart"`
	}
	if err := e.remote.Get(ctx, "/cart", &resp); err != nil {
		return fmt.Errorf("fetch remote cart: %w", err)
	}

	items := make([]LineItem, 0, len(resp.Cart.Items))
	for _, entry := range resp.Cart.Items {
		item := LineItem{
			ItemID:      entry.ItemID,
			ProductID:   entry.Product.ID,
			VariantID:   entry.Variant.VariantID,
			ProductName: entry.Product.Name,
			Color:       entry.Variant.Color,
			Size:        entry.Variant.Size,
			UnitPrice:   entry.Variant.Price,
			Quantity:    entry.Quantity,
		}
		if len(entry.Product.Images) > 0 {
			item.ProductImage = entry.Product.Images[0]
		}
		items = append(items, item)
	}

	e.mu.Lock()
	e.items = items
	e.persistLocked()
	e.mu.Unlock()

	e.log.Debug("cart synced", zap.Int("items", len(items)))
	return nil
}

// ValidateCart asks the remote for a validity verdict over the current
// items. Without a session the verdict is always invalid with no issues
// and no remote call is made. When the remote reports the cart invalid,
// a resync runs first so local state matches remote truth before checkout
// proceeds; the issues are data, not errors.
func (e *Engine) ValidateCart(ctx context.Context) (models.ValidationResult, error) {
	verdict := models.ValidationResult{Valid: false, Issues: []models.ValidationIssue{}}
	if !e.authed() {
		return verdict, nil
	}

	if err := e.remote.Post(ctx, "/cart/validate", nil, &verdict); err != nil {
		return models.ValidationResult{Valid: false, Issues: []models.ValidationIssue{}}, fmt.Errorf("validate cart: %w", err)
	}

	if !verdict.Valid {
		if err := e.SyncCart(ctx); err != nil {
			e.log.Warn("post-validate resync failed", zap.Error(err))
		}
	}
	return verdict, nil
}

// persistLocked rewrites the cart record. Callers must hold e.mu.
func (e *Engine) persistLocked() {
	if err := e.store.Save(storage.CartRecord, record{Items: e.items}); err != nil {
		e.log.Warn("failed to persist cart record", zap.Error(err))
	}
}

func (e *Engine) success(msg string) {
	if e.notify != nil {
		e.notify.Success(msg)
	}
}

func (e *Engine) failure(msg string) {
	if e.notify != nil {
		e.notify.Failure(msg)
	}
}

// failureMessage prefers the server-provided message over the fallback.
func failureMessage(err error, fallback string) string {
	var status *api.StatusError
	if errors.As(err, &status) && status.Message != "" {
		return status.Message
	}
	return fallback
}
