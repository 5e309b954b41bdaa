package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bakeshop/pkg/catalog"
)

const (
	actionGet    = "get"
	actionAdd    = "add"
	actionRemove = "remove"
	actionSet    = "set"
	actionClear  = "clear"
	queueTimeout = 2 * time.Second
	replyTimeout = 2 * time.Second
)

// command carries one cart operation into the store goroutine.
type command struct {
	ctx      context.Context
	action   string
	session  string
	item     catalog.Item
	itemID   string
	quantity int
	reply    chan commandResult
}

// commandResult returns the cart as it stands after the operation.
type commandResult struct {
	cart Cart
	err  error
}

// Store serializes every cart read-modify-write through one goroutine so two
// requests for the same session never interleave.
type Store struct {
	repo     *Repository
	catalog  *catalog.Catalog
	logger   *zap.Logger
	commands chan command
	quit     chan struct{}
}

// NewStore starts the background goroutine immediately.
func NewStore(repo *Repository, items *catalog.Catalog, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		repo:     repo,
		catalog:  items,
		logger:   logger,
		commands: make(chan command),
		quit:     make(chan struct{}),
	}
	go s.loop()
	return s
}

// loop loads, mutates and persists one cart per command. The stored cart is
// only replaced when the save succeeds, so a failed write leaves it untouched.
func (s *Store) loop() {
	for {
		select {
		case cmd := <-s.commands:
			cmd.reply <- s.apply(cmd)
		case <-s.quit:
			return
		}
	}
}

func (s *Store) apply(cmd command) commandResult {
	current, err := s.repo.Load(cmd.ctx, cmd.session)
	if err != nil {
		return commandResult{err: fmt.Errorf("load cart: %w", err)}
	}
	if cmd.action == actionGet {
		return commandResult{cart: current}
	}

	next := current.Clone()
	switch cmd.action {
	case actionAdd:
		next.AddItem(cmd.item)
	case actionRemove:
		next.RemoveItem(cmd.itemID)
	case actionSet:
		next.UpdateQuantity(cmd.itemID, cmd.quantity)
	case actionClear:
		next.Clear()
	default:
		return commandResult{err: fmt.Errorf("unknown cart action %s", cmd.action)}
	}

	if err := s.repo.Save(cmd.ctx, cmd.session, next); err != nil {
		return commandResult{err: fmt.Errorf("save cart: %w", err)}
	}
	s.logger.Debug("cart updated",
		zap.String("session", cmd.session),
		zap.String("action", cmd.action),
		zap.String("item_id", cmd.itemID),
		zap.Int("lines", next.Len()),
		zap.String("total", next.TotalPrice().StringFixed(2)),
	)
	return commandResult{cart: next}
}

// Get returns the session's cart.
func (s *Store) Get(ctx context.Context, session string) (Cart, error) {
	return s.do(ctx, command{action: actionGet, session: session})
}

// Add puts one more of the catalog item into the cart. Unknown ids fail with catalog.ErrNotFound.
func (s *Store) Add(ctx context.Context, session, itemID string) (Cart, error) {
	item, err := s.catalog.Get(itemID)
	if err != nil {
		return Cart{}, err
	}
	return s.do(ctx, command{action: actionAdd, session: session, item: item, itemID: itemID})
}

// Remove takes one piece of the item out of the cart.
func (s *Store) Remove(ctx context.Context, session, itemID string) (Cart, error) {
	return s.do(ctx, command{action: actionRemove, session: session, itemID: itemID})
}

// SetQuantity sets the line to exactly quantity; zero or less removes it.
func (s *Store) SetQuantity(ctx context.Context, session, itemID string, quantity int) (Cart, error) {
	return s.do(ctx, command{action: actionSet, session: session, itemID: itemID, quantity: quantity})
}

// Clear empties the session's cart and persists the empty state.
func (s *Store) Clear(ctx context.Context, session string) error {
	_, err := s.do(ctx, command{action: actionClear, session: session})
	return err
}

// Close stops the background goroutine when the application shuts down.
func (s *Store) Close() {
	close(s.quit)
}

func (s *Store) do(ctx context.Context, cmd command) (Cart, error) {
	cmd.ctx = ctx
	cmd.reply = make(chan commandResult, 1)

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return Cart{}, ctx.Err()
	case <-time.After(queueTimeout):
		return Cart{}, errors.New("cart queue is busy")
	}

	select {
	case res := <-cmd.reply:
		return res.cart, res.err
	case <-ctx.Done():
		return Cart{}, ctx.Err()
	case <-time.After(replyTimeout):
		return Cart{}, fmt.Errorf("cart %s timed out", cmd.action)
	}
}
