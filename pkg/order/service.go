package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bakeshop/pkg/checkout"
)

// Notifier receives every stored order; the mailer is the production implementation.
type Notifier interface {
	OrderPlaced(ctx context.Context, o Order) error
}

// command envelopes the writes the service goroutine must perform.
type command struct {
	ctx       context.Context
	action    string
	order     Order
	id        string
	status    Status
	paymentID string
	succeeded bool
	reply     chan commandResult
}

// query allows different consumers to request stored orders.
type query struct {
	ctx   context.Context
	id    string
	reply chan queryResult
}

// commandResult contains the stored order or an error to propagate back to the caller.
type commandResult struct {
	order   Order
	changed int
	err     error
}

// queryResult contains the requested orders alongside potential failures.
type queryResult struct {
	orders []Order
	err    error
}

// Service orchestrates order submission and status changes through one goroutine.
type Service struct {
	repo          *Repository
	notifier      Notifier
	logger        *zap.Logger
	now           func() time.Time
	commands      chan command
	queries       chan query
	cancellations chan struct{}
}

// NewService launches the coordinating goroutine immediately.
func NewService(repo *Repository, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		repo:          repo,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
		commands:      make(chan command),
		queries:       make(chan query),
		cancellations: make(chan struct{}),
	}
	go svc.loop()
	return svc
}

// loop listens to commands and queries so writes never race each other.
func (s *Service) loop() {
	for {
		select {
		case cmd := <-s.commands:
			cmd.reply <- s.handle(cmd)
		case q := <-s.queries:
			if q.id != "" {
				o, err := s.repo.Get(q.ctx, q.id)
				q.reply <- queryResult{orders: []Order{o}, err: err}
				continue
			}
			orders, err := s.repo.List(q.ctx)
			q.reply <- queryResult{orders: orders, err: err}
		case <-s.cancellations:
			return
		}
	}
}

func (s *Service) handle(cmd command) commandResult {
	switch cmd.action {
	case "save":
		if err := s.repo.Save(cmd.ctx, cmd.order); err != nil {
			return commandResult{err: err}
		}
		return commandResult{order: cmd.order}
	case "status":
		if err := s.repo.UpdateStatus(cmd.ctx, cmd.id, cmd.status, s.now()); err != nil {
			return commandResult{err: err}
		}
		o, err := s.repo.Get(cmd.ctx, cmd.id)
		return commandResult{order: o, err: err}
	case "payment":
		return s.applyPayment(cmd)
	default:
		return commandResult{err: fmt.Errorf("unknown order action %s", cmd.action)}
	}
}

// applyPayment moves pending orders to paid on success and open orders to
// cancelled on failure. Orders further along are left alone.
func (s *Service) applyPayment(cmd command) commandResult {
	orders, err := s.repo.FindByPayment(cmd.ctx, cmd.paymentID)
	if err != nil {
		return commandResult{err: err}
	}
	changed := 0
	for _, o := range orders {
		next := o.Status
		switch {
		case cmd.succeeded && o.Status == StatusPending:
			next = StatusPaid
		case !cmd.succeeded && (o.Status == StatusPending || o.Status == StatusPaid):
			next = StatusCancelled
		}
		if next == o.Status {
			continue
		}
		if err := s.repo.UpdateStatus(cmd.ctx, o.ID, next, s.now()); err != nil {
			return commandResult{changed: changed, err: err}
		}
		changed++
	}
	return commandResult{changed: changed}
}

// Submit validates the draft, stores it as a paid order and notifies the
// customer and the bakery. A notification failure is reported to the caller
// even though the order row is already stored.
func (s *Service) Submit(ctx context.Context, draft checkout.Draft) (Order, error) {
	if err := draft.Validate(); err != nil {
		if checkout.IsValidation(err) {
			return Order{}, newValidationError(err.Error())
		}
		return Order{}, err
	}

	now := s.now().UTC()
	o := Order{
		ID:        NewID(now),
		Draft:     draft,
		Status:    StatusPaid,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := s.send(ctx, command{action: "save", order: o})
	if err != nil {
		return Order{}, err
	}
	stored := res.order
	s.logger.Info("order stored",
		zap.String("order_id", stored.ID),
		zap.String("payment_method", string(stored.PaymentMethod)),
		zap.String("payment_id", stored.PaymentID),
		zap.String("total", stored.Total.StringFixed(2)),
		zap.Int("lines", len(stored.Items)),
	)

	if s.notifier != nil {
		if err := s.notifier.OrderPlaced(ctx, stored); err != nil {
			s.logger.Error("order notification failed", zap.String("order_id", stored.ID), zap.Error(err))
			return stored, fmt.Errorf("notify order %s: %w", stored.ID, err)
		}
	}
	return stored, nil
}

// Get returns one order or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	orders, err := s.ask(ctx, query{id: id})
	if err != nil {
		return Order{}, err
	}
	return orders[0], nil
}

// List returns the stored orders newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.ask(ctx, query{})
}

// UpdateStatus sets an order's status from the admin API.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (Order, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return Order{}, err
	}
	res, err := s.send(ctx, command{action: "status", id: id, status: status})
	if err != nil {
		return Order{}, err
	}
	s.logger.Info("order status changed", zap.String("order_id", id), zap.String("status", string(status)))
	return res.order, nil
}

// ApplyPaymentOutcome records a provider's asynchronous payment result on
// the orders carrying that payment id and reports how many changed.
func (s *Service) ApplyPaymentOutcome(ctx context.Context, paymentID string, succeeded bool) (int, error) {
	res, err := s.send(ctx, command{action: "payment", paymentID: paymentID, succeeded: succeeded})
	return res.changed, err
}

// Close stops the goroutine to allow graceful shutdown.
func (s *Service) Close() {
	close(s.cancellations)
}

func (s *Service) send(ctx context.Context, cmd command) (commandResult, error) {
	cmd.ctx = ctx
	cmd.reply = make(chan commandResult, 1)

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	case <-time.After(2 * time.Second):
		return commandResult{}, errors.New("queue is busy processing other orders")
	}

	select {
	case res := <-cmd.reply:
		return res, res.err
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	case <-time.After(2 * time.Second):
		return commandResult{}, errors.New("order processing took too long")
	}
}

func (s *Service) ask(ctx context.Context, q query) ([]Order, error) {
	q.ctx = ctx
	q.reply = make(chan queryResult, 1)

	select {
	case s.queries <- q:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(2 * time.Second):
		return nil, errors.New("queue is busy processing other orders")
	}

	select {
	case res := <-q.reply:
		return res.orders, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(2 * time.Second):
		return nil, errors.New("listing orders took too long")
	}
}
