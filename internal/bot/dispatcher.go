package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"membership-bot/internal/client"
	"membership-bot/internal/event"
	"membership-bot/internal/observability"
	"membership-bot/internal/repository"
	"membership-bot/internal/service"

	"github.com/sirupsen/logrus"
)

var ErrDispatcherClosed = errors.New("dispatcher closed")

const drainTimeout = 10 * time.Second

// Platform is the chat platform surface the bot drives.
type Platform interface {
	GrantRole(ctx context.Context, userID string) error
	SendDM(ctx context.Context, userID, content string) error
}

type commandKind int

const (
	commandResolveOrder commandKind = iota
	commandPaymentFailed
)

type command struct {
	kind              commandKind
	orderID           string
	transactionStatus string
	// reply is buffered: the executor never blocks on a caller that gave up
	reply chan error
}

// Dispatcher is the bot's task queue. HTTP handlers enqueue commands; a single
// goroutine started by Run executes them in order, so every platform side
// effect happens in the bot's own context.
type Dispatcher struct {
	queue     chan command
	done      chan struct{}
	closeOnce sync.Once

	// mu fences senders from the final drain: enqueue holds it shared while
	// sending, stop takes it exclusively before draining.
	mu     sync.RWMutex
	closed bool

	lifecycle service.LifecycleService
	orderRepo repository.OrderRepository
	platform  Platform
	loc       *time.Location
	metrics   *observability.Metrics
	log       logrus.FieldLogger
}

func NewDispatcher(
	size int,
	loc *time.Location,
	lifecycle service.LifecycleService,
	orderRepo repository.OrderRepository,
	platform Platform,
	metrics *observability.Metrics,
	log logrus.FieldLogger,
) *Dispatcher {
	return &Dispatcher{
		queue:     make(chan command, size),
		done:      make(chan struct{}),
		lifecycle: lifecycle,
		orderRepo: orderRepo,
		platform:  platform,
		loc:       loc,
		metrics:   metrics,
		log:       log,
	}
}

// EnqueueResolve queues the order and waits for its resolution. Orders that are
// already resolved or unknown are not an error; any other failure is returned so
// the gateway retries against the still pending order.
func (d *Dispatcher) EnqueueResolve(ctx context.Context, orderID string) error {
	reply := make(chan error, 1)
	if err := d.enqueue(ctx, command{kind: commandResolveOrder, orderID: orderID, reply: reply}); err != nil {
		return err
	}

	select {
	case err := <-reply:
		if errors.Is(err, service.ErrOrderNotFound) {
			return nil
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) EnqueuePaymentFailed(ctx context.Context, orderID, transactionStatus string) error {
	return d.enqueue(ctx, command{kind: commandPaymentFailed, orderID: orderID, transactionStatus: transactionStatus})
}

// enqueue blocks while the queue is full, until ctx ends or the dispatcher stops.
func (d *Dispatcher) enqueue(ctx context.Context, cmd command) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- cmd:
		d.metrics.DispatchQueueDepth.Inc()
		return nil
	case <-d.done:
		return ErrDispatcherClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes queued commands until ctx is done, then drains what is already buffered.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Info("dispatcher started")
	for {
		if ctx.Err() != nil {
			d.stop()
			return nil
		}

		select {
		case <-ctx.Done():
			d.stop()
			return nil
		case cmd := <-d.queue:
			d.metrics.DispatchQueueDepth.Dec()
			d.execute(ctx, cmd)
		}
	}
}

func (d *Dispatcher) stop() {
	// wake senders blocked on a full queue, then wait for every sender to leave
	d.closeOnce.Do(func() { close(d.done) })
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.drain()
	d.log.Info("dispatcher stopped")
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case cmd := <-d.queue:
			d.metrics.DispatchQueueDepth.Dec()
			d.execute(ctx, cmd)
		default:
			return
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, cmd command) {
	switch cmd.kind {
	case commandResolveOrder:
		d.resolve(ctx, cmd.orderID, cmd.reply)
	case commandPaymentFailed:
		d.paymentFailed(ctx, cmd.orderID, cmd.transactionStatus)
	}
}

func (d *Dispatcher) resolve(ctx context.Context, orderID string, reply chan<- error) {
	activated, err := d.lifecycle.ResolveOrder(ctx, orderID)
	if reply != nil {
		reply <- err
	}
	if err != nil {
		// logged by the lifecycle service
		return
	}
	d.activate(ctx, activated)
}

// activate runs the platform side effects of a new window. Failures are logged
// only: the subscription is active whether or not the role grant lands.
func (d *Dispatcher) activate(ctx context.Context, ev *event.SubscriptionActivated) {
	log := d.log.WithFields(logrus.Fields{
		"buyer_id": ev.BuyerID,
		"order_id": ev.OrderID,
	})

	if err := d.platform.GrantRole(ctx, ev.BuyerID); err != nil {
		d.platformFailure("grant_role", log, err)
	}
	if err := d.platform.SendDM(ctx, ev.BuyerID, activatedMessage(ev, d.loc)); err != nil {
		d.platformFailure("send_dm", log, err)
	}
}

func (d *Dispatcher) paymentFailed(ctx context.Context, orderID, status string) {
	log := d.log.WithField("order_id", orderID)

	order, err := d.orderRepo.Take(ctx, nil, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			log.Info("payment failed for unknown order")
			return
		}
		log.WithError(err).Error("load failed order")
		return
	}

	ev := event.PaymentFailed{
		BuyerID:           order.BuyerID,
		OrderID:           order.OrderID,
		PackageID:         order.PackageID,
		TransactionStatus: status,
	}
	if err := d.platform.SendDM(ctx, ev.BuyerID, paymentFailedMessage(ev)); err != nil {
		d.platformFailure("send_dm", log.WithField("buyer_id", ev.BuyerID), err)
	}
}

func (d *Dispatcher) platformFailure(operation string, log logrus.FieldLogger, err error) {
	d.metrics.PlatformFailuresTotal.WithLabelValues(operation).Inc()
	if !errors.Is(err, client.ErrPlatformUnavailable) {
		err = errors.Join(client.ErrPlatformUnavailable, err)
	}
	log.WithError(err).WithField("operation", operation).Warn("chat platform call failed")
}

// Notifier delivers expiry reminders as direct messages.
type Notifier struct {
	platform Platform
	loc      *time.Location
}

func NewNotifier(platform Platform, loc *time.Location) *Notifier {
	return &Notifier{platform: platform, loc: loc}
}

func (n *Notifier) NotifyExpirySoon(ctx context.Context, ev event.ExpirySoon) error {
	return n.platform.SendDM(ctx, ev.BuyerID, expirySoonMessage(ev, n.loc))
}
