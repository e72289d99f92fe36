package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/JLabsAU/relay-server/internal/authmethod"
	"github.com/JLabsAU/relay-server/internal/identity"
	"github.com/JLabsAU/relay-server/internal/keys/models"
	"github.com/JLabsAU/relay-server/pkg/platform/circuit"
	psync "github.com/JLabsAU/relay-server/pkg/platform/sync"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultRetries     = 3
	defaultBackoff     = 200 * time.Millisecond
	visibilityAttempts = 5
	visibilityBackoff  = 100 * time.Millisecond
)

// Client wraps a raw Registry with the guarantees the rest of the relay
// depends on:
//
//   - every upstream call runs under a bounded deadline,
//   - transient failures are retried with exponential backoff,
//   - mint calls are serialized per handle, and concurrent MintIfAbsent
//     callers for one handle share a single upstream round trip,
//   - a mint is not reported done until a subsequent ListKeys from this
//     process would observe it (read-your-writes).
//
// A circuit breaker suppresses retry storms while the registry is down.
type Client struct {
	upstream Registry
	logger   *slog.Logger
	tracer   trace.Tracer
	breaker  *circuit.Breaker

	mintLocks *psync.ShardedMutex
	mintGroup singleflight.Group

	timeout time.Duration
	retries int
	backoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithTimeout bounds every upstream call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries sets the attempt count for transient failures.
func WithRetries(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the base backoff between attempts (doubled per attempt).
func WithBackoff(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) ClientOption {
	return func(c *Client) { c.breaker = b }
}

// NewClient wraps the given upstream registry.
func NewClient(upstream Registry, opts ...ClientOption) *Client {
	c := &Client{
		upstream:  upstream,
		logger:    slog.Default(),
		tracer:    otel.Tracer("relay/registry"),
		breaker:   circuit.New("registry"),
		mintLocks: psync.NewShardedMutex(),
		timeout:   defaultTimeout,
		retries:   defaultRetries,
		backoff:   defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MintIfAbsent returns the key bound to the handle, minting one if none
// exists. At-most-one-key-per-handle holds even under concurrent callers:
// the registry arbitrates uniqueness, and the client additionally serializes
// mint round trips per handle and collapses concurrent callers onto one
// upstream call.
func (c *Client) MintIfAbsent(ctx context.Context, handle authmethod.Handle, authType identity.AuthMethodType) (*models.KeyRecord, error) {
	v, err, _ := c.mintGroup.Do(handle.Hex(), func() (any, error) {
		return c.mintIfAbsentLocked(ctx, handle, authType)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.KeyRecord), nil
}

func (c *Client) mintIfAbsentLocked(ctx context.Context, handle authmethod.Handle, authType identity.AuthMethodType) (*models.KeyRecord, error) {
	// Held across the full check-then-mint round trip so two near-simultaneous
	// requests from this process cannot both reach the registry's mint path.
	c.mintLocks.Lock(handle.Hex())
	defer c.mintLocks.Unlock(handle.Hex())

	existing, err := c.ListKeys(ctx, handle)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		first := earliest(existing)
		return &first, nil
	}

	var record *models.KeyRecord
	err = c.do(ctx, "registry.Mint", func(ctx context.Context) error {
		var mintErr error
		record, mintErr = c.upstream.Mint(ctx, handle, authType)
		return mintErr
	})
	if err != nil {
		return nil, err
	}

	c.awaitVisibility(ctx, handle, record.KeyID)
	return record, nil
}

// awaitVisibility re-reads the handle's key list until the minted key shows
// up, so a caller that immediately resolves the handle observes its own
// write. The mint itself is already durable; exhaustion is only logged.
func (c *Client) awaitVisibility(ctx context.Context, handle authmethod.Handle, keyID string) {
	for attempt := 0; attempt < visibilityAttempts; attempt++ {
		listed, err := c.ListKeys(ctx, handle)
		if err == nil {
			for _, k := range listed {
				if k.KeyID == keyID {
					return
				}
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(visibilityBackoff << attempt):
		}
	}
	c.logger.WarnContext(ctx, "minted key not yet visible in registry reads",
		"handle", handle.Hex(),
		"key_id", keyID,
	)
}

// ListKeys returns the raw key list for the handle.
func (c *Client) ListKeys(ctx context.Context, handle authmethod.Handle) ([]models.KeyRecord, error) {
	var keys []models.KeyRecord
	err := c.do(ctx, "registry.ListKeys", func(ctx context.Context) error {
		var listErr error
		keys, listErr = c.upstream.ListKeys(ctx, handle)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// ListControllers returns the key's current controller set.
func (c *Client) ListControllers(ctx context.Context, keyID string) ([]common.Address, error) {
	var controllers []common.Address
	err := c.do(ctx, "registry.ListControllers", func(ctx context.Context) error {
		var listErr error
		controllers, listErr = c.upstream.ListControllers(ctx, keyID)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	return controllers, nil
}

// GrantController permits an address to direct the key.
func (c *Client) GrantController(ctx context.Context, keyID string, controller common.Address, session *models.AuthorizationSession) error {
	return c.do(ctx, "registry.GrantController", func(ctx context.Context) error {
		return c.upstream.GrantController(ctx, keyID, controller, session)
	})
}

// RevokeController removes an address from the key's controller set.
func (c *Client) RevokeController(ctx context.Context, keyID string, controller common.Address, session *models.AuthorizationSession) error {
	return c.do(ctx, "registry.RevokeController", func(ctx context.Context) error {
		return c.upstream.RevokeController(ctx, keyID, controller, session)
	})
}

// Retire permanently deactivates the key.
func (c *Client) Retire(ctx context.Context, keyID string, session *models.AuthorizationSession) error {
	return c.do(ctx, "registry.Retire", func(ctx context.Context) error {
		return c.upstream.Retire(ctx, keyID, session)
	})
}

// do runs one upstream call with deadline, retry, tracing, and breaker
// accounting. Only transient failures are retried; ErrRejected and the other
// permanent sentinels surface immediately.
func (c *Client) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, op)
	defer span.End()

	attempts := c.retries
	if c.breaker.IsOpen() {
		// Single probe while the circuit is open; successes close it again.
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return c.finish(span, ErrTimedOut)
			case <-time.After(c.backoff << (attempt - 1)):
			}
		}

		err = c.attempt(ctx, fn)
		if err == nil {
			if change := c.breaker.RecordSuccess(); change.Closed {
				c.logger.InfoContext(ctx, "registry circuit closed", "op", op)
			}
			span.SetAttributes(attribute.Int("registry.attempts", attempt+1))
			return nil
		}
		if !retryable(err) {
			break
		}
		if change := c.breaker.RecordFailure(); change.Opened {
			c.logger.ErrorContext(ctx, "registry circuit opened", "op", op, "error", err)
		}
		c.logger.WarnContext(ctx, "transient registry failure",
			"op", op,
			"attempt", attempt+1,
			"error", err,
		)
	}
	return c.finish(span, fmt.Errorf("%s: %w", op, err))
}

func (c *Client) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := fn(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimedOut
	}
	return err
}

func (c *Client) finish(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func retryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimedOut)
}

func earliest(keys []models.KeyRecord) models.KeyRecord {
	first := keys[0]
	for _, k := range keys[1:] {
		if k.MintSequence < first.MintSequence {
			first = k
		}
	}
	return first
}
