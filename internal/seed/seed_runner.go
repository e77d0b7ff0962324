package seed

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go-portal/internal/auth"
	"go-portal/internal/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	chatSuffixLength   = 9
	chatSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Outcome is the result of one input record, at the same index as the input.
type Outcome struct {
	Index      int
	Kind       Kind
	Collection string
	Key        string
	Err        error
}

func (o Outcome) OK() bool { return o.Err == nil }

type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Err != nil {
			s.Failed++
		} else {
			s.Succeeded++
		}
	}
	return s
}

type Runner struct {
	store         store.Store
	identity      IdentityProvider
	hasher        auth.Hasher
	concurrency   int
	stableChatKey bool
	now           func() time.Time
	suffix        func() (string, error)
	logger        *zap.Logger
}

type Option func(*Runner)

// WithConcurrency lets up to n records be written at once. Outcomes stay in
// input order.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithDeterministicChatKeys keys chat sessions by a hash of company, user and
// start time instead of the clock, so re-running a chat seed overwrites.
func WithDeterministicChatKeys() Option {
	return func(r *Runner) { r.stableChatKey = true }
}

func WithIdentityProvider(p IdentityProvider) Option {
	return func(r *Runner) { r.identity = p }
}

func WithHasher(h auth.Hasher) Option {
	return func(r *Runner) {
		if h != nil {
			r.hasher = h
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l.Named("seed.runner")
		}
	}
}

func NewRunner(s store.Store, opts ...Option) *Runner {
	r := &Runner{
		store:       s,
		hasher:      auth.BcryptHasher{},
		concurrency: 1,
		now:         time.Now,
		suffix:      randomSuffix,
		logger:      zap.L().Named("seed.runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ingest writes every record and reports one Outcome per record. A failing
// record never stops the others.
func (r *Runner) Ingest(ctx context.Context, records []Record) []Outcome {
	outcomes := make([]Outcome, len(records))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, rec := range records {
		g.Go(func() error {
			outcomes[i] = r.ingestOne(ctx, i, rec)
			return nil
		})
	}
	_ = g.Wait()

	sum := Summarize(outcomes)
	r.logger.Info("seed batch finished",
		zap.Int("total", sum.Total),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
	)
	return outcomes
}

func (r *Runner) ingestOne(ctx context.Context, index int, rec Record) Outcome {
	out := Outcome{Index: index}
	fail := func(err error) Outcome {
		out.Err = fmt.Errorf("%w: record %d: %w", ErrIngestFailure, index, err)
		r.logger.Warn("seed record failed",
			zap.Int("index", index),
			zap.String("kind", string(out.Kind)),
			zap.String("key", out.Key),
			zap.Error(err),
		)
		return out
	}

	if rec == nil {
		return fail(errors.New("nil record"))
	}
	out.Kind = rec.Kind()
	out.Collection = rec.Kind().Collection()

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := validateRecord(rec); err != nil {
		return fail(err)
	}

	key, err := r.keyFor(rec)
	if err != nil {
		return fail(err)
	}
	out.Key = key

	payload, err := r.payloadFor(ctx, rec)
	if err != nil {
		return fail(err)
	}

	if err := r.store.Set(ctx, out.Collection, key, payload); err != nil {
		return fail(err)
	}

	r.logger.Info("seed record written",
		zap.Int("index", index),
		zap.String("collection", out.Collection),
		zap.String("key", key),
	)
	return out
}

func (r *Runner) keyFor(rec Record) (string, error) {
	if chat, ok := rec.(ChatSession); ok {
		return r.chatKey(chat)
	}
	if nk, ok := rec.(naturalKeyer); ok {
		return nk.NaturalKey(), nil
	}
	return "", fmt.Errorf("%w: %T", ErrUnknownKind, rec)
}

func (r *Runner) chatKey(chat ChatSession) (string, error) {
	if r.stableChatKey {
		sum := sha256.Sum256([]byte(chat.CompanyID + "\x00" + chat.UserID + "\x00" + chat.StartedAt.UTC().Format(time.RFC3339Nano)))
		return fmt.Sprintf("%s_%d_%s", chat.CompanyID, chat.StartedAt.UnixMilli(), hex.EncodeToString(sum[:])[:chatSuffixLength]), nil
	}

	suffix, err := r.suffix()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%d_%s", chat.CompanyID, r.now().UnixMilli(), suffix), nil
}

func (r *Runner) payloadFor(ctx context.Context, rec Record) (map[string]any, error) {
	payload, err := rec.Payload()
	if err != nil {
		return nil, err
	}

	customer, ok := rec.(Customer)
	if !ok {
		return payload, nil
	}

	if r.identity != nil {
		uid, err := r.identity.CreateUser(ctx, Identity{
			UID:         customer.ID,
			Email:       customer.Email,
			Password:    customer.Password,
			DisplayName: customer.Name,
		})
		if errors.Is(err, ErrIdentityExists) {
			r.logger.Info("customer identity exists, writing profile only", zap.String("id", customer.ID))
			if uid != "" {
				payload["uid"] = uid
			}
			return payload, nil
		}
		if err != nil {
			return nil, fmt.Errorf("create identity: %w", err)
		}
		payload["uid"] = uid
	}

	hashed, err := r.hasher.Hash(customer.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	payload["password"] = hashed
	return payload, nil
}

func randomSuffix() (string, error) {
	b := make([]byte, chatSuffixLength)
	limit := big.NewInt(int64(len(chatSuffixAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = chatSuffixAlphabet[n.Int64()]
	}
	return string(b), nil
}
