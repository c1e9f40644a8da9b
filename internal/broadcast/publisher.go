// Package broadcast fans container changes out over NATS.
//
// Every StateChanged event becomes a JSON envelope on the configured subject.
// When a KV bucket is configured, the latest value of each changed slice is
// also stored under its module key so late joiners can read current state.
package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/grdesk/internal/events"
	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
	"git.home.luguber.info/inful/grdesk/internal/logfields"
	"git.home.luguber.info/inful/grdesk/internal/store"
)

// Config configures the NATS connection.
type Config struct {
	URL      string
	Subject  string
	KVBucket string
	Name     string
}

// Envelope is the wire form of a state change.
type Envelope struct {
	ActionID   string                              `json:"action_id"`
	ActionType string                              `json:"action_type"`
	At         time.Time                           `json:"at"`
	Slices     map[store.ModuleKey]json.RawMessage `json:"slices"`
}

type sink interface {
	Publish(subject string, data []byte) error
}

type kvPutter interface {
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

// Publisher sends envelopes to NATS.
type Publisher struct {
	pub     sink
	kv      kvPutter
	subject string
	logger  *slog.Logger
	closeFn func()
}

// Connect dials NATS and prepares the optional KV bucket.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Subject == "" {
		return nil, ferrors.ConfigError("broadcast subject is required").Build()
	}
	opts := []nats.Option{nats.Name(cfg.Name)}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, ferrors.NetworkError("failed to connect to NATS").
			WithContext("url", cfg.URL).WithCause(err).Build()
	}

	p := newPublisher(conn, nil, cfg.Subject, logger)
	p.closeFn = conn.Close

	if cfg.KVBucket != "" {
		js, err := jetstream.New(conn)
		if err != nil {
			conn.Close()
			return nil, ferrors.NetworkError("failed to create JetStream context").WithCause(err).Build()
		}
		kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      cfg.KVBucket,
			Description: "grdesk latest slice state",
			History:     1,
		})
		if err != nil {
			conn.Close()
			return nil, ferrors.NetworkError("failed to open KV bucket").
				WithContext("bucket", cfg.KVBucket).WithCause(err).Build()
		}
		p.kv = kv
	}

	logger.Info("NATS broadcast connected",
		slog.String("url", cfg.URL),
		slog.String("subject", cfg.Subject),
		slog.String("kv_bucket", cfg.KVBucket))
	return p, nil
}

func newPublisher(pub sink, kv kvPutter, subject string, logger *slog.Logger) *Publisher {
	return &Publisher{pub: pub, kv: kv, subject: subject, logger: logger}
}

// NewEnvelope encodes the changed slices of evt.
func NewEnvelope(evt events.StateChanged) (Envelope, error) {
	env := Envelope{
		ActionID:   evt.ActionID,
		ActionType: evt.ActionType,
		At:         evt.At,
		Slices:     make(map[store.ModuleKey]json.RawMessage, len(evt.Changed)),
	}
	for _, key := range evt.Changed {
		raw, err := json.Marshal(evt.State[key])
		if err != nil {
			return Envelope{}, ferrors.InternalError("encode slice").
				WithContext(logfields.KeyModuleKey, string(key)).WithCause(err).Build()
		}
		env.Slices[key] = raw
	}
	return env, nil
}

// Publish sends one state change.
func (p *Publisher) Publish(ctx context.Context, evt events.StateChanged) error {
	env, err := NewEnvelope(evt)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return ferrors.InternalError("encode envelope").WithCause(err).Build()
	}
	if err := p.pub.Publish(p.subject, data); err != nil {
		return ferrors.NetworkError("failed to publish state change").
			WithContext(logfields.KeyActionType, evt.ActionType).WithCause(err).Build()
	}
	if p.kv == nil {
		return nil
	}
	for key, raw := range env.Slices {
		if _, err := p.kv.Put(ctx, string(key), raw); err != nil {
			return ferrors.NetworkError("failed to store slice").
				WithContext(logfields.KeyModuleKey, string(key)).WithCause(err).Build()
		}
	}
	return nil
}

// Run forwards StateChanged events from bus until ctx is done or the bus closes.
func (p *Publisher) Run(ctx context.Context, bus *events.Bus) {
	ch, unsubscribe := events.Subscribe[events.StateChanged](bus, 64)
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := p.Publish(ctx, evt); err != nil {
				p.logger.WarnContext(ctx, "Broadcast failed",
					logfields.ActionType(evt.ActionType), logfields.Error(err))
			}
		}
	}
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.closeFn != nil {
		p.closeFn()
	}
}
