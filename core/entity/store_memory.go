package entity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// InMemoryAdapter is a simple, correct Adapter for tests and development.
// Events are frozen to their wire form on commit, so loading exercises the
// same parse path a durable adapter would.
type InMemoryAdapter struct {
	mu      sync.Mutex
	log     *slog.Logger
	streams map[string][][]byte
}

func NewInMemoryAdapter() *InMemoryAdapter {
	return &InMemoryAdapter{
		log:     slog.Default().With(slog.String("adapter", "memory")),
		streams: map[string][][]byte{},
	}
}

func (a *InMemoryAdapter) streamKey(entityName, entityID string) string {
	return fmt.Sprintf("%s-%s", entityName, entityID)
}

func (a *InMemoryAdapter) GetEventsByEntityID(
	_ context.Context,
	entityName, entityID string,
) ([]Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	stream := a.streams[a.streamKey(entityName, entityID)]
	out := make([]Event, 0, len(stream))
	for _, data := range stream {
		ev, err := DecodeEvent(data)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (a *InMemoryAdapter) CommitEvents(_ context.Context, req CommitRequest) error {
	if len(req.Events) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	sk := a.streamKey(req.EntityName, req.EntityID)
	stream := a.streams[sk]
	if len(stream) != req.ExpectedEvents {
		return fmt.Errorf(
			"%w: stream %s has %d events, expected %d",
			ErrConcurrencyConflict, sk, len(stream), req.ExpectedEvents,
		)
	}

	encoded := make([][]byte, 0, len(req.Events))
	for _, ev := range req.Events {
		if err := ev.Validate(); err != nil {
			return err
		}
		data, err := EncodeEvent(ev)
		if err != nil {
			return err
		}
		encoded = append(encoded, data)
	}

	a.streams[sk] = append(stream, encoded...)
	a.log.Debug(
		"committed",
		slog.String("stream", sk),
		slog.Int("num_events", len(encoded)),
	)
	return nil
}

var _ Adapter = (*InMemoryAdapter)(nil)
