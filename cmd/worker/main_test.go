package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/docchat/internal/pipeline"
)

type recordingAck struct {
	acked, nacked, requeued bool
}

func (r *recordingAck) Ack(uint64, bool) error { r.acked = true; return nil }

func (r *recordingAck) Nack(_ uint64, _ bool, requeue bool) error {
	r.nacked, r.requeued = true, requeue
	return nil
}

func (r *recordingAck) Reject(_ uint64, requeue bool) error {
	r.nacked, r.requeued = true, requeue
	return nil
}

type stubHandler struct {
	state pipeline.State
	err   error
	calls int
}

func (s *stubHandler) Process(context.Context, pipeline.Event) (pipeline.State, error) {
	s.calls++
	return s.state, s.err
}

func delivery(t *testing.T, ack amqp.Acknowledger, body []byte) amqp.Delivery {
	t.Helper()
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body}
}

func eventBody(t *testing.T) []byte {
	t.Helper()
	ev, err := pipeline.NewEvent("555", "Ana", "What are your hours?", "abc123")
	require.NoError(t, err)
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return b
}

func TestHandleDelivery(t *testing.T) {
	for _, tc := range []struct {
		name   string
		state  pipeline.State
		err    error
		acked  bool
		nacked bool
	}{
		{"delivered", pipeline.StateDelivered, nil, true, false},
		{"abandoned", pipeline.StateAbandoned, nil, true, false},
		{"failed", pipeline.StateFailed, errors.New("deliver: boom"), false, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ack := &recordingAck{}
			h := &stubHandler{state: tc.state, err: tc.err}

			handleDelivery(h, time.Second, zerolog.Nop(), delivery(t, ack, eventBody(t)))

			assert.Equal(t, 1, h.calls)
			assert.Equal(t, tc.acked, ack.acked)
			assert.Equal(t, tc.nacked, ack.nacked)
			assert.False(t, ack.requeued)
		})
	}
}

func TestHandleDelivery_BadBodyGoesToDLQ(t *testing.T) {
	ack := &recordingAck{}
	h := &stubHandler{state: pipeline.StateDelivered}

	handleDelivery(h, time.Second, zerolog.Nop(), delivery(t, ack, []byte(`{"id":"x"}`)))

	assert.Zero(t, h.calls)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
}
