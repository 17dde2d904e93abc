package pipeline

import (
	"context"
	"encoding/json"
)

// Publisher puts a message on a durable queue; rabbitmq.Publisher implements it.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// BrokerDispatcher hands events to an external worker through a message broker.
type BrokerDispatcher struct {
	pub Publisher
}

func NewBrokerDispatcher(pub Publisher) *BrokerDispatcher {
	return &BrokerDispatcher{pub: pub}
}

func (d *BrokerDispatcher) Dispatch(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return d.pub.Publish(ctx, body)
}
