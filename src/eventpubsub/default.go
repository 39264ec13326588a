package eventpubsub

import (
	"fmt"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"
)

// Bus fans events out to subscribers. Subscribers run asynchronously, so a slow or
// failing subscriber never blocks the publisher.
type Bus struct {
	bus EventBus.Bus
}

func New() *Bus {
	return &Bus{
		bus: EventBus.New(),
	}
}

func (b *Bus) Publish(publisherName string, topic string, event interface{}) {
	log.Debugf("[%v] Published to topic %s", publisherName, topic)
	b.bus.Publish(topic, event)
}

func (b *Bus) Subscribe(subscriberName string, topic string, callbackFn interface{}) error {
	if err := b.bus.SubscribeAsync(topic, callbackFn, false); err != nil {
		return fmt.Errorf("[%v] failed to subscribe to %s: %w", subscriberName, topic, err)
	}

	log.Infof("[%v] Subscribed to topic %s", subscriberName, topic)
	return nil
}

func (b *Bus) Unsubscribe(topic string, callbackFn interface{}) error {
	return b.bus.Unsubscribe(topic, callbackFn)
}

func (b *Bus) HasSubscribers(topic string) bool {
	return b.bus.HasCallback(topic)
}

// WaitAsync blocks until every in-flight asynchronous delivery has finished.
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}
