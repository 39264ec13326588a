package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
	"github.com/jiaming2012/trading-bot/src/eventpubsub"
)

const subscriberName = "SlackNotifierClient"

// SlackNotifierClient posts bus events to a Slack incoming webhook. Delivery failures
// are logged and dropped.
type SlackNotifierClient struct {
	wg            *sync.WaitGroup
	bus           *eventpubsub.Bus
	webhookURL    string
	client        *http.Client
	subscriptions []subscription
}

type subscription struct {
	topic string
	fn    interface{}
}

func (c *SlackNotifierClient) signalHandler(ev *eventmodels.SignalGeneratedEvent) {
	log.Debugf("SlackNotifierClient.signalHandler <- %v", ev.Signal)
	c.send(FormatSignal(ev.Signal))
}

func (c *SlackNotifierClient) orderResultHandler(ev *eventmodels.OrderResultEvent) {
	log.Debugf("SlackNotifierClient.orderResultHandler <- %v", ev.Order)
	c.send(FormatOrderResult(ev.Order))
}

func (c *SlackNotifierClient) rejectionHandler(ev *eventmodels.SignalRejectedEvent) {
	log.Debugf("SlackNotifierClient.rejectionHandler <- %v", ev.Signal)
	c.send(FormatRejection(ev.Signal, ev.Reason))
}

func (c *SlackNotifierClient) errorHandler(ev *eventmodels.ErrorEvent) {
	log.Debugf("SlackNotifierClient.errorHandler <- %v", ev.Err)
	c.send(FormatError(ev.Err, ev.Context))
}

func (c *SlackNotifierClient) dailySummaryHandler(ev *eventmodels.DailySummaryEvent) {
	log.Debugf("SlackNotifierClient.dailySummaryHandler <- %s", ev.Date.Format("2006-01-02"))
	c.send(FormatDailySummary(ev.Date, ev.Balance, ev.Trades))
}

func (c *SlackNotifierClient) send(msg string) {
	if _, err := sendResponse(c.client, msg, c.webhookURL); err != nil {
		log.Errorf("SlackNotifierClient: failed to send message: %v", err)
	}
}

func (c *SlackNotifierClient) Start(ctx context.Context) error {
	c.subscriptions = []subscription{
		{eventpubsub.SignalGeneratedEvent, c.signalHandler},
		{eventpubsub.OrderResultEvent, c.orderResultHandler},
		{eventpubsub.SignalRejectedEvent, c.rejectionHandler},
		{eventpubsub.Error, c.errorHandler},
		{eventpubsub.DailySummaryEvent, c.dailySummaryHandler},
	}

	for _, s := range c.subscriptions {
		if err := c.bus.Subscribe(subscriberName, s.topic, s.fn); err != nil {
			return fmt.Errorf("SlackNotifierClient.Start: %w", err)
		}
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-ctx.Done()
		c.stop()
	}()

	return nil
}

// stop detaches every handler and drains deliveries already in flight.
func (c *SlackNotifierClient) stop() {
	for _, s := range c.subscriptions {
		if err := c.bus.Unsubscribe(s.topic, s.fn); err != nil {
			log.Warnf("SlackNotifierClient: failed to unsubscribe from %s: %v", s.topic, err)
		}
	}

	c.bus.WaitAsync()
	log.Info("stopping SlackNotifierClient consumer")
}

func sendResponse(client *http.Client, msg string, url string) ([]byte, error) {
	body := map[string]interface{}{
		"text":          msg,
		"response_type": "in_channel",
	}

	return postJSON(client, url, body)
}

func postJSON(client *http.Client, url string, body map[string]interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("PostJSON (Marshal): %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("PostJSON (NewRequest): %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("PostJSON (Do): %w", err)
	}

	defer res.Body.Close()

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("PostJSON (ReadAll): %w", err)
	}

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("PostJSON: webhook returned %d: %s", res.StatusCode, string(bodyBytes))
	}

	return bodyBytes, nil
}

func NewSlackNotifierClient(wg *sync.WaitGroup, bus *eventpubsub.Bus, webhookURL string) *SlackNotifierClient {
	return &SlackNotifierClient{
		wg:         wg,
		bus:        bus,
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}
