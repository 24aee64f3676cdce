package mqtt

import (
	"fmt"
	"maps"
	"slices"
)

// Subscribe registers handler for a topic filter such as
// Topics{}.AllSensorEntrances(). The filter is remembered and subscribed
// again after every reconnect, since sessions are not kept on the broker.
func (c *Client) Subscribe(filter string, qos byte, handler MessageHandler) error {
	if err := validateTopicFilter(filter); err != nil {
		return err
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	sub := subscription{topic: filter, qos: qos, handler: handler}
	if err := c.subscribe(sub); err != nil {
		return err
	}

	c.subMu.Lock()
	c.subscriptions[filter] = sub
	c.subMu.Unlock()
	return nil
}

// Unsubscribe stops delivery for a filter passed to Subscribe. Messages
// already in flight may still reach the handler.
func (c *Client) Unsubscribe(filter string) error {
	if err := validateTopicFilter(filter); err != nil {
		return err
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subMu.Lock()
	delete(c.subscriptions, filter)
	c.subMu.Unlock()

	token := c.client.Unsubscribe(filter)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrUnsubscribeFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsubscribeFailed, err)
	}
	return nil
}

// SubscriptionCount returns the number of filters restored on reconnect.
func (c *Client) SubscriptionCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscriptions)
}

// subscribe sends one SUBSCRIBE and waits for the broker's acknowledgement.
func (c *Client) subscribe(sub subscription) error {
	token := c.client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: %s: timeout after %v", ErrSubscribeFailed, sub.topic, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, sub.topic, err)
	}
	return nil
}

// restoreSubscriptions subscribes every remembered filter again. It runs on
// the connect callback, so failures are logged rather than returned.
func (c *Client) restoreSubscriptions() {
	c.subMu.RLock()
	subs := slices.Collect(maps.Values(c.subscriptions))
	c.subMu.RUnlock()

	for _, sub := range subs {
		if err := c.subscribe(sub); err != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Error("restoring MQTT subscription", "topic", sub.topic, "error", err)
			}
		}
	}
}

// unsubscribeAll drops every remembered filter before a clean disconnect so
// no sensor report is delivered while the process shuts down.
func (c *Client) unsubscribeAll() {
	c.subMu.RLock()
	filters := slices.Collect(maps.Keys(c.subscriptions))
	c.subMu.RUnlock()

	for _, filter := range filters {
		if err := c.Unsubscribe(filter); err != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Warn("unsubscribing on close", "topic", filter, "error", err)
			}
		}
	}
}
