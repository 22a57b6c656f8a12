// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// Package channel is the pub/sub transport boundary. It owns one MQTT
// client per process and hands out typed, topic-bound subscribers and
// publishers over JSON payloads. Initialize must run before anything else,
// the same one-time setup contract the robot-side SDK imposes.
package channel

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// DefaultConnectTimeout bounds every broker wait (connect, subscribe,
// unsubscribe) so a dead broker surfaces as an error instead of a hang.
const DefaultConnectTimeout = 3 * time.Second

// inboxDepth bounds each subscriber's buffered inbox. A slow consumer
// loses the oldest queued samples, never the newest.
const inboxDepth = 64

// Options configures the process-wide broker connection.
type Options struct {
	Broker         string // e.g. "tcp://localhost:1883"
	ClientIDPrefix string
	ConnectTimeout time.Duration
}

var (
	mu      sync.Mutex
	client  mqtt.Client
	timeout time.Duration = DefaultConnectTimeout
)

// Initialize connects the process-wide client. The first successful call
// wins; later calls are no-ops so every consumer in the process shares one
// connection.
func Initialize(opts Options) error {
	mu.Lock()
	defer mu.Unlock()
	if client != nil {
		return nil
	}
	if opts.ConnectTimeout > 0 {
		timeout = opts.ConnectTimeout
	}

	clientID := fmt.Sprintf("%s-%s", opts.ClientIDPrefix, uuid.NewString()[:8])
	c := mqtt.NewClient(mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(clientID))

	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("channel: connect to %s timed out after %s", opts.Broker, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("channel: connect to %s: %w", opts.Broker, err)
	}

	client = c
	log.Printf("channel: connected to broker %s as %s", opts.Broker, clientID)
	return nil
}

// Shutdown disconnects the process-wide client. Only the producer calls
// this; consumers release per-topic handles via Subscriber.Close.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	if client != nil {
		client.Disconnect(250)
		client = nil
	}
}

func sharedClient() (mqtt.Client, error) {
	mu.Lock()
	defer mu.Unlock()
	if client == nil {
		return nil, errors.New("channel: not initialized")
	}
	return client, nil
}

// Subscriber delivers messages of type T from one topic through a bounded
// inbox. Read never blocks, so a poll loop can interleave reads with its
// own cancellation checks.
type Subscriber[T any] struct {
	topic  string
	client mqtt.Client
	inbox  chan *T

	closeMu sync.Mutex
	closed  bool
}

// NewSubscriber returns an unbound subscriber for topic. Call Init to bind.
func NewSubscriber[T any](topic string) (*Subscriber[T], error) {
	c, err := sharedClient()
	if err != nil {
		return nil, err
	}
	return &Subscriber[T]{
		topic:  topic,
		client: c,
		inbox:  make(chan *T, inboxDepth),
	}, nil
}

// Init binds the topic on the shared connection.
func (s *Subscriber[T]) Init() error {
	token := s.client.Subscribe(s.topic, 0, s.onMessage)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("channel: subscribe %s timed out after %s", s.topic, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("channel: subscribe %s: %w", s.topic, err)
	}
	return nil
}

// onMessage decodes one payload into the inbox. An undecodable payload is
// dropped here with a log line; structural validation of decoded samples
// belongs to the consumer. A full inbox sheds the oldest entry.
func (s *Subscriber[T]) onMessage(_ mqtt.Client, msg mqtt.Message) {
	v := new(T)
	if err := json.Unmarshal(msg.Payload(), v); err != nil {
		log.Printf("channel: %s: payload unmarshal: %v", s.topic, err)
		return
	}
	for {
		select {
		case s.inbox <- v:
			return
		default:
			select {
			case <-s.inbox:
			default:
			}
		}
	}
}

// Read returns the next buffered message without blocking. ok is false
// when nothing new has arrived.
func (s *Subscriber[T]) Read() (*T, bool, error) {
	select {
	case v := <-s.inbox:
		return v, true, nil
	default:
		return nil, false, nil
	}
}

// Close releases the topic binding. Safe to call more than once.
func (s *Subscriber[T]) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	token := s.client.Unsubscribe(s.topic)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("channel: unsubscribe %s timed out after %s", s.topic, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("channel: unsubscribe %s: %w", s.topic, err)
	}
	return nil
}

// Publisher sends values of type T to one topic as JSON.
type Publisher[T any] struct {
	topic  string
	client mqtt.Client
}

// NewPublisher returns a publisher bound to topic.
func NewPublisher[T any](topic string) (*Publisher[T], error) {
	c, err := sharedClient()
	if err != nil {
		return nil, err
	}
	return &Publisher[T]{topic: topic, client: c}, nil
}

// Publish marshals v and sends it.
func (p *Publisher[T]) Publish(v *T) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("channel: marshal for %s: %w", p.topic, err)
	}
	return p.PublishBytes(payload)
}

// PublishBytes sends a raw payload. The bench producer uses this to inject
// deliberately malformed samples.
func (p *Publisher[T]) PublishBytes(payload []byte) error {
	token := p.client.Publish(p.topic, 0, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("channel: publish %s: %w", p.topic, token.Error())
	}
	return nil
}
