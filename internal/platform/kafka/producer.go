// Package kafka provides the audit event producer. Events are keyed by
// registrant ID so all events for one registrant land in the same partition
// in order.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/audit"
)

// Producer publishes audit events to a Kafka topic.
type Producer struct {
	client *kgo.Client
	topic  string
}

// auditRecord is the JSON payload published to the audit topic.
type auditRecord struct {
	Category     string `json:"category"`
	Timestamp    string `json:"timestamp"`
	RegistrantID string `json:"registrant_id"`
	PartnerID    string `json:"partner_id,omitempty"`
	Action       string `json:"action"`
	Email        string `json:"email,omitempty"`
	Reason       string `json:"reason,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
}

// NewProducer connects to the brokers and ensures the topic exists.
func NewProducer(ctx context.Context, brokers []string, topic string) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID("rcssa-match-backend"),
		kgo.DefaultProduceTopic(topic),
		kgo.ProduceRequestTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	resps, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create audit topic: %w", err)
	}
	for _, resp := range resps.Sorted() {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("create audit topic %s: %w", resp.Topic, resp.Err)
		}
	}

	return &Producer{client: client, topic: topic}, nil
}

// Publish sends one audit event, blocking until acked or ctx expires.
func (p *Producer) Publish(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(auditRecord{
		Category:     string(event.Category),
		Timestamp:    event.Timestamp.Format(time.RFC3339Nano),
		RegistrantID: event.RegistrantID.String(),
		PartnerID:    partnerField(event),
		Action:       event.Action,
		Email:        event.Email,
		Reason:       event.Reason,
		RequestID:    event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.RegistrantID.String()),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

func partnerField(event audit.Event) string {
	if event.PartnerID.IsNil() {
		return ""
	}
	return event.PartnerID.String()
}

// Close flushes and releases the client.
func (p *Producer) Close() {
	p.client.Close()
}
