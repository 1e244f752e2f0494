// Package events publie les changements de commande sur Kafka.
package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusUpdated = "order.status_updated"

	DefaultOrdersTopic = "electrocart.orders"
)

type OrderEvent struct {
	Type           string    `json:"type"`
	OrderID        string    `json:"order_id"`
	UserID         string    `json:"user_id"`
	Status         string    `json:"status"`
	DeliveryStatus string    `json:"delivery_status"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	IsPaid         bool      `json:"is_paid"`
	Total          float64   `json:"total"`
	ActorID        string    `json:"actor_id,omitempty"`
	At             time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, evt OrderEvent)
}

// NopPublisher quand KAFKA_BROKERS n'est pas défini
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) {}

// Producer écrit en asynchrone via une boîte d'envoi; la clé du message est l'ID de commande,
// ce qui garde l'ordre des événements d'une même commande dans une partition.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	once    sync.Once
}

func NewProducer(brokers []string, topic string, buf int) *Producer {
	if topic == "" {
		topic = DefaultOrdersTopic
	}
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start lance la boucle d'envoi; à l'annulation de ctx les messages restants sont vidés.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.Close()
				for m := range p.inbox {
					p.write(m)
				}
				_ = p.w.Close()
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		log.Printf("❌ Kafka: envoi %s échoué: %v", m.Key, err)
	}
}

// Publish ne bloque jamais la requête: si la boîte d'envoi est pleine, l'événement est abandonné.
func (p *Producer) Publish(_ context.Context, evt OrderEvent) {
	value, err := json.Marshal(evt)
	if err != nil {
		log.Printf("❌ Kafka: sérialisation événement %s: %v", evt.Type, err)
		return
	}
	msg := kafka.Message{
		Key:     []byte(evt.OrderID),
		Value:   value,
		Time:    evt.At,
		Headers: []kafka.Header{{Key: "type", Value: []byte(evt.Type)}},
	}
	defer func() {
		if recover() != nil {
			log.Printf("⚠️ Kafka: producteur fermé, événement %s ignoré", evt.Type)
		}
	}()
	select {
	case p.inbox <- msg:
	default:
		log.Printf("⚠️ Kafka: boîte d'envoi pleine, événement %s ignoré", evt.Type)
	}
}

func (p *Producer) Close() { p.once.Do(func() { close(p.inbox) }) }

func (p *Producer) WaitClosed() { <-p.closeCh }
