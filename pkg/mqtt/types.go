package mqtt

import (
	"context"
)

// MessageHandler processes one received message. Handlers run on the
// receive goroutine and must not block for long.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Client is a subscribe-only MQTT client. The console never publishes to the
// fleet broker; it only observes vehicle status traffic.
type Client interface {
	// Start initiates the connection to the broker.
	// It is non-blocking and returns immediately. Use AwaitConnection to wait.
	Start(ctx context.Context) error

	// Disconnect cleanly closes the connection.
	Disconnect(ctx context.Context)

	// Subscribe registers a handler for a topic filter. Registered filters are
	// re-subscribed after every reconnect.
	Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error

	// Unsubscribe removes the handler and sends an UNSUBSCRIBE packet.
	Unsubscribe(ctx context.Context, topic string) error

	// AwaitConnection blocks until the client is connected to the broker.
	AwaitConnection(ctx context.Context) error
}
