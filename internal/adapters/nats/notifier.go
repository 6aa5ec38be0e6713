package natsadapter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/fadepin/internal/core/ports"
)

// SubjectPrefix is prepended to the slot key to form the change subject.
const SubjectPrefix = "fadepin.slot."

var _ ports.ChangeNotifier = (*Notifier)(nil)

// Notifier implements ports.ChangeNotifier over core NATS. Messages carry
// only the slot key; receivers re-read the slot.
type Notifier struct {
	conn *nats.Conn

	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewNotifier connects to NATS.
func NewNotifier(url string) (*Notifier, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Notifier{conn: conn}, nil
}

// NewNotifierWithConn shares an existing connection.
func NewNotifierWithConn(conn *nats.Conn) *Notifier {
	return &Notifier{conn: conn}
}

// RawConn creates a plain NATS connection that keeps reconnecting.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("fadepin"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// Subject returns the subject used for key. Characters NATS treats as
// tokens or wildcards are replaced.
func Subject(key string) string {
	r := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")
	return SubjectPrefix + r.Replace(key)
}

// Connected reports whether the connection is currently up.
func (n *Notifier) Connected() bool {
	return n.conn.IsConnected()
}

// Close unsubscribes and drains.
func (n *Notifier) Close() {
	n.mu.Lock()
	for _, sub := range n.subs {
		_ = sub.Unsubscribe()
	}
	n.subs = nil
	n.mu.Unlock()
	_ = n.conn.Drain()
}
