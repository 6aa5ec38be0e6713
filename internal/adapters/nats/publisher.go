package natsadapter

import "context"

// Publish announces that the slot under key changed.
func (n *Notifier) Publish(ctx context.Context, key string) error {
	return n.conn.Publish(Subject(key), []byte(key))
}
