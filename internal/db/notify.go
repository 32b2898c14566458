package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// NotesChannel is the Postgres NOTIFY channel for finished notes.
const NotesChannel = "intake_notes"

// Notifier publishes and subscribes to note-ready events over Postgres
// LISTEN/NOTIFY, so dashboards or downstream exporters can react when a
// session's SOAP note lands without polling the notes table.
type Notifier struct {
	DB       *sql.DB
	ConnInfo string
	Channel  string
	Log      *zap.Logger
}

// NewNotifier constructs a Notifier.  connInfo is the same DSN used to open
// the pool; LISTEN needs its own dedicated connection.
func NewNotifier(db *sql.DB, connInfo string, log *zap.Logger) *Notifier {
	return &Notifier{DB: db, ConnInfo: connInfo, Channel: NotesChannel, Log: log}
}

// NotifyNoteReady announces that a session's note has been stored.
func (n *Notifier) NotifyNoteReady(ctx context.Context, sessionID string) error {
	_, err := n.DB.ExecContext(ctx, fmt.Sprintf("SELECT pg_notify(%s, $1)", pq.QuoteLiteral(n.Channel)), sessionID)
	if err != nil {
		return fmt.Errorf("notify %s: %w", n.Channel, err)
	}
	return nil
}

// Listen yields session ids as their notes become ready.  The returned
// channel closes when ctx is cancelled.
func (n *Notifier) Listen(ctx context.Context) (<-chan string, error) {
	listener := pq.NewListener(n.ConnInfo, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			n.Log.Warn("postgres listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	if err := listener.Listen(n.Channel); err != nil {
		_ = listener.Close()
		return nil, err
	}

	ch := make(chan string)
	go func() {
		defer func() {
			_ = listener.Close()
			close(ch)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case notification, ok := <-listener.Notify:
				if !ok {
					return
				}
				if notification == nil {
					// Reconnect marker from pq; nothing to deliver.
					continue
				}
				select {
				case ch <- notification.Extra:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
