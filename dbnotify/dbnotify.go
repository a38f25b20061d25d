/*
package dbnotify provides a backchannel from the database to push changes to
models out to other locations.

Triggers in the schema send a JSON NotificationEvent on "<table>_changes"
whenever a row is written.  A Listener hands each event to the Consumer for
that table; ChangeDispatcher is the usual Consumer, which drops the stale
cache entry and optionally reads the new version through.
*/
package dbnotify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/ts4z/chipclock/varz"
)

const (
	sleepOnErrorTime = 5 * time.Second
)

var (
	notificationsReceived = varz.NewInt("notificationsReceived")
	notificationsDropped  = varz.NewInt("notificationsDropped")
)

type NotificationEvent struct {
	Table   string
	OnID    int64
	Version int64
}

// ParseNotification decodes a trigger payload.
func ParseNotification(payload string) (*NotificationEvent, error) {
	event := &NotificationEvent{}
	if err := json.Unmarshal([]byte(payload), event); err != nil {
		return nil, fmt.Errorf("can't unmarshal notification payload %q: %w", payload, err)
	}
	if event.Table == "" {
		return nil, fmt.Errorf("notification payload %q has no table", payload)
	}
	return event, nil
}

type CacheInvalidator interface {
	CacheInvalidate(ctx context.Context, key int64, version int64)
}

type StorageFetcher[StoredType any] interface {
	Fetch(ctx context.Context, id int64) (StoredType, error)
}

type Consumer interface {
	TableName() string
	Consume(ctx context.Context, event *NotificationEvent)
}

// ChangeDispatcher invalidates a cache on change.  If a fetcher is given,
// the changed item is read back (warming the cache again) and passed to
// notify.
type ChangeDispatcher[StoredType any] struct {
	tableName string
	cache     CacheInvalidator
	fetcher   StorageFetcher[StoredType]
	notify    func(ctx context.Context, m StoredType)
}

func NewChangeDispatcher[StoredType any](tableName string, cache CacheInvalidator, fetcher StorageFetcher[StoredType], notify func(context.Context, StoredType)) *ChangeDispatcher[StoredType] {
	return &ChangeDispatcher[StoredType]{
		tableName: tableName,
		cache:     cache,
		fetcher:   fetcher,
		notify:    notify,
	}
}

func (cd *ChangeDispatcher[StoredType]) TableName() string {
	return cd.tableName
}

func (cd *ChangeDispatcher[StoredType]) Consume(ctx context.Context, event *NotificationEvent) {
	cd.cache.CacheInvalidate(ctx, event.OnID, event.Version)

	if cd.fetcher == nil {
		return
	}

	// Read-through.
	item, err := cd.fetcher.Fetch(ctx, event.OnID)
	if err != nil {
		log.Printf("drop notification: can't fetch %s %d: %v", cd.tableName, event.OnID, err)
		return
	}
	if cd.notify != nil {
		cd.notify(ctx, item)
	}
}

type Listener struct {
	db                  *sql.DB
	tableNameToConsumer map[string]Consumer
}

func NewListener(db *sql.DB, consumers ...Consumer) (*Listener, error) {
	m := make(map[string]Consumer)
	for _, c := range consumers {
		tableName := c.TableName()
		if _, exists := m[tableName]; exists {
			return nil, fmt.Errorf("duplicate consumer for table %s", tableName)
		}
		m[tableName] = c
	}

	return &Listener{db: db, tableNameToConsumer: m}, nil
}

// Dispatch hands an event to its table's consumer.
func (l *Listener) Dispatch(ctx context.Context, event *NotificationEvent) bool {
	c, ok := l.tableNameToConsumer[event.Table]
	if !ok {
		log.Printf("no listener for table %s", event.Table)
		notificationsDropped.Add(1)
		return false
	}
	c.Consume(ctx, event)
	return true
}

// Run listens until ctx is done, reconnecting after errors.
func (l *Listener) Run(ctx context.Context) {
	for {
		err := l.Listen(ctx)
		if ctx.Err() != nil {
			log.Printf("stopping db notification listener: %v", ctx.Err())
			return
		}
		log.Printf("warning: db notification listener failed, retrying in %v: %v", sleepOnErrorTime, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleepOnErrorTime):
		}
	}
}

// Listen holds one connection and dispatches notifications from it until
// ctx is done or the connection fails.
func (l *Listener) Listen(ctx context.Context) error {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	var pgxConn *stdlib.Conn
	err = conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("driver connection is %T, not pgx", driverConn)
		}
		pgxConn = c
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to get pgx connection: %w", err)
	}

	for table := range l.tableNameToConsumer {
		channel := fmt.Sprintf("%s_changes", table)
		if _, err := pgxConn.Conn().Exec(ctx, "LISTEN "+channel); err != nil {
			return fmt.Errorf("failed to listen on channel %s: %w", channel, err)
		}
	}

	for {
		var notification *pgconn.Notification
		if nf, err := pgxConn.Conn().WaitForNotification(ctx); err == nil {
			notification = nf
		} else {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("error waiting for notification: %w", err)
		}

		notificationsReceived.Add(1)
		event, err := ParseNotification(notification.Payload)
		if err != nil {
			log.Printf("warning: %v", err)
			notificationsDropped.Add(1)
			continue
		}
		log.Printf("debug: db notification from pid %d: %+v", notification.PID, event)

		go l.Dispatch(ctx, event)
	}
}
