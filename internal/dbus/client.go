package dbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// EventKind distinguishes the notification signals a Client observes.
type EventKind string

const (
	EventClosed EventKind = "closed"
	EventAction EventKind = "action"
)

// Event is a NotificationClosed or ActionInvoked signal.
type Event struct {
	Kind      EventKind
	ID        uint32
	Reason    CloseReason // EventClosed only
	ActionKey string      // EventAction only
}

// Client talks to whichever notification server owns the bus name.
type Client struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// NewClient opens a private session bus connection.
func NewClient(logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{conn: conn, logger: logger}, nil
}

func (c *Client) object() dbus.BusObject {
	return c.conn.Object(DBusBusName, DBusPath)
}

// Notify sends a notification and returns the id the server assigned.
func (c *Client) Notify(ctx context.Context, n *DBusNotification) (uint32, error) {
	actions := n.Actions
	if actions == nil {
		actions = []string{}
	}
	hints := n.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}

	var id uint32
	err := c.object().CallWithContext(ctx, DBusInterface+".Notify", 0,
		n.AppName, n.ReplacesID, n.AppIcon, n.Summary, n.Body, actions, hints, n.ExpireTimeout,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", err)
	}
	c.logger.Debug("notification sent", "id", id)
	return id, nil
}

// CloseNotification asks the server to close id.
func (c *Client) CloseNotification(ctx context.Context, id uint32) error {
	if err := c.object().CallWithContext(ctx, DBusInterface+".CloseNotification", 0, id).Err; err != nil {
		return fmt.Errorf("failed to close notification %d: %w", id, err)
	}
	return nil
}

// ServerInformation queries the running server.
func (c *Client) ServerInformation(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	err := c.object().CallWithContext(ctx, DBusInterface+".GetServerInformation", 0).
		Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("failed to get server information: %w", err)
	}
	return info, nil
}

// Watch subscribes to notification signals. Subscribe before Notify so no
// signal for the new id is missed. The channel closes when ctx is done.
func (c *Client) Watch(ctx context.Context) (<-chan Event, error) {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(DBusPath),
		dbus.WithMatchInterface(DBusInterface),
	}
	if err := c.conn.AddMatchSignal(opts...); err != nil {
		return nil, fmt.Errorf("failed to add signal match: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	c.conn.Signal(signals)

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer func() {
			c.conn.RemoveSignal(signals)
			_ = c.conn.RemoveMatchSignal(opts...)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				ev, ok := parseSignal(sig)
				if !ok {
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}

// WaitClosed blocks until id closes and returns the close reason. Action
// invocations seen on the way are returned as well.
func (c *Client) WaitClosed(ctx context.Context, events <-chan Event, id uint32) (CloseReason, []string, error) {
	var actions []string
	for {
		select {
		case <-ctx.Done():
			return 0, actions, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return 0, actions, fmt.Errorf("signal stream closed")
			}
			if ev.ID != id {
				continue
			}
			switch ev.Kind {
			case EventAction:
				actions = append(actions, ev.ActionKey)
			case EventClosed:
				return ev.Reason, actions, nil
			}
		}
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// parseSignal decodes a NotificationClosed or ActionInvoked signal.
func parseSignal(sig *dbus.Signal) (Event, bool) {
	if sig == nil || len(sig.Body) < 2 {
		return Event{}, false
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return Event{}, false
	}

	switch sig.Name {
	case DBusInterface + ".NotificationClosed":
		reason, ok := sig.Body[1].(uint32)
		if !ok {
			return Event{}, false
		}
		return Event{Kind: EventClosed, ID: id, Reason: CloseReason(reason)}, true
	case DBusInterface + ".ActionInvoked":
		key, ok := sig.Body[1].(string)
		if !ok {
			return Event{}, false
		}
		return Event{Kind: EventAction, ID: id, ActionKey: key}, true
	}
	return Event{}, false
}
