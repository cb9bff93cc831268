package telegram

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avkor/giftsniper/business/gifts/app"
	"github.com/avkor/giftsniper/internal/logger"
	"github.com/avkor/giftsniper/internal/wsconn"
)

const connectionName = "Gateway"

// UpdatesFeed streams gateway update events to the reporter. It is
// presentation-only: the acquisition loop never reads from it, so a
// dropped feed cannot stall a run.
type UpdatesFeed struct {
	conn     *wsconn.Client
	reporter app.Reporter
	logger   logger.LoggerInterface
}

// NewUpdatesFeed creates the feed for the gateway's update stream.
func NewUpdatesFeed(url string, reporter app.Reporter, log logger.LoggerInterface) (*UpdatesFeed, error) {
	cfg := wsconn.DefaultConfig(url, connectionName)

	conn, err := wsconn.New(cfg)
	if err != nil {
		return nil, err
	}

	feed := &UpdatesFeed{
		conn:     conn,
		reporter: reporter,
		logger:   log,
	}
	conn.OnMessage(feed.onMessage)
	conn.OnStateChange(feed.onStateChange)

	return feed, nil
}

// Start connects the feed. Once connected, the client reconnects on
// its own after drops; an initial connect failure is the caller's to
// retry.
func (f *UpdatesFeed) Start(ctx context.Context) error {
	if err := f.conn.Connect(ctx); err != nil {
		f.logger.Warn(ctx, "updates feed connect failed", "error", err)
		f.reporter.UpdateConnectionStatus(connectionName, false)
		return err
	}
	return nil
}

// Stop closes the feed.
func (f *UpdatesFeed) Stop() error {
	return f.conn.Close()
}

func (f *UpdatesFeed) onMessage(ctx context.Context, msg []byte) {
	var event updateEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		f.logger.Debug(ctx, "unparseable update event", "error", err)
		return
	}

	switch event.Type {
	case "stars_balance":
		if event.Balance != nil {
			f.reporter.ReportBalance(event.Balance.toAmount())
		}
	case "stars_transaction":
		if event.Description != "" {
			f.reporter.Report(fmt.Sprintf("Stars transaction: %s", event.Description))
		}
	}
}

func (f *UpdatesFeed) onStateChange(state wsconn.State, err error) {
	connected := state == wsconn.StateConnected
	f.reporter.UpdateConnectionStatus(connectionName, connected)
	if err != nil {
		f.logger.Warn(context.Background(), "updates feed state change",
			"state", string(state), "error", err)
	}
}
