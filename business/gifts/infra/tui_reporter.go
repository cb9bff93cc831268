// Package infra contains infrastructure adapters for the gifts context.
package infra

import (
	"context"
	"strings"

	"github.com/avkor/giftsniper/business/gifts/app"
	"github.com/avkor/giftsniper/business/gifts/domain"
	"github.com/avkor/giftsniper/internal/stars"
	"github.com/avkor/giftsniper/pkg/ui"
)

// TUIReporter implements app.Reporter by forwarding to the Bubble Tea
// program. The program itself is owned by main; the reporter only sends
// messages into it.
type TUIReporter struct{}

// NewTUIReporter creates a new TUIReporter.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{}
}

// Start initializes the TUI reporter.
func (r *TUIReporter) Start(ctx context.Context) error {
	return nil
}

// Report sends one sink line to the TUI log feed.
func (r *TUIReporter) Report(line string) {
	level := "info"
	lower := strings.ToLower(line)
	if strings.Contains(lower, "failed") || strings.Contains(lower, "error") {
		level = "warn"
	}
	ui.Send(ui.LogMsg{Level: level, Message: line})
}

// ReportBalance sends a balance readout to the TUI.
func (r *TUIReporter) ReportBalance(balance stars.Amount) {
	ui.Send(ui.BalanceMsg{Balance: balance.String()})
}

// ReportPurchase sends a completed purchase to the TUI.
func (r *TUIReporter) ReportPurchase(receipt domain.Receipt) {
	ui.Send(ui.PurchaseMsg{GiftID: receipt.GiftID, Price: receipt.Price.String()})
}

// UpdateRunState sends run phase changes to the TUI.
func (r *TUIReporter) UpdateRunState(state app.State) {
	ui.Send(ui.RunStateMsg{State: string(state)})
}

// UpdateConnectionStatus sends connection status to the TUI.
func (r *TUIReporter) UpdateConnectionStatus(name string, connected bool) {
	ui.Send(ui.ConnectionStatusMsg{Name: name, Connected: connected})
}

// Stop gracefully shuts down the TUI reporter.
func (r *TUIReporter) Stop() error {
	return nil
}
