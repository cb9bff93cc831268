// Package ui provides the Bubble Tea TUI for the gift sniper.
package ui

// Message types for TUI updates. Plain strings and scalars only: the
// UI displays what the application layer already formatted.

// LogMsg is sent to display a log line in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// BalanceMsg is sent with a fresh Stars balance readout.
type BalanceMsg struct {
	Balance string
}

// RunStateMsg is sent when the acquisition run changes phase.
type RunStateMsg struct {
	State string
}

// PurchaseMsg is sent when a gift purchase completes.
type PurchaseMsg struct {
	GiftID int64
	Price  string
}

// ConnectionStatusMsg is sent when a connection's status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}
