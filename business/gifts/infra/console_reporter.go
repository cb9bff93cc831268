// Package infra contains infrastructure adapters for the gifts context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/avkor/giftsniper/business/gifts/app"
	"github.com/avkor/giftsniper/business/gifts/domain"
	"github.com/avkor/giftsniper/internal/stars"
)

// ConsoleReporter implements app.Reporter for CLI output.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{
		out: os.Stdout,
	}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.line("Gift Sniper Started")
	r.line("===================")
	return nil
}

// Report outputs one sink line.
func (r *ConsoleReporter) Report(line string) {
	r.line(line)
}

// ReportBalance outputs a Stars balance readout.
func (r *ConsoleReporter) ReportBalance(balance stars.Amount) {
	r.line(fmt.Sprintf("Balance: %s Stars", balance))
}

// ReportPurchase outputs a completed purchase.
func (r *ConsoleReporter) ReportPurchase(receipt domain.Receipt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "==================================================")
	fmt.Fprintln(r.out, "GIFT PURCHASED")
	fmt.Fprintln(r.out, "==================================================")
	fmt.Fprintf(r.out, "Gift:   %d\n", receipt.GiftID)
	fmt.Fprintf(r.out, "Price:  %s Stars\n", receipt.Price)
	fmt.Fprintln(r.out, "==================================================")
}

// UpdateRunState outputs run phase changes.
func (r *ConsoleReporter) UpdateRunState(state app.State) {
	r.line(fmt.Sprintf("[%s]", state))
}

// UpdateConnectionStatus outputs connection status changes.
func (r *ConsoleReporter) UpdateConnectionStatus(name string, connected bool) {
	status := "disconnected"
	if connected {
		status = "connected"
	}
	r.line(fmt.Sprintf("%s: %s", name, status))
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	r.line("")
	r.line("Gift Sniper Stopped")
	return nil
}

func (r *ConsoleReporter) line(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, s)
}
