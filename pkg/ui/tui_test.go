package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func dashboardModel(defaults FormDefaults) Model {
	m := New(defaults)
	m.phase = PhaseDashboard
	return m
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestDashboard_BalanceUsesFormSession(t *testing.T) {
	// The balance key must read the session currently in the form, not
	// the configured default.
	got := make(chan string, 1)
	OnCheckBalance = func(session string) { got <- session }
	t.Cleanup(func() { OnCheckBalance = nil })

	m := dashboardModel(FormDefaults{
		Session:       "configured.session",
		Recipient:     "me",
		MaxPriceStars: 500,
		PollInterval:  15 * time.Second,
	})
	m.inputs[fieldSession].SetValue("edited.session")

	m.updateDashboard(keyPress('b'))

	select {
	case session := <-got:
		if session != "edited.session" {
			t.Errorf("balance session = %q, want edited.session", session)
		}
	case <-time.After(time.Second):
		t.Fatal("balance callback was not invoked")
	}
}

func TestDashboard_StartUsesFormValues(t *testing.T) {
	type startArgs struct {
		session, recipient string
		maxPrice           int64
		interval           time.Duration
	}
	got := make(chan startArgs, 1)
	OnStartRun = func(session, recipient string, maxPriceStars int64, pollInterval time.Duration) {
		got <- startArgs{session, recipient, maxPriceStars, pollInterval}
	}
	t.Cleanup(func() { OnStartRun = nil })

	m := dashboardModel(FormDefaults{
		Session:       "tg_gifts.session",
		Recipient:     "me",
		MaxPriceStars: 500,
		PollInterval:  15 * time.Second,
	})
	m.inputs[fieldRecipient].SetValue("someuser")
	m.inputs[fieldMaxPrice].SetValue("250")
	m.inputs[fieldInterval].SetValue("5s")

	m.updateDashboard(keyPress('s'))

	select {
	case args := <-got:
		if args.recipient != "someuser" || args.maxPrice != 250 || args.interval != 5*time.Second {
			t.Errorf("start args = %+v", args)
		}
	case <-time.After(time.Second):
		t.Fatal("start callback was not invoked")
	}
}

func TestForm_RejectsInvalidMaxPrice(t *testing.T) {
	OnStartRun = func(string, string, int64, time.Duration) {
		t.Error("start callback invoked with an invalid max price")
	}
	t.Cleanup(func() { OnStartRun = nil })

	m := dashboardModel(FormDefaults{PollInterval: 15 * time.Second})
	m.inputs[fieldMaxPrice].SetValue("not-a-number")

	updated, _ := m.startRun()
	model := updated.(Model)
	if model.phase != PhaseForm {
		t.Errorf("phase = %v, want form re-shown on invalid input", model.phase)
	}
	if model.formError == "" {
		t.Error("formError is empty, want a validation message")
	}
}
