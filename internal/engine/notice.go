package engine

import "time"

// Severity grades a notice for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is a user-facing event: a command settled, a poll failed, the
// session was invalidated. The engine publishes one for every terminal
// command state and every non-auth sync failure.
type Notice struct {
	Title       string
	Description string
	Severity    Severity
	At          time.Time
}

// Notifier receives notices as they happen. Publish must not block.
type Notifier interface {
	Publish(Notice)
}

// Feed is a bounded notice buffer. When full, the oldest entry is dropped so
// a slow or absent consumer never stalls the engine.
type Feed struct {
	ch chan Notice
}

// NewFeed returns a feed holding up to size notices.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 8
	}
	return &Feed{ch: make(chan Notice, size)}
}

// Publish appends the notice, evicting the oldest entry if needed.
func (f *Feed) Publish(n Notice) {
	for {
		select {
		case f.ch <- n:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

// C returns the channel the UI drains.
func (f *Feed) C() <-chan Notice {
	return f.ch
}

var _ Notifier = (*Feed)(nil)

type nopNotifier struct{}

func (nopNotifier) Publish(Notice) {}

var kindTitles = map[Kind]struct{ success, failure string }{
	KindStartMachine:     {"Machine started", "Start failed"},
	KindStopMachine:      {"Machine stopped", "Stop failed"},
	KindDiscardMachine:   {"Machine discarded", "Discard failed"},
	KindFuelMachine:      {"Machine fueled", "Fueling failed"},
	KindUpgradeMachine:   {"Machine upgraded", "Upgrade failed"},
	KindExchangeMinerals: {"Minerals exchanged", "Exchange failed"},
	KindBuyMachine:       {"Machine purchased", "Purchase failed"},
	KindBuySlot:          {"Slot purchased", "Purchase failed"},
	KindClaimDaily:       {"Daily reward claimed", "Claim failed"},
	KindCashout:          {"Cashout complete", "Cashout failed"},
}

func successNotice(cmd Command, at time.Time) Notice {
	titles, ok := kindTitles[cmd.Kind]
	if !ok {
		titles.success = "Action complete"
	}
	return Notice{Title: titles.success, Severity: SeveritySuccess, At: at}
}

// failureNotice carries the server's message so the player sees the reason
// the action was rejected, not a generic shrug.
func failureNotice(cmd Command, err error, at time.Time) Notice {
	titles, ok := kindTitles[cmd.Kind]
	if !ok {
		titles.failure = "Action failed"
	}
	desc := ""
	if err != nil {
		desc = err.Error()
	}
	return Notice{Title: titles.failure, Description: desc, Severity: SeverityError, At: at}
}
