package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/api"
)

// testState is the shared fixture: two drills and an excavator, 200 oil.
// Drill: base cost 100, max level 5, tank size 40. Multiplier 1.5.
func testState() *api.StateSnapshot {
	return &api.StateSnapshot{
		Config: &api.GameConfig{
			MachineTypes: map[string]api.MachineType{
				"drill":     {Kind: "drill", DisplayName: "Drill", BaseCost: 100, MaxLevel: 5, TankSize: 40, BaseYield: 2, Mineral: "iron"},
				"excavator": {Kind: "excavator", DisplayName: "Excavator", BaseCost: 500, MaxLevel: 3, TankSize: 100, BaseYield: 9, Mineral: "gold"},
			},
			UpgradeCostMultiplier: 1.5,
			SlotCost:              250,
			DailyReward:           25,
			ExchangeRates:         map[string]float64{"iron": 0.5, "gold": 4},
		},
		Profile: &api.Profile{UserID: "u1", Name: "Dana", HumanVerified: true},
		PlayerState: &api.PlayerState{
			OilBalance:     200,
			DiamondBalance: 10,
			Minerals:       map[string]float64{"iron": 120},
			PurchasedSlots: 1,
			MaxSlots:       4,
		},
		Machines: []api.Machine{
			{ID: "m1", Type: "drill", Level: 1, FuelLevel: 10},
			{ID: "m2", Type: "drill", Level: 3, Active: true},
			{ID: "m3", Type: "excavator", Level: 1, FuelLevel: 50},
		},
	}
}

type fakeClient struct {
	fetch  func(ctx context.Context) (*api.StateSnapshot, error)
	invoke func(ctx context.Context, action string, payload map[string]any) (*api.ActionResult, error)

	fetchCalls atomic.Int32
}

var _ api.StateClient = (*fakeClient)(nil)

func (f *fakeClient) FetchState(ctx context.Context) (*api.StateSnapshot, error) {
	f.fetchCalls.Add(1)
	if f.fetch == nil {
		return testState(), nil
	}
	return f.fetch(ctx)
}

func (f *fakeClient) InvokeAction(ctx context.Context, action string, payload map[string]any) (*api.ActionResult, error) {
	if f.invoke == nil {
		return &api.ActionResult{}, nil
	}
	return f.invoke(ctx, action, payload)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recordingNotifier) Publish(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	titles := make([]string, len(r.notices))
	for i, n := range r.notices {
		titles[i] = n.Title
	}
	return titles
}

func (r *recordingNotifier) last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

type fakeSessions struct {
	clears atomic.Int32
}

func (f *fakeSessions) Clear() error {
	f.clears.Add(1)
	return nil
}

func newTestEngine(client api.StateClient, notifier Notifier, sessions SessionClearer) *Engine {
	return New(Options{
		Client:         client,
		Sessions:       sessions,
		Notifier:       notifier,
		Log:            zerolog.Nop(),
		PollForeground: time.Hour,
		PollBackground: time.Hour,
	})
}

// startEngine runs the engine for the duration of the test and waits for
// the initial load to land.
func startEngine(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Errorf("engine did not stop")
		}
	})
	require.Eventually(t, func() bool { return e.Snapshot().Ready }, 2*time.Second, 5*time.Millisecond)
}

func receive(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for command result")
		return nil
	}
}

func TestEngineSerializesCommands(t *testing.T) {
	var inFlight atomic.Int32
	var overlapped atomic.Bool
	var mu sync.Mutex
	var order []string

	client := &fakeClient{}
	client.invoke = func(_ context.Context, _ string, payload map[string]any) (*api.ActionResult, error) {
		if inFlight.Add(1) > 1 {
			overlapped.Store(true)
		}
		time.Sleep(2 * time.Millisecond)
		mu.Lock()
		order = append(order, fmt.Sprintf("%v", payload["machineId"]))
		mu.Unlock()
		inFlight.Add(-1)
		return &api.ActionResult{}, nil
	}

	e := newTestEngine(client, nil, nil)
	startEngine(t, e)

	var results []<-chan error
	for i := 0; i < 5; i++ {
		results = append(results, e.Enqueue(Command{Kind: KindStartMachine, MachineID: fmt.Sprintf("q%d", i)}))
	}
	for _, ch := range results {
		require.NoError(t, receive(t, ch))
	}

	assert.False(t, overlapped.Load(), "two commands were in flight at once")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"q0", "q1", "q2", "q3", "q4"}, order, "commands must run in enqueue order")
}

func TestEngineSuccessMergesPartialResult(t *testing.T) {
	client := &fakeClient{}
	client.invoke = func(_ context.Context, action string, _ map[string]any) (*api.ActionResult, error) {
		if action != "exchange_minerals" {
			return nil, fmt.Errorf("unexpected action %q", action)
		}
		return &api.ActionResult{
			PlayerState: &api.PlayerState{OilBalance: 160, DiamondBalance: 70, Minerals: map[string]float64{"iron": 0}},
		}, nil
	}
	notifier := &recordingNotifier{}

	e := newTestEngine(client, notifier, nil)
	startEngine(t, e)

	require.NoError(t, receive(t, e.Enqueue(Command{Kind: KindExchangeMinerals, Mineral: "iron"})))

	snap := e.Snapshot()
	assert.Equal(t, 70.0, snap.Player.DiamondBalance)
	assert.Equal(t, 0.0, snap.Player.Minerals["iron"])
	assert.Len(t, snap.Machines, 3, "machines were absent from the result and must stay put")
	assert.Contains(t, notifier.titles(), "Minerals exchanged")
}

func TestEngineFailureRollsBackExactly(t *testing.T) {
	client := &fakeClient{}
	client.invoke = func(context.Context, string, map[string]any) (*api.ActionResult, error) {
		return nil, &api.Error{Status: 400, Message: "Not enough oil"}
	}
	notifier := &recordingNotifier{}

	e := newTestEngine(client, notifier, nil)
	startEngine(t, e)
	before := e.Snapshot()

	err := receive(t, e.Enqueue(Command{Kind: KindFuelMachine, MachineID: "m1"}))

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Not enough oil", apiErr.Message)

	after := e.Snapshot()
	assert.Equal(t, before.Player, after.Player)
	assert.Equal(t, before.Machines, after.Machines)

	last, ok := notifier.last()
	require.True(t, ok)
	assert.Equal(t, "Fueling failed", last.Title)
	assert.Equal(t, "Not enough oil", last.Description)
	assert.Equal(t, SeverityError, last.Severity)
}

func TestEngineStartThenStopSettlesOnServerAnswer(t *testing.T) {
	stopAnswer := api.Machine{ID: "m1", Type: "drill", Level: 1, FuelLevel: 7}
	client := &fakeClient{}
	client.invoke = func(_ context.Context, action string, _ map[string]any) (*api.ActionResult, error) {
		switch action {
		case "start_machine":
			return &api.ActionResult{Machines: []api.Machine{{ID: "m1", Type: "drill", Level: 1, FuelLevel: 9, Active: true}}}, nil
		case "stop_machine":
			return &api.ActionResult{Machines: []api.Machine{stopAnswer}}, nil
		default:
			return nil, fmt.Errorf("unexpected action %q", action)
		}
	}

	e := newTestEngine(client, nil, nil)
	startEngine(t, e)

	first := e.Enqueue(Command{Kind: KindStartMachine, MachineID: "m1"})
	second := e.Enqueue(Command{Kind: KindStopMachine, MachineID: "m1"})
	require.NoError(t, receive(t, first))
	require.NoError(t, receive(t, second))

	snap := e.Snapshot()
	require.Len(t, snap.Machines, 1)
	assert.Equal(t, stopAnswer, snap.Machines[0])
}

func TestEngineAuthFailureClearsSessionOnce(t *testing.T) {
	client := &fakeClient{}
	client.invoke = func(context.Context, string, map[string]any) (*api.ActionResult, error) {
		return nil, &api.Error{Status: 401, Message: "Invalid session token"}
	}
	notifier := &recordingNotifier{}
	sessions := &fakeSessions{}

	e := newTestEngine(client, notifier, sessions)
	startEngine(t, e)

	require.Error(t, receive(t, e.Enqueue(Command{Kind: KindBuySlot})))
	require.Error(t, receive(t, e.Enqueue(Command{Kind: KindBuySlot})))

	assert.EqualValues(t, 1, sessions.clears.Load(), "the session must be cleared exactly once")
	assert.Equal(t, []string{"Signed out"}, notifier.titles(), "auth failures suppress the generic failure notice")
	assert.False(t, e.Snapshot().Ready, "the mirror must not outlive the session")
}

func TestEngineQueueFullResolvesImmediately(t *testing.T) {
	e := New(Options{Client: &fakeClient{}, Log: zerolog.Nop(), QueueSize: 2})
	// No worker is running, so the buffer fills and stays full.

	a := e.Enqueue(Command{Kind: KindClaimDaily})
	b := e.Enqueue(Command{Kind: KindClaimDaily})
	c := e.Enqueue(Command{Kind: KindClaimDaily})

	require.ErrorIs(t, receive(t, c), ErrQueueFull)
	select {
	case <-a:
		t.Fatal("buffered command resolved without a worker")
	case <-b:
		t.Fatal("buffered command resolved without a worker")
	default:
	}
}

func TestEngineDrainResolvesPendingCommands(t *testing.T) {
	e := New(Options{Client: &fakeClient{}, Log: zerolog.Nop(), QueueSize: 4})

	var pending []<-chan error
	for i := 0; i < 3; i++ {
		pending = append(pending, e.Enqueue(Command{Kind: KindClaimDaily}))
	}

	e.drainQueue()

	for _, ch := range pending {
		require.ErrorIs(t, receive(t, ch), ErrShuttingDown)
	}
	require.ErrorIs(t, receive(t, e.Enqueue(Command{Kind: KindClaimDaily})), ErrShuttingDown)
}

func TestEngineShutdownResolvesQueuedCommands(t *testing.T) {
	gate := make(chan struct{})
	client := &fakeClient{}
	client.invoke = func(context.Context, string, map[string]any) (*api.ActionResult, error) {
		<-gate
		return &api.ActionResult{}, nil
	}

	e := newTestEngine(client, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(runDone)
	}()
	require.Eventually(t, func() bool { return e.Snapshot().Ready }, 2*time.Second, 5*time.Millisecond)

	first := e.Enqueue(Command{Kind: KindClaimDaily})
	second := e.Enqueue(Command{Kind: KindClaimDaily})
	require.Eventually(t, func() bool { return e.mutating.Load() }, 2*time.Second, time.Millisecond)

	cancel()
	close(gate)

	require.NoError(t, receive(t, first), "the in-flight command settles normally")
	require.ErrorIs(t, receive(t, second), ErrShuttingDown)

	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
