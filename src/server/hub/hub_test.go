package hub

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/emilsandberg/sl-board/src/common/cache"
	"github.com/emilsandberg/sl-board/src/common/metrics"
	"github.com/emilsandberg/sl-board/src/common/types"
)

type fakeConn struct {
	mu     sync.Mutex
	writes [][]byte

	failWrites  atomic.Bool
	gate        chan struct{}
	gateWaiting atomic.Int32

	readCh    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		readCh: make(chan []byte),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	if f.gate != nil {
		f.gateWaiting.Add(1)
		<-f.gate
	}
	if f.failWrites.Load() {
		return errors.New("write on broken connection")
	}
	if messageType == websocket.TextMessage {
		f.mu.Lock()
		f.writes = append(f.writes, append([]byte(nil), data...))
		f.mu.Unlock()
	}
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-f.readCh:
		return websocket.TextMessage, msg, nil
	case <-f.closed:
		return 0, nil, errors.New("connection closed")
	}
}

func (f *fakeConn) SetReadLimit(int64) {}

func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeConn) textMessages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.writes))
	copy(out, f.writes)
	return out
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func decodeSnapshot(t *testing.T, payload []byte) types.Snapshot {
	t.Helper()
	var snap types.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		t.Fatalf("payload does not decode: %v", err)
	}
	return snap
}

func snapshotWith(n int) types.Snapshot {
	deps := make([]types.Departure, n)
	for i := range deps {
		deps[i] = types.Departure{Line: "1", Destination: "Fridhemsplan", MinutesUntil: i}
	}
	return types.NewSnapshot(deps, types.SourceLive, time.Now())
}

func newTestHub() (*Hub, *cache.Store) {
	store := cache.NewStore()
	return New(store, zap.NewNop().Sugar()), store
}

func TestRegisterPushesCurrentSnapshotOnce(t *testing.T) {
	h, store := newTestHub()
	defer h.Close()
	store.Set(snapshotWith(2))

	conn := newFakeConn()
	go h.Serve(conn)

	waitFor(t, func() bool { return len(conn.textMessages()) == 1 }, "no initial push")

	snap := decodeSnapshot(t, conn.textMessages()[0])
	if len(snap.Departures) != 2 {
		t.Errorf("initial push carried %d departures, want 2", len(snap.Departures))
	}

	time.Sleep(30 * time.Millisecond)
	if got := len(conn.textMessages()); got != 1 {
		t.Errorf("got %d pushes with no broadcast, want exactly 1", got)
	}
	if h.Count() != 1 {
		t.Errorf("got %d connections, want 1", h.Count())
	}

	conn.Close()
	waitFor(t, func() bool { return h.Count() == 0 }, "disconnect did not unregister")
}

func TestRegisterBeforeFirstFetchSendsSentinel(t *testing.T) {
	h, _ := newTestHub()
	defer h.Close()

	conn := newFakeConn()
	go h.Serve(conn)

	waitFor(t, func() bool { return len(conn.textMessages()) == 1 }, "no initial push")

	snap := decodeSnapshot(t, conn.textMessages()[0])
	if len(snap.Departures) != 0 || snap.Stale || !snap.FetchedAt.IsZero() {
		t.Errorf("got %+v, want the no-data sentinel", snap)
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	h, _ := newTestHub()
	defer h.Close()

	conns := []*fakeConn{newFakeConn(), newFakeConn(), newFakeConn()}
	for _, conn := range conns {
		go h.Serve(conn)
	}
	waitFor(t, func() bool { return h.Count() == 3 }, "clients did not register")
	for _, conn := range conns {
		conn := conn
		waitFor(t, func() bool { return len(conn.textMessages()) == 1 }, "missing initial push")
	}

	h.Broadcast(snapshotWith(1))

	for i, conn := range conns {
		conn := conn
		waitFor(t, func() bool { return len(conn.textMessages()) == 2 }, "missing broadcast")
		if got := decodeSnapshot(t, conn.textMessages()[1]); len(got.Departures) != 1 {
			t.Errorf("client %d got %d departures, want 1", i, len(got.Departures))
		}
	}
}

func TestSendFailureEvictsOnlyThatClient(t *testing.T) {
	h, _ := newTestHub()
	defer h.Close()

	conns := []*fakeConn{newFakeConn(), newFakeConn(), newFakeConn()}
	for _, conn := range conns {
		go h.Serve(conn)
	}
	for _, conn := range conns {
		conn := conn
		waitFor(t, func() bool { return len(conn.textMessages()) == 1 }, "missing initial push")
	}

	conns[1].failWrites.Store(true)
	h.Broadcast(snapshotWith(1))

	waitFor(t, func() bool { return h.Count() == 2 }, "failing client was not evicted")
	waitFor(t, func() bool { return conns[1].isClosed() }, "evicted connection was not closed")

	for _, i := range []int{0, 2} {
		conn := conns[i]
		waitFor(t, func() bool { return len(conn.textMessages()) == 2 }, "healthy client missed the broadcast")
	}
	if got := len(conns[1].textMessages()); got != 1 {
		t.Errorf("evicted client recorded %d deliveries, want just the initial one", got)
	}
}

func TestSlowConsumerGetsLatestOnly(t *testing.T) {
	h, _ := newTestHub()
	defer h.Close()

	conn := newFakeConn()
	conn.gate = make(chan struct{})
	go h.Serve(conn)

	waitFor(t, func() bool { return conn.gateWaiting.Load() >= 1 }, "pump never reached the gate")

	// pump is stuck writing the initial push; pile up three updates
	h.Broadcast(snapshotWith(1))
	h.Broadcast(snapshotWith(2))
	h.Broadcast(snapshotWith(3))

	close(conn.gate)

	waitFor(t, func() bool { return len(conn.textMessages()) == 2 }, "slow client never caught up")
	time.Sleep(30 * time.Millisecond)

	msgs := conn.textMessages()
	if len(msgs) != 2 {
		t.Fatalf("got %d deliveries, want initial plus latest", len(msgs))
	}
	if got := decodeSnapshot(t, msgs[0]); len(got.Departures) != 0 {
		t.Errorf("first delivery carried %d departures, want the initial snapshot", len(got.Departures))
	}
	if got := decodeSnapshot(t, msgs[1]); len(got.Departures) != 3 {
		t.Errorf("second delivery carried %d departures, want only the latest update", len(got.Departures))
	}
}

func TestPingGetsPong(t *testing.T) {
	h, _ := newTestHub()
	defer h.Close()

	conn := newFakeConn()
	go h.Serve(conn)
	waitFor(t, func() bool { return len(conn.textMessages()) == 1 }, "no initial push")

	conn.readCh <- []byte("ping")

	waitFor(t, func() bool {
		for _, msg := range conn.textMessages() {
			if string(msg) == "pong" {
				return true
			}
		}
		return false
	}, "ping was not answered")
}

func TestPongSendFailureEvictsAndIsCounted(t *testing.T) {
	h, _ := newTestHub()
	defer h.Close()

	conn := newFakeConn()
	go h.Serve(conn)
	waitFor(t, func() bool { return len(conn.textMessages()) == 1 }, "no initial push")

	before := testutil.ToFloat64(metrics.WebsocketSendFailures)
	conn.failWrites.Store(true)
	conn.readCh <- []byte("ping")

	waitFor(t, func() bool { return h.Count() == 0 }, "failed pong write did not evict the client")
	waitFor(t, func() bool { return conn.isClosed() }, "evicted connection was not closed")

	if got := testutil.ToFloat64(metrics.WebsocketSendFailures); got != before+1 {
		t.Errorf("got %v send failures recorded, want %v", got, before+1)
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	h, _ := newTestHub()
	defer h.Close()

	c := newClient(newFakeConn())
	if !h.register(c) {
		t.Fatal("register refused")
	}

	h.unregister(c)
	h.unregister(c)

	if h.Count() != 0 {
		t.Errorf("got %d connections, want 0", h.Count())
	}
}

func TestCloseEvictsEveryoneAndRefusesNewClients(t *testing.T) {
	h, _ := newTestHub()

	conns := []*fakeConn{newFakeConn(), newFakeConn()}
	for _, conn := range conns {
		go h.Serve(conn)
	}
	waitFor(t, func() bool { return h.Count() == 2 }, "clients did not register")

	h.Close()

	if h.Count() != 0 {
		t.Errorf("got %d connections after close, want 0", h.Count())
	}
	for _, conn := range conns {
		conn := conn
		waitFor(t, func() bool { return conn.isClosed() }, "client connection left open")
	}

	late := newFakeConn()
	done := make(chan struct{})
	go func() {
		h.Serve(late)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Serve on a closed hub should return immediately")
	}
	if !late.isClosed() {
		t.Error("refused connection should be closed")
	}
}
