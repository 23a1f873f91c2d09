package chessclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/hotseat-chess/pkg/chessdto"
)

type WatchState int

const (
	WatchDisconnected WatchState = iota
	WatchConnecting
	WatchConnected
	WatchReconnecting
	WatchFailed
)

func (s WatchState) String() string {
	switch s {
	case WatchConnecting:
		return "connecting"
	case WatchConnected:
		return "connected"
	case WatchReconnecting:
		return "reconnecting"
	case WatchFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

type EventCallback func(ev *chessdto.Event)

type StateCallback func(state WatchState)

var ErrNotConnected = errors.New("watcher not connected")

type eventEntry struct {
	id       int
	callback EventCallback
}

type stateEntry struct {
	id       int
	callback StateCallback
}

// Watcher follows one game's live socket, redialing after drops.
type Watcher struct {
	wsURL string

	conn   *websocket.Conn
	connM  sync.Mutex
	state  WatchState
	stateM sync.RWMutex

	eventCbs []eventEntry
	stateCbs []stateEntry
	nextID   int
	cbM      sync.RWMutex

	maxReconnectAttempts int
	pingInterval         time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc

	headerProvider HeaderProvider
}

// Watch prepares a watcher for game id. Call Connect to start it.
func (c *Client) Watch(id string, maxReconnectAttempts int) *Watcher {
	return &Watcher{
		wsURL:                WatchURL(c.baseURL, id),
		state:                WatchDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		pingInterval:         30 * time.Second,
		stopCh:               make(chan struct{}),
		headerProvider:       c.headers,
	}
}

// WatchURL turns an http(s) server root into the game's websocket address.
func WatchURL(baseURL, id string) string {
	base := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/api/games/" + url.PathEscape(id) + "/ws"
}

func (w *Watcher) Connect(ctx context.Context) error {
	w.stateM.Lock()
	if w.state == WatchConnected || w.state == WatchConnecting {
		w.stateM.Unlock()
		return nil
	}
	w.stateM.Unlock()

	if w.rootCtx == nil {
		w.rootCtx, w.rootCancel = context.WithCancel(context.Background())
	}
	w.setState(WatchConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, err := w.dial(dialCtx)
	if err != nil {
		w.setState(WatchFailed)
		w.scheduleReconnect()
		return err
	}
	w.attach(conn)
	return nil
}

// Send writes a command frame. Replies and resulting state changes arrive
// through the event callbacks.
func (w *Watcher) Send(ctx context.Context, cmd chessdto.Command) error {
	conn := w.current()
	if conn == nil {
		return ErrNotConnected
	}
	return wsjson.Write(ctx, conn, cmd)
}

func (w *Watcher) State() WatchState {
	w.stateM.RLock()
	defer w.stateM.RUnlock()
	return w.state
}

func (w *Watcher) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, w.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      w.buildHeaders(),
	})
	return conn, err
}

func (w *Watcher) attach(conn *websocket.Conn) {
	w.connM.Lock()
	w.conn = conn
	w.connM.Unlock()
	w.setState(WatchConnected)

	w.wg.Add(2)
	go w.listen(conn)
	go w.pingLoop(conn)
}

func (w *Watcher) current() *websocket.Conn {
	w.connM.Lock()
	defer w.connM.Unlock()
	return w.conn
}

func (w *Watcher) listen(conn *websocket.Conn) {
	defer w.wg.Done()
	for {
		var ev chessdto.Event
		if err := wsjson.Read(w.rootCtx, conn, &ev); err != nil {
			if w.isStopping() {
				return
			}
			w.drop(conn, "reconnect")
			return
		}

		w.cbM.RLock()
		callbacks := make([]eventEntry, len(w.eventCbs))
		copy(callbacks, w.eventCbs)
		w.cbM.RUnlock()
		for _, entry := range callbacks {
			if entry.callback != nil {
				entry.callback(&ev)
			}
		}
	}
}

func (w *Watcher) pingLoop(conn *websocket.Conn) {
	defer w.wg.Done()
	t := time.NewTicker(w.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-w.stopCh:
			return
		case <-w.rootCtx.Done():
			return
		case <-t.C:
			if w.current() != conn {
				return
			}
			ctx, cancel := context.WithTimeout(w.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				if !w.isStopping() {
					w.drop(conn, "ping failure")
				}
				return
			}
		}
	}
}

// drop closes conn once and starts redialing if it is still the live one.
func (w *Watcher) drop(conn *websocket.Conn, reason string) {
	w.connM.Lock()
	live := w.conn == conn
	if live {
		w.conn = nil
	}
	w.connM.Unlock()
	_ = conn.Close(websocket.StatusGoingAway, reason)
	if !live {
		return
	}
	w.setState(WatchDisconnected)
	w.scheduleReconnect()
}

func (w *Watcher) scheduleReconnect() {
	if w.maxReconnectAttempts <= 0 {
		return
	}
	w.setState(WatchReconnecting)

	go func() {
		for attempt := 1; attempt <= w.maxReconnectAttempts; attempt++ {
			select {
			case <-w.stopCh:
				return
			case <-time.After(backoffDuration(attempt)):
			}

			dialCtx, cancel := context.WithTimeout(w.rootCtx, 10*time.Second)
			conn, err := w.dial(dialCtx)
			cancel()
			if err != nil {
				continue
			}
			if w.isStopping() {
				_ = conn.Close(websocket.StatusNormalClosure, "close")
				return
			}
			w.attach(conn)
			return
		}
		w.setState(WatchFailed)
	}()
}

func (w *Watcher) OnEvent(cb EventCallback) int {
	w.cbM.Lock()
	defer w.cbM.Unlock()
	w.nextID++
	w.eventCbs = append(w.eventCbs, eventEntry{id: w.nextID, callback: cb})
	return w.nextID
}

func (w *Watcher) RemoveEventCallback(id int) {
	w.cbM.Lock()
	defer w.cbM.Unlock()
	for i, cb := range w.eventCbs {
		if cb.id == id {
			w.eventCbs = append(w.eventCbs[:i], w.eventCbs[i+1:]...)
			break
		}
	}
}

func (w *Watcher) OnStateChange(cb StateCallback) int {
	w.cbM.Lock()
	defer w.cbM.Unlock()
	w.nextID++
	w.stateCbs = append(w.stateCbs, stateEntry{id: w.nextID, callback: cb})
	return w.nextID
}

func (w *Watcher) RemoveStateCallback(id int) {
	w.cbM.Lock()
	defer w.cbM.Unlock()
	for i, cb := range w.stateCbs {
		if cb.id == id {
			w.stateCbs = append(w.stateCbs[:i], w.stateCbs[i+1:]...)
			break
		}
	}
}

func (w *Watcher) setState(state WatchState) {
	w.stateM.Lock()
	w.state = state
	w.stateM.Unlock()

	w.cbM.RLock()
	callbacks := make([]stateEntry, len(w.stateCbs))
	copy(callbacks, w.stateCbs)
	w.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state)
		}
	}
}

func (w *Watcher) Close(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.connM.Lock()
	conn := w.conn
	w.conn = nil
	w.connM.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}
	if w.rootCancel != nil {
		w.rootCancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		w.setState(WatchDisconnected)
		return nil
	}
}

func (w *Watcher) isStopping() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *Watcher) buildHeaders() http.Header {
	hdr := http.Header{}
	if w.headerProvider == nil {
		return hdr
	}
	for k, v := range w.headerProvider() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
