package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ca-srg/footprint/internal/logging"
)

// SSEConfig holds configuration for the SSE manager
type SSEConfig struct {
	HeartbeatInterval time.Duration
	BufferSize        int
	MaxClients        int
}

// DefaultSSEConfig returns the default SSE configuration.
func DefaultSSEConfig() *SSEConfig {
	return &SSEConfig{
		HeartbeatInterval: 30 * time.Second,
		BufferSize:        32,
		MaxClients:        50,
	}
}

// SSEClient represents a connected SSE client
type SSEClient struct {
	ID       string
	Events   chan []byte
	Filters  []string // Event types to receive (empty = all)
	Done     chan struct{}
	mu       sync.Mutex
	isClosed bool
}

// SSEManager fans events out to connected clients.
type SSEManager struct {
	clients    map[string]*SSEClient
	mu         sync.RWMutex
	config     *SSEConfig
	logger     *zap.Logger
	eventQueue chan *SSEEvent

	// pendingView holds the newest view change not yet broadcast. It is kept
	// apart from eventQueue so a full queue never loses the latest view.
	viewMu      sync.Mutex
	pendingView *SSEEvent
	viewReady   chan struct{}

	// lastVersion is the newest view broadcast; owned by dispatchLoop.
	lastVersion uint64
}

// NewSSEManager creates a new SSE manager
func NewSSEManager(config *SSEConfig, logger *zap.Logger) *SSEManager {
	if config == nil {
		config = DefaultSSEConfig()
	}

	return &SSEManager{
		clients:    make(map[string]*SSEClient),
		config:     config,
		logger:     logging.OrNop(logger),
		eventQueue: make(chan *SSEEvent, config.BufferSize),
		viewReady:  make(chan struct{}, 1),
	}
}

// Run dispatches events and heartbeats until ctx is done, then disconnects
// every client.
func (m *SSEManager) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.dispatchLoop(ctx) })
	g.Go(func() error { return m.heartbeatLoop(ctx) })
	err := g.Wait()
	m.closeAll()
	return err
}

func (m *SSEManager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		m.closeClient(client)
	}
	m.clients = make(map[string]*SSEClient)
}

// RegisterClient registers a new SSE client
func (m *SSEManager) RegisterClient(id string, filters []string) (*SSEClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.clients) >= m.config.MaxClients {
		return nil, fmt.Errorf("maximum number of SSE clients reached")
	}

	client := &SSEClient{
		ID:      id,
		Events:  make(chan []byte, m.config.BufferSize),
		Filters: filters,
		Done:    make(chan struct{}),
	}

	m.clients[id] = client
	m.logger.Debug("SSE client registered", zap.String("client_id", id), zap.Int("total", len(m.clients)))
	return client, nil
}

// UnregisterClient removes an SSE client
func (m *SSEManager) UnregisterClient(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, ok := m.clients[id]; ok {
		m.closeClient(client)
		delete(m.clients, id)
		m.logger.Debug("SSE client unregistered", zap.String("client_id", id), zap.Int("remaining", len(m.clients)))
	}
}

// closeClient closes a client's channels safely
func (m *SSEManager) closeClient(client *SSEClient) {
	client.mu.Lock()
	defer client.mu.Unlock()

	if !client.isClosed {
		client.isClosed = true
		close(client.Done)
		close(client.Events)
	}
}

// SendEvent queues an event for broadcast. It never blocks. A full queue
// drops the event, except view changes: the newest one always survives.
func (m *SSEManager) SendEvent(event *SSEEvent) {
	if _, ok := event.Data.(*ViewChangedEvent); ok {
		m.offerView(event)
		return
	}
	select {
	case m.eventQueue <- event:
	default:
		m.logger.Warn("SSE event queue full, dropping event", zap.String("event", event.Event))
	}
}

func (m *SSEManager) dispatchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-m.eventQueue:
			m.broadcastEvent(event)
		case <-m.viewReady:
			if event := m.takeView(); event != nil {
				m.broadcastEvent(event)
			}
		}
	}
}

// offerView replaces the pending view change unless it is older.
func (m *SSEManager) offerView(event *SSEEvent) {
	m.viewMu.Lock()
	if m.pendingView == nil || event.Data.(*ViewChangedEvent).Version > m.pendingView.Data.(*ViewChangedEvent).Version {
		m.pendingView = event
	}
	m.viewMu.Unlock()

	select {
	case m.viewReady <- struct{}{}:
	default:
	}
}

func (m *SSEManager) takeView() *SSEEvent {
	m.viewMu.Lock()
	defer m.viewMu.Unlock()
	event := m.pendingView
	m.pendingView = nil
	return event
}

// broadcastEvent broadcasts an event to all matching clients. Listeners run
// outside the dispatcher lock, so view changes can arrive out of order; one
// older than the last broadcast is dropped.
func (m *SSEManager) broadcastEvent(event *SSEEvent) {
	view, isView := event.Data.(*ViewChangedEvent)
	if isView {
		if view.Version <= m.lastVersion {
			m.logger.Debug("Dropping stale view change", zap.Uint64("version", view.Version))
			return
		}
		m.lastVersion = view.Version
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		m.logger.Error("Failed to marshal SSE event data", zap.String("event", event.Event), zap.Error(err))
		return
	}

	message := formatSSEMessage(event.Event, data)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		if !shouldSendToClient(client, event.Event) {
			continue
		}
		select {
		case client.Events <- message:
		default:
			if isView && m.sendDisplacingOldest(client, message) {
				continue
			}
			m.logger.Warn("SSE client buffer full, dropping event", zap.String("client_id", client.ID))
		}
	}
}

// sendDisplacingOldest makes room in a full client buffer by discarding its
// oldest message. The client lock keeps the channel open meanwhile.
func (m *SSEManager) sendDisplacingOldest(client *SSEClient, message []byte) bool {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.isClosed {
		return false
	}
	select {
	case <-client.Events:
	default:
	}
	select {
	case client.Events <- message:
		return true
	default:
		return false
	}
}

func shouldSendToClient(client *SSEClient, eventType string) bool {
	if len(client.Filters) == 0 {
		return true
	}
	for _, filter := range client.Filters {
		if filter == eventType {
			return true
		}
	}
	return false
}

func (m *SSEManager) heartbeatLoop(ctx context.Context) error {
	ticker := time.NewTicker(m.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.SendEvent(&SSEEvent{
				Event: EventTypeHeartbeat,
				Data: map[string]interface{}{
					"timestamp": time.Now().Format(time.RFC3339),
				},
			})
		}
	}
}

// formatSSEMessage formats an SSE message
func formatSSEMessage(event string, data []byte) []byte {
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, string(data)))
}

// GetClientCount returns the number of connected clients
func (m *SSEManager) GetClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
