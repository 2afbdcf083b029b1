// Package hub implements the SAMP hub core: the client registry,
// subscription index, message router, and call-tracking table shared
// by both the Standard and Web Profiles. It is the heart of the
// system — everything else is rendezvous and wire framing around it.
//
// The hub never speaks HTTP or XML-RPC. Profiles call into it with
// already-decoded SAMP values and supply a Deliverer per client that
// the hub uses to push callbacks back out; this is how one hub core
// serves two unrelated wire protocols at once (spec §4.6).
package hub

import (
	"sync"

	"github.com/lvalerom/jsamp/internal/sampvalue"
)

// Event is a lifecycle notification the hub broadcasts to subscribed
// clients and offers to registered Observers. MType is one of the
// samp.hub.event.* names in spec §4.4.
type Event struct {
	MType    string
	ClientID string
	Extra    sampvalue.Value // the event's "extra" params entry, or nil
}

// Observer receives every lifecycle event the hub emits (register,
// unregister, metadata, subscriptions, shutdown), in the order they
// occur. This replaces the teacher corpus's inheritance-based hub
// variants (basic/gui/message-tracker) per spec §9's redesign
// guidance, with no subclass required. Routed messages (notify, call,
// callAndWait, reply) are not passed to observers.
type Observer interface {
	HubEvent(Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) HubEvent(e Event) { f(e) }

// Config bounds the hub's resource usage, per spec §5.
type Config struct {
	MaxClients           int // default 4096
	MaxDeliveryPerTarget int // default 16
}

// DefaultConfig returns the resource bounds spec §5 names as defaults.
func DefaultConfig() Config {
	return Config{MaxClients: 4096, MaxDeliveryPerTarget: 16}
}

// Hub is the registry + router + call-tracking core. Construct one
// per running hub process; the Standard and Web Profiles each hold a
// reference to it and translate their own wire protocol into calls on
// its exported methods.
type Hub struct {
	registry *Registry
	calls    *callTable

	mu        sync.RWMutex
	observers []Observer

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// New constructs a Hub with the given resource bounds.
func New(cfg Config) *Hub {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 4096
	}
	if cfg.MaxDeliveryPerTarget <= 0 {
		cfg.MaxDeliveryPerTarget = 16
	}
	return &Hub{
		registry:   NewRegistry(cfg.MaxClients, cfg.MaxDeliveryPerTarget),
		calls:      newCallTable(),
		shutdownCh: make(chan struct{}),
	}
}

// AddObserver registers o to receive every subsequent lifecycle event.
func (h *Hub) AddObserver(o Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers = append(h.observers, o)
}

func (h *Hub) notifyObservers(e Event) {
	h.mu.RLock()
	observers := append([]Observer(nil), h.observers...)
	h.mu.RUnlock()
	for _, o := range observers {
		o.HubEvent(e)
	}
}

// isShuttingDown reports whether Shutdown has been called.
func (h *Hub) isShuttingDown() bool {
	select {
	case <-h.shutdownCh:
		return true
	default:
		return false
	}
}

// Register creates a new client record and returns its public id and
// private key. keyPrefix distinguishes Standard ("") from Web ("wk:")
// clients sharing one hub core, per spec §4.6.
func (h *Hub) Register(keyPrefix string) (id, privateKey string, err error) {
	if h.isShuttingDown() {
		return "", "", &ErrHubShutdown{}
	}
	rec, err := h.registry.Register(keyPrefix)
	if err != nil {
		return "", "", err
	}
	h.broadcastLifecycle("samp.hub.event.register", rec.ID(), nil)
	h.notifyObservers(Event{MType: "samp.hub.event.register", ClientID: rec.ID()})
	return rec.ID(), rec.privateKey, nil
}

// DeclareCallback installs the Deliverer for the client authenticated
// by privKey, making it eligible for getSubscribedClients.
func (h *Hub) DeclareCallback(privKey string, d Deliverer) error {
	rec, ok := h.registry.Lookup(privKey)
	if !ok {
		return &AuthFailure{}
	}
	h.registry.DeclareCallback(rec, d)
	return nil
}

// Unregister removes the client authenticated by privKey, abandons
// any call tracking entries it participates in, and broadcasts
// samp.hub.event.unregister.
func (h *Hub) Unregister(privKey string) error {
	rec, err := h.registry.Unregister(privKey)
	if err != nil {
		return err
	}
	h.calls.abandon(rec.ID(), h)
	h.broadcastLifecycle("samp.hub.event.unregister", rec.ID(), nil)
	h.notifyObservers(Event{MType: "samp.hub.event.unregister", ClientID: rec.ID()})
	return nil
}

// DeclareMetadata replaces the caller's metadata mapping and
// broadcasts samp.hub.event.metadata.
func (h *Hub) DeclareMetadata(privKey string, metadata sampvalue.Value) error {
	rec, ok := h.registry.Lookup(privKey)
	if !ok {
		return &AuthFailure{}
	}
	m, ok := metadata.(*sampvalue.Map)
	if !ok {
		m = sampvalue.NewMap()
	}
	h.registry.DeclareMetadata(rec, m)
	extra := sampvalue.NewMap()
	extra.Set("metadata", m)
	h.broadcastLifecycle("samp.hub.event.metadata", rec.ID(), extra)
	h.notifyObservers(Event{MType: "samp.hub.event.metadata", ClientID: rec.ID(), Extra: extra})
	return nil
}

// GetMetadata returns targetID's declared metadata.
func (h *Hub) GetMetadata(privKey, targetID string) (*sampvalue.Map, error) {
	if _, ok := h.registry.Lookup(privKey); !ok {
		return nil, &AuthFailure{}
	}
	return h.registry.Metadata(targetID)
}

// DeclareSubscriptions replaces the caller's subscription set and
// broadcasts samp.hub.event.subscriptions.
func (h *Hub) DeclareSubscriptions(privKey string, subs sampvalue.Value) error {
	rec, ok := h.registry.Lookup(privKey)
	if !ok {
		return &AuthFailure{}
	}
	m, ok := subs.(*sampvalue.Map)
	if !ok {
		m = sampvalue.NewMap()
	}
	h.registry.DeclareSubscriptions(rec, m)
	extra := sampvalue.NewMap()
	extra.Set("subscriptions", m)
	h.broadcastLifecycle("samp.hub.event.subscriptions", rec.ID(), extra)
	h.notifyObservers(Event{MType: "samp.hub.event.subscriptions", ClientID: rec.ID(), Extra: extra})
	return nil
}

// GetSubscriptions returns targetID's currently installed
// subscriptions mapping.
func (h *Hub) GetSubscriptions(privKey, targetID string) (*sampvalue.Map, error) {
	if _, ok := h.registry.Lookup(privKey); !ok {
		return nil, &AuthFailure{}
	}
	return h.registry.Subscriptions(targetID)
}

// GetRegisteredClients returns every other live client id, excluding
// the caller and the reserved hub id.
func (h *Hub) GetRegisteredClients(privKey string) ([]string, error) {
	rec, ok := h.registry.Lookup(privKey)
	if !ok {
		return nil, &AuthFailure{}
	}
	return h.registry.RegisteredClients(rec.ID()), nil
}

// GetSubscribedClients returns the id->config mapping of clients
// subscribed to mtype, honoring most-specific-wins.
func (h *Hub) GetSubscribedClients(privKey, mtype string) (*sampvalue.Map, error) {
	if _, ok := h.registry.Lookup(privKey); !ok {
		return nil, &AuthFailure{}
	}
	matches := h.registry.SubscribedClients(mtype)
	out := sampvalue.NewMap()
	for id, cfg := range matches {
		out.Set(id, cfg)
	}
	return out, nil
}

// broadcastLifecycle delivers a samp.hub.event.* notification, sender
// "hub", to every client currently subscribed to mtype.
func (h *Hub) broadcastLifecycle(mtype, subjectID string, extra *sampvalue.Map) {
	params := sampvalue.NewMap()
	params.Set("id", sampvalue.String(subjectID))
	if extra != nil {
		for _, k := range extra.Keys() {
			v, _ := extra.Get(k)
			params.Set(k, v)
		}
	}
	matches := h.registry.SubscribedClients(mtype)
	for id := range matches {
		rec, ok := h.registry.LookupID(id)
		if !ok {
			continue
		}
		args := sampvalue.List{sampvalue.String(HubClientID), envelopeMessage(mtype, params)}
		rec.deliver(methodReceiveNotification, args)
	}
}

// Shutdown broadcasts samp.hub.event.shutdown, refuses further
// registrations (Register then fails with ErrHubShutdown), wakes every
// parked callAndWait, which returns a synthetic samp.error response,
// and marks the hub closed. Per spec §4.4 the lockfile/listener
// teardown that follows is the owning Profile's responsibility.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() {
		h.broadcastLifecycle("samp.hub.event.shutdown", HubClientID, nil)
		h.notifyObservers(Event{MType: "samp.hub.event.shutdown", ClientID: HubClientID})
		close(h.shutdownCh)
		h.calls.abandonAll()
	})
}
