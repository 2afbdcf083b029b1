package hub

import (
	"sync"

	"github.com/lvalerom/jsamp/internal/sampvalue"
)

// HubClientID is the hub's own reserved public id: it may appear as a
// sender (on lifecycle broadcasts) but never receives directly, per
// spec §3's invariant.
const HubClientID = "hub"

// Deliverer is how a ClientRecord receives a callback invocation. The
// two profiles each supply their own implementation: Standard posts
// an XML-RPC request to the client's declared callback URL; Web
// enqueues onto the client's pull queue. The hub core never speaks
// HTTP or XML-RPC directly — it only calls Deliver.
type Deliverer interface {
	Deliver(method string, args sampvalue.List)
}

// ClientRecord is everything the hub holds for one registered client,
// per spec §3's "Client record" data model.
type ClientRecord struct {
	mu sync.Mutex

	id         string
	privateKey string
	metadata   *sampvalue.Map
	deliverer  Deliverer // nil until the client declares a callback

	deliverySem chan struct{} // bounds concurrent deliveries to this client, spec §5
}

// ID returns the client's public id.
func (c *ClientRecord) ID() string { return c.id }

// HasCallback reports whether the client has declared a callback and
// is therefore eligible to appear in getSubscribedClients, per the
// registration state machine in spec §4.4.
func (c *ClientRecord) HasCallback() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deliverer != nil
}

func (c *ClientRecord) setDeliverer(d Deliverer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deliverer = d
}

// deliver pushes one callback invocation to the client, blocking if
// deliverySem is already at its concurrency bound (spec §5: "Maximum
// callback delivery concurrency: 16 per target, further sends
// queue"). Callers that must not block invoke this from a goroutine
// (see NotifyAll).
func (c *ClientRecord) deliver(method string, args sampvalue.List) {
	c.mu.Lock()
	d := c.deliverer
	sem := c.deliverySem
	c.mu.Unlock()
	if d == nil {
		return
	}
	if sem != nil {
		sem <- struct{}{}
		defer func() { <-sem }()
	}
	d.Deliver(method, args)
}

func (c *ClientRecord) setMetadata(m *sampvalue.Map) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata = m
}

func (c *ClientRecord) getMetadata() *sampvalue.Map {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metadata == nil {
		return sampvalue.NewMap()
	}
	return c.metadata
}

// Registry is the hub's client table: public-id/private-key pairs,
// metadata, and the subscription index, protected by one RWMutex
// shared across all registry mutation, per spec §5's "one
// writer-preferring mutex" concurrency model. Long operations
// (outbound deliveries, callAndWait waits) never run while this lock
// is held.
type Registry struct {
	mu sync.RWMutex

	byID    map[string]*ClientRecord
	byKey   map[string]*ClientRecord
	counter uint64

	subs *subscriptionIndex

	maxClients  int
	maxDelivery int
}

// NewRegistry returns an empty Registry bounded at maxClients
// concurrent registrations (spec §5: default 4096) and maxDelivery
// concurrent callback deliveries per target (spec §5: default 16).
func NewRegistry(maxClients, maxDelivery int) *Registry {
	return &Registry{
		byID:        make(map[string]*ClientRecord),
		byKey:       make(map[string]*ClientRecord),
		subs:        newSubscriptionIndex(),
		maxClients:  maxClients,
		maxDelivery: maxDelivery,
	}
}

// Register allocates a new client record with a fresh public id and
// private key, keyed with keyPrefix (Standard Profile: "";
// Web Profile: "wk:", per spec §4.6). Fails with *Overloaded once
// maxClients live registrations are held.
func (r *Registry) Register(keyPrefix string) (*ClientRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.byID) >= r.maxClients {
		return nil, &Overloaded{}
	}
	privKey, err := newPrivateKey(keyPrefix)
	if err != nil {
		return nil, err
	}
	id := r.nextPublicID()
	rec := &ClientRecord{
		id:          id,
		privateKey:  privKey,
		metadata:    sampvalue.NewMap(),
		deliverySem: make(chan struct{}, r.maxDelivery),
	}
	r.byID[id] = rec
	r.byKey[privKey] = rec
	return rec, nil
}

// Lookup resolves a private key to its client record.
func (r *Registry) Lookup(privKey string) (*ClientRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byKey[privKey]
	return rec, ok
}

// LookupID resolves a public id to its client record.
func (r *Registry) LookupID(id string) (*ClientRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	return rec, ok
}

// Unregister removes a client's record entirely. The caller is
// responsible for abandoning any call tracking entries referencing
// it (see routing.go), since that requires the router, not just the
// registry.
func (r *Registry) Unregister(privKey string) (*ClientRecord, error) {
	r.mu.Lock()
	rec, ok := r.byKey[privKey]
	if !ok {
		r.mu.Unlock()
		return nil, &AuthFailure{}
	}
	delete(r.byKey, privKey)
	delete(r.byID, rec.id)
	r.mu.Unlock()

	r.subs.Remove(rec.id)
	return rec, nil
}

// DeclareCallback installs rec's deliverer, transitioning it to
// "REGISTERED (with callback)".
func (r *Registry) DeclareCallback(rec *ClientRecord, d Deliverer) {
	rec.setDeliverer(d)
}

// DeclareMetadata replaces rec's metadata mapping wholesale.
func (r *Registry) DeclareMetadata(rec *ClientRecord, metadata *sampvalue.Map) {
	rec.setMetadata(metadata)
}

// Metadata returns id's metadata mapping.
func (r *Registry) Metadata(id string) (*sampvalue.Map, error) {
	rec, ok := r.LookupID(id)
	if !ok {
		return nil, &UnknownTarget{ID: id}
	}
	return rec.getMetadata(), nil
}

// DeclareSubscriptions replaces rec's subscription set wholesale.
func (r *Registry) DeclareSubscriptions(rec *ClientRecord, subs *sampvalue.Map) {
	r.subs.Replace(rec.id, subs)
}

// Subscriptions returns id's currently installed subscription mapping.
func (r *Registry) Subscriptions(id string) (*sampvalue.Map, error) {
	if _, ok := r.LookupID(id); !ok {
		return nil, &UnknownTarget{ID: id}
	}
	return r.subs.Subscriptions(id), nil
}

// RegisteredClients returns every live public id except excludeID and
// the reserved hub id, per getRegisteredClients' "excluding self and
// hub" contract.
func (r *Registry) RegisteredClients(excludeID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byID))
	for id := range r.byID {
		if id == excludeID || id == HubClientID {
			continue
		}
		out = append(out, id)
	}
	return out
}

// SubscribedClients returns, for mtype, the id->config mapping of
// every client whose subscription matches and who has declared a
// callback (spec §4.4's registration-state eligibility rule).
func (r *Registry) SubscribedClients(mtype string) map[string]sampvalue.Value {
	matches := r.subs.Match(mtype)
	out := make(map[string]sampvalue.Value, len(matches))
	for id, cfg := range matches {
		rec, ok := r.LookupID(id)
		if !ok || !rec.HasCallback() {
			continue
		}
		out[id] = cfg
	}
	return out
}
