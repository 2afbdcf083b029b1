package hub

import (
	"sync"
	"time"

	"github.com/lvalerom/jsamp/internal/sampvalue"
)

// Outbound callback method names, namespaced per spec §6
// ("samp.client.*" outbound). Exported so client implementations can
// register handlers under the exact names the hub delivers to.
const (
	MethodReceiveNotification = "samp.client.receiveNotification"
	MethodReceiveCall         = "samp.client.receiveCall"
	MethodReceiveResponse     = "samp.client.receiveResponse"

	methodReceiveNotification = MethodReceiveNotification
	methodReceiveCall         = MethodReceiveCall
	methodReceiveResponse     = MethodReceiveResponse
)

// Message is a call/notify payload: an MType plus a params mapping,
// per spec §3's "Message" data model.
type Message struct {
	MType  string
	Params *sampvalue.Map
}

// envelopeMessage renders a Message (or a synthetic mtype/params pair
// built inline) as the SAMP struct wire shape: {samp.mtype, samp.params}.
func envelopeMessage(mtype string, params *sampvalue.Map) *sampvalue.Map {
	if params == nil {
		params = sampvalue.NewMap()
	}
	env := sampvalue.NewMap()
	env.Set("samp.mtype", sampvalue.String(mtype))
	env.Set("samp.params", params)
	return env
}

// EncodeMessage renders msg as the wire struct {samp.mtype, samp.params}
// a Profile expects as the final argument of notify/call/callAndWait.
// Client implementations use this to build outbound call arguments;
// DecodeMessage is its inverse.
func EncodeMessage(msg Message) *sampvalue.Map {
	return envelopeMessage(msg.MType, msg.Params)
}

// DecodeMessage parses the wire struct {samp.mtype, samp.params} a
// Profile receives from a notify/call method into a Message. Both
// Profiles share this so the mapping between wire shape and Message
// stays in one place.
func DecodeMessage(v sampvalue.Value) (Message, error) {
	m, ok := v.(*sampvalue.Map)
	if !ok {
		return Message{}, &sampvalue.MalformedValue{Path: "message", Reason: "expected a mapping"}
	}
	mtype, ok := m.GetString("samp.mtype")
	if !ok {
		return Message{}, &sampvalue.MalformedValue{Path: "message.samp.mtype", Reason: "missing or not a string"}
	}
	params := sampvalue.NewMap()
	if raw, ok := m.Get("samp.params"); ok {
		if p, ok := raw.(*sampvalue.Map); ok {
			params = p
		}
	}
	return Message{MType: mtype, Params: params}, nil
}

// callEntry is one outstanding call's tracking state, per spec §3's
// "Call tracking entry" and the ISSUED -> REPLIED|TIMED_OUT|ABANDONED
// state machine in §4.4.
type callEntry struct {
	msgID     string
	tag       string
	senderID  string
	targetID  string
	done      chan *sampvalue.Map // one-shot completion rendezvous for callAndWait
	completed bool
}

// callTable holds every outstanding call entry keyed by msg-id, each
// with its own completion channel so that callAndWait parks without
// touching the registry lock, per spec §5.
type callTable struct {
	mu      sync.Mutex
	entries map[string]*callEntry
}

func newCallTable() *callTable {
	return &callTable{entries: make(map[string]*callEntry)}
}

func (t *callTable) put(e *callEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[e.msgID] = e
}

func (t *callTable) take(msgID string) (*callEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[msgID]
	if ok {
		delete(t.entries, msgID)
	}
	return e, ok
}

// abandon removes and completes with a synthetic samp.error every
// entry where clientID is sender or recipient, per spec §4.4's
// unregistration cleanup: "(i) deletion of all tracking entries where
// X is sender or recipient, (ii) for each such entry where X was the
// recipient and a sender is still alive, a synthetic samp.error
// response back to that sender."
func (t *callTable) abandon(clientID string, h *Hub) {
	t.mu.Lock()
	var toNotify []*callEntry
	for msgID, e := range t.entries {
		if e.senderID == clientID || e.targetID == clientID {
			delete(t.entries, msgID)
			if e.targetID == clientID && e.senderID != clientID {
				toNotify = append(toNotify, e)
			} else if e.done != nil {
				close(e.done)
			}
		}
	}
	t.mu.Unlock()

	for _, e := range toNotify {
		h.deliverSyntheticError(e, "samp: recipient unregistered")
		if e.done != nil {
			close(e.done)
		}
	}
}

// abandonAll wakes every parked callAndWait waiter on hub shutdown.
func (t *callTable) abandonAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for msgID, e := range t.entries {
		delete(t.entries, msgID)
		if e.done != nil {
			close(e.done)
		}
	}
}

func syntheticError(reason string) *sampvalue.Map {
	errMap := sampvalue.NewMap()
	errMap.Set("samp.errortxt", sampvalue.String(reason))
	resp := sampvalue.NewMap()
	resp.Set("samp.status", sampvalue.String("samp.error"))
	resp.Set("samp.error", errMap)
	return resp
}

// deliverSyntheticError pushes a synthetic receiveResponse carrying
// samp.status=samp.error back to e's sender.
func (h *Hub) deliverSyntheticError(e *callEntry, reason string) {
	rec, ok := h.registry.LookupID(e.senderID)
	if !ok {
		return
	}
	args := sampvalue.List{sampvalue.String(e.targetID), sampvalue.String(e.tag), syntheticError(reason)}
	rec.deliver(methodReceiveResponse, args)
}

// Notify delivers msg as a fire-and-forget receiveNotification to
// recipientID. Fails without delivering if recipientID is unknown or
// not subscribed to msg.MType.
func (h *Hub) Notify(privKey, recipientID string, msg Message) error {
	sender, ok := h.registry.Lookup(privKey)
	if !ok {
		return &AuthFailure{}
	}
	target, ok := h.registry.LookupID(recipientID)
	if !ok {
		return &UnknownTarget{ID: recipientID}
	}
	if _, subscribed := h.registry.SubscribedClients(msg.MType)[recipientID]; !subscribed {
		return &NotSubscribed{ClientID: recipientID, MType: msg.MType}
	}
	args := sampvalue.List{sampvalue.String(sender.ID()), envelopeMessage(msg.MType, msg.Params)}
	target.deliver(methodReceiveNotification, args)
	return nil
}

// NotifyAll expands msg's subscribers and returns the recipient id
// list immediately; deliveries proceed without blocking the caller,
// per spec §4.4.
func (h *Hub) NotifyAll(privKey string, msg Message) ([]string, error) {
	sender, ok := h.registry.Lookup(privKey)
	if !ok {
		return nil, &AuthFailure{}
	}
	matches := h.registry.SubscribedClients(msg.MType)
	ids := make([]string, 0, len(matches))
	for id := range matches {
		ids = append(ids, id)
	}
	args := sampvalue.List{sampvalue.String(sender.ID()), envelopeMessage(msg.MType, msg.Params)}
	for _, id := range ids {
		target, ok := h.registry.LookupID(id)
		if !ok {
			continue
		}
		go target.deliver(methodReceiveNotification, args)
	}
	return ids, nil
}

// Call posts msg to recipientID as receiveCall and returns a
// hub-minted msg-id immediately; the recipient replies asynchronously
// via Reply.
func (h *Hub) Call(privKey, recipientID, tag string, msg Message) (string, error) {
	sender, ok := h.registry.Lookup(privKey)
	if !ok {
		return "", &AuthFailure{}
	}
	target, ok := h.registry.LookupID(recipientID)
	if !ok {
		return "", &UnknownTarget{ID: recipientID}
	}
	if _, subscribed := h.registry.SubscribedClients(msg.MType)[recipientID]; !subscribed {
		return "", &NotSubscribed{ClientID: recipientID, MType: msg.MType}
	}
	msgID, err := newMsgID()
	if err != nil {
		return "", err
	}
	h.calls.put(&callEntry{msgID: msgID, tag: tag, senderID: sender.ID(), targetID: recipientID})

	args := sampvalue.List{sampvalue.String(sender.ID()), sampvalue.String(msgID), envelopeMessage(msg.MType, msg.Params)}
	target.deliver(methodReceiveCall, args)
	return msgID, nil
}

// CallAll expands msg's subscribers, issues a Call to each, and
// returns the recipient -> msg-id mapping.
func (h *Hub) CallAll(privKey, tag string, msg Message) (*sampvalue.Map, error) {
	sender, ok := h.registry.Lookup(privKey)
	if !ok {
		return nil, &AuthFailure{}
	}
	matches := h.registry.SubscribedClients(msg.MType)
	out := sampvalue.NewMap()
	for id := range matches {
		target, ok := h.registry.LookupID(id)
		if !ok {
			continue
		}
		msgID, err := newMsgID()
		if err != nil {
			continue
		}
		h.calls.put(&callEntry{msgID: msgID, tag: tag, senderID: sender.ID(), targetID: id})
		args := sampvalue.List{sampvalue.String(sender.ID()), sampvalue.String(msgID), envelopeMessage(msg.MType, msg.Params)}
		target.deliver(methodReceiveCall, args)
		out.Set(id, sampvalue.String(msgID))
	}
	return out, nil
}

// CallAndWait issues a Call and parks the caller on the entry's
// completion channel up to timeout, returning the reply's response
// mapping. On timeout it deletes the entry and returns a synthetic
// samp.error response rather than an error, per spec §4.4 ("the hub
// emits a synthetic response... a late real reply is silently
// dropped").
func (h *Hub) CallAndWait(privKey, recipientID string, msg Message, timeout time.Duration) (*sampvalue.Map, error) {
	sender, ok := h.registry.Lookup(privKey)
	if !ok {
		return nil, &AuthFailure{}
	}
	target, ok := h.registry.LookupID(recipientID)
	if !ok {
		return nil, &UnknownTarget{ID: recipientID}
	}
	if _, subscribed := h.registry.SubscribedClients(msg.MType)[recipientID]; !subscribed {
		return nil, &NotSubscribed{ClientID: recipientID, MType: msg.MType}
	}
	msgID, err := newMsgID()
	if err != nil {
		return nil, err
	}
	done := make(chan *sampvalue.Map, 1)
	h.calls.put(&callEntry{msgID: msgID, senderID: sender.ID(), targetID: recipientID, done: done})

	args := sampvalue.List{sampvalue.String(sender.ID()), sampvalue.String(msgID), envelopeMessage(msg.MType, msg.Params)}
	target.deliver(methodReceiveCall, args)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case resp, ok := <-done:
		if !ok || resp == nil {
			return syntheticError("samp: call abandoned"), nil
		}
		return resp, nil
	case <-timer.C:
		h.calls.take(msgID)
		return syntheticError("samp: call timed out"), nil
	}
}

// Reply delivers a recipient's response back to the original sender,
// completing any callAndWait waiter parked on msgID.
func (h *Hub) Reply(privKey, msgID string, response *sampvalue.Map) error {
	responder, ok := h.registry.Lookup(privKey)
	if !ok {
		return &AuthFailure{}
	}
	e, ok := h.calls.take(msgID)
	if !ok {
		return &UnknownMsgID{MsgID: msgID}
	}
	if e.targetID != responder.ID() {
		// Not the call's intended recipient: put the entry back
		// untouched and report as unknown to this caller.
		h.calls.put(e)
		return &UnknownMsgID{MsgID: msgID}
	}

	if e.done != nil {
		e.done <- response
		close(e.done)
		return nil
	}

	senderRec, ok := h.registry.LookupID(e.senderID)
	if !ok {
		return nil
	}
	args := sampvalue.List{sampvalue.String(responder.ID()), sampvalue.String(e.tag), response}
	senderRec.deliver(methodReceiveResponse, args)
	return nil
}
