// Package transport defines the wire-agnostic surface the hub (C4)
// dispatches through, and the error kinds both wire codecs translate
// their faults into. Concrete codecs live in the xmlrpc and webjson
// subpackages; this package holds only what they have in common,
// mirroring the way the teacher's broker.Service keeps its dispatch
// table (handleRequest) separate from its wire framing
// (json.Encoder/Decoder over net.Conn).
package transport

import (
	"fmt"

	"github.com/lvalerom/jsamp/internal/sampvalue"
)

// Handler answers one RPC method call with a SAMP value result or an
// error (a *RemoteFailure keeps its code on the wire; any other error
// is sent with CodeGenericFault). Handlers never see the wire format:
// numeric/boolean coercion and method-name namespacing are the codec's job.
type Handler func(args sampvalue.List) (sampvalue.Value, error)

// Dispatcher is a method-name -> Handler table built once at server
// construction time, replacing the reflective/switch-based dispatch
// the source used (per spec §9's REDESIGN FLAGS).
type Dispatcher struct {
	methods map[string]Handler
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{methods: make(map[string]Handler)}
}

// Register adds or replaces the handler for method name.
func (d *Dispatcher) Register(name string, h Handler) {
	d.methods[name] = h
}

// Dispatch looks up and invokes the handler for name. An unknown
// method name is reported as a RemoteFailure with a generic code, per
// spec §4.3 ("a single generic code suffices").
func (d *Dispatcher) Dispatch(name string, args sampvalue.List) (sampvalue.Value, error) {
	h, ok := d.methods[name]
	if !ok {
		return nil, &RemoteFailure{Code: CodeUnknownMethod, Message: fmt.Sprintf("unknown method %q", name)}
	}
	return h(args)
}

// Caller is the outbound half of the transport adapter: a primitive
// for pushing a callback invocation to a client endpoint and getting
// back its result or a TransportFailure. Implemented by xmlrpc's
// HTTPCaller (POST to a client's declared callback URL). The webjson
// codec has no Caller: Web Profile deliveries are enqueued for pull by
// profile/web instead.
type Caller interface {
	Call(endpoint, method string, args sampvalue.List) (sampvalue.Value, error)
}

// Generic XML-RPC-style fault codes. SAMP does not define a rich fault
// taxonomy at the wire level (spec §4.3: "a single generic code
// suffices"); these distinguish only "method not found" from
// "everything else" the way the teacher's BrokerError does with
// JSON-RPC's -32601/-32603.
const (
	CodeUnknownMethod = -32601
	CodeGenericFault  = -32603
)

// RemoteFailure is a transport-level fault: the peer's RPC mechanism
// rejected the call itself (bad method name, malformed envelope),
// before any SAMP-level semantics ran.
type RemoteFailure struct {
	Code    int
	Message string
}

func (e *RemoteFailure) Error() string {
	return fmt.Sprintf("remote fault %d: %s", e.Code, e.Message)
}

// TransportFailure wraps a lower-level network/encoding error from an
// outbound Caller.Call. Per spec §7 these are logged and swallowed for
// callback deliveries, and surfaced only on direct RPC failures.
type TransportFailure struct {
	Cause error
}

func (e *TransportFailure) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Cause)
}

func (e *TransportFailure) Unwrap() error {
	return e.Cause
}
