package xmlrpc

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lvalerom/jsamp/internal/sampvalue"
	"github.com/lvalerom/jsamp/internal/transport"
)

// Handler adapts a *transport.Dispatcher to net/http, decoding an
// XML-RPC methodCall body and encoding the dispatcher's result or
// error as a methodResponse/fault, mirroring the way the teacher's
// broker.Service wraps handleRequest for its own wire framing.
func Handler(d *transport.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "cannot read request body", http.StatusBadRequest)
			return
		}
		method, args, err := DecodeCall(body)
		if err != nil {
			writeFault(w, transport.CodeGenericFault, err.Error())
			return
		}
		result, err := d.Dispatch(method, args)
		if err != nil {
			code, message := faultFrom(err)
			writeFault(w, code, message)
			return
		}
		out, err := EncodeResponse(result)
		if err != nil {
			writeFault(w, transport.CodeGenericFault, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.Write(out)
	}
}

func faultFrom(err error) (int, string) {
	if rf, ok := err.(*transport.RemoteFailure); ok {
		return rf.Code, rf.Message
	}
	return transport.CodeGenericFault, err.Error()
}

func writeFault(w http.ResponseWriter, code int, message string) {
	out, encErr := EncodeFault(code, message)
	if encErr != nil {
		http.Error(w, message, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.Write(out)
}

// HTTPCaller implements transport.Caller by POSTing XML-RPC method
// calls to a client-declared callback URL, the outbound half of the
// Standard Profile's transport adapter (spec §4.3).
type HTTPCaller struct {
	Client *http.Client
}

// NewHTTPCaller returns an HTTPCaller using client, or a client with a
// short default timeout if client is nil. Callback deliveries must
// never block the hub indefinitely on an unresponsive client.
func NewHTTPCaller(client *http.Client) *HTTPCaller {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPCaller{Client: client}
}

// Call POSTs method/args to endpoint as an XML-RPC methodCall and
// returns the decoded result, or a *transport.RemoteFailure if the
// peer responded with a fault, or a *transport.TransportFailure for
// any network/encoding problem.
func (c *HTTPCaller) Call(endpoint, method string, args sampvalue.List) (sampvalue.Value, error) {
	body, err := EncodeCall(method, args)
	if err != nil {
		return nil, &transport.TransportFailure{Cause: err}
	}
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &transport.TransportFailure{Cause: err}
	}
	req.Header.Set("Content-Type", "text/xml")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, &transport.TransportFailure{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transport.TransportFailure{Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &transport.TransportFailure{Cause: fmt.Errorf("http status %d", resp.StatusCode)}
	}
	result, err := DecodeResponse(respBody)
	if err != nil {
		if _, ok := err.(*transport.RemoteFailure); ok {
			return nil, err
		}
		return nil, &transport.TransportFailure{Cause: err}
	}
	return result, nil
}
