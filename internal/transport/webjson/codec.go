// Package webjson implements the Web Profile's wire codec: the same
// method/args/result shape XML-RPC carries, framed as JSON instead,
// per spec §6 ("XML-RPC-shaped methods served on a single URL").
// SAMP's string-only value discipline means no numeric/boolean
// coercion is needed here — sampvalue's own JSON encoding already
// produces exactly this shape.
package webjson

import (
	"encoding/json"
	"fmt"

	"github.com/lvalerom/jsamp/internal/sampvalue"
	"github.com/lvalerom/jsamp/internal/transport"
)

type callEnvelope struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type responseEnvelope struct {
	Result json.RawMessage `json:"result,omitempty"`
	Fault  *faultBody      `json:"fault,omitempty"`
}

type faultBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// EncodeCall serializes a method call with SAMP-value arguments to a
// webjson request body.
func EncodeCall(method string, args sampvalue.List) ([]byte, error) {
	params := make([]json.RawMessage, 0, len(args))
	for _, a := range args {
		raw, err := sampvalue.ToJSON(a, false)
		if err != nil {
			return nil, err
		}
		params = append(params, raw)
	}
	return json.Marshal(callEnvelope{Method: method, Params: params})
}

// DecodeCall parses a webjson request body into a method name and its
// SAMP-value arguments.
func DecodeCall(data []byte) (method string, args sampvalue.List, err error) {
	var env callEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("webjson: invalid request: %w", err)
	}
	out := make(sampvalue.List, 0, len(env.Params))
	for _, raw := range env.Params {
		v, err := sampvalue.FromJSON(raw)
		if err != nil {
			return "", nil, err
		}
		out = append(out, v)
	}
	return env.Method, out, nil
}

// EncodeResponse serializes a successful result to a webjson response
// body.
func EncodeResponse(result sampvalue.Value) ([]byte, error) {
	raw, err := sampvalue.ToJSON(result, false)
	if err != nil {
		return nil, err
	}
	return json.Marshal(responseEnvelope{Result: raw})
}

// EncodeFault serializes code/message as a webjson fault response.
func EncodeFault(code int, message string) ([]byte, error) {
	return json.Marshal(responseEnvelope{Fault: &faultBody{Code: code, Message: message}})
}

// DecodeResponse parses a webjson response body into either a SAMP
// result value or a *transport.RemoteFailure for a fault.
func DecodeResponse(data []byte) (sampvalue.Value, error) {
	var env responseEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("webjson: invalid response: %w", err)
	}
	if env.Fault != nil {
		return nil, &transport.RemoteFailure{Code: env.Fault.Code, Message: env.Fault.Message}
	}
	return sampvalue.FromJSON(env.Result)
}
