package client

import (
	"github.com/lvalerom/jsamp/internal/hub"
	"github.com/lvalerom/jsamp/internal/sampvalue"
	"github.com/lvalerom/jsamp/internal/transport"
)

// registerInboundHandlers wires the three samp.client.* methods a hub
// delivers to onto handlers, for StandardClient's embedded XML-RPC
// server. WebClient's pulled-batch loop goes through dispatchInbound
// instead; both use the same decode* helpers, so the argument decoding
// lives in exactly one place.
func registerInboundHandlers(d *transport.Dispatcher, handlers Handlers) {
	d.Register(hub.MethodReceiveNotification, func(args sampvalue.List) (sampvalue.Value, error) {
		senderID, msg, err := decodeNotification(args)
		if err != nil {
			return nil, err
		}
		if handlers.Notification != nil {
			handlers.Notification(senderID, msg)
		}
		return sampvalue.NewMap(), nil
	})
	d.Register(hub.MethodReceiveCall, func(args sampvalue.List) (sampvalue.Value, error) {
		senderID, msgID, msg, err := decodeCall(args)
		if err != nil {
			return nil, err
		}
		if handlers.Call != nil {
			handlers.Call(senderID, msgID, msg)
		}
		return sampvalue.NewMap(), nil
	})
	d.Register(hub.MethodReceiveResponse, func(args sampvalue.List) (sampvalue.Value, error) {
		responderID, tag, response, err := decodeResponse(args)
		if err != nil {
			return nil, err
		}
		if handlers.Response != nil {
			handlers.Response(responderID, tag, response)
		}
		return sampvalue.NewMap(), nil
	})
}

// dispatchInbound invokes registerInboundHandlers' logic directly for a
// method/args pair pulled out of band (the Web Profile's pull queue has
// no dispatcher of its own to decode against).
func dispatchInbound(handlers Handlers, method string, args sampvalue.List) {
	switch method {
	case hub.MethodReceiveNotification:
		if senderID, msg, err := decodeNotification(args); err == nil && handlers.Notification != nil {
			handlers.Notification(senderID, msg)
		}
	case hub.MethodReceiveCall:
		if senderID, msgID, msg, err := decodeCall(args); err == nil && handlers.Call != nil {
			handlers.Call(senderID, msgID, msg)
		}
	case hub.MethodReceiveResponse:
		if responderID, tag, response, err := decodeResponse(args); err == nil && handlers.Response != nil {
			handlers.Response(responderID, tag, response)
		}
	}
}

func decodeNotification(args sampvalue.List) (senderID string, msg hub.Message, err error) {
	if len(args) < 2 {
		return "", hub.Message{}, &sampvalue.MalformedValue{Path: "receiveNotification", Reason: "expected 2 arguments"}
	}
	s, _ := args[0].(sampvalue.String)
	msg, err = hub.DecodeMessage(args[1])
	return string(s), msg, err
}

func decodeCall(args sampvalue.List) (senderID, msgID string, msg hub.Message, err error) {
	if len(args) < 3 {
		return "", "", hub.Message{}, &sampvalue.MalformedValue{Path: "receiveCall", Reason: "expected 3 arguments"}
	}
	s, _ := args[0].(sampvalue.String)
	id, _ := args[1].(sampvalue.String)
	msg, err = hub.DecodeMessage(args[2])
	return string(s), string(id), msg, err
}

func decodeResponse(args sampvalue.List) (responderID, tag string, response *sampvalue.Map, err error) {
	if len(args) < 3 {
		return "", "", nil, &sampvalue.MalformedValue{Path: "receiveResponse", Reason: "expected 3 arguments"}
	}
	s, _ := args[0].(sampvalue.String)
	t, _ := args[1].(sampvalue.String)
	m, ok := args[2].(*sampvalue.Map)
	if !ok {
		return "", "", nil, &sampvalue.MalformedValue{Path: "receiveResponse.response", Reason: "expected a mapping"}
	}
	return string(s), string(t), m, nil
}
