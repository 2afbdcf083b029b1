// Package client implements the SAMP client registration and
// messaging runtime named in spec §1: the library an application
// links against to register with a hub, declare metadata and
// subscriptions, and send or receive messages, over either the
// Standard or the Web Profile.
//
// Both concrete clients are thin wrappers around one shared `core`
// that knows every samp.hub.* RPC's argument shape but nothing about
// how the call actually reaches the hub; StandardClient and WebClient
// each supply their own `rpc` function, grounded on the split between
// BrokerClient's wire-specific Connect()/messageListener() and its
// wire-agnostic call() in the teacher's internal/client/broker.go.
package client

import (
	"strconv"
	"time"

	"github.com/lvalerom/jsamp/internal/hub"
	"github.com/lvalerom/jsamp/internal/sampvalue"
)

// Handlers holds the callbacks a client dispatches inbound hub
// deliveries to. Any left nil are silently ignored.
type Handlers struct {
	Notification func(senderID string, msg hub.Message)
	Call         func(senderID, msgID string, msg hub.Message)
	Response     func(responderID, tag string, response *sampvalue.Map)
}

// rpcFunc performs one SAMP RPC call and returns its decoded result or
// a transport/remote error. Both profile-specific clients implement
// this over their own wire codec.
type rpcFunc func(method string, args sampvalue.List) (sampvalue.Value, error)

// core implements every samp.hub.* method's argument marshaling once,
// shared by StandardClient and WebClient.
type core struct {
	selfID     string
	privateKey string
	rpc        rpcFunc
}

// SelfID returns the client's hub-assigned public id.
func (c *core) SelfID() string { return c.selfID }

// PrivateKey returns the client's registration credential.
func (c *core) PrivateKey() string { return c.privateKey }

func (c *core) DeclareMetadata(metadata *sampvalue.Map) error {
	_, err := c.rpc("samp.hub.declareMetadata", sampvalue.List{sampvalue.String(c.privateKey), metadata})
	return err
}

func (c *core) GetMetadata(targetID string) (*sampvalue.Map, error) {
	result, err := c.rpc("samp.hub.getMetadata", sampvalue.List{sampvalue.String(c.privateKey), sampvalue.String(targetID)})
	if err != nil {
		return nil, err
	}
	return asMap(result), nil
}

func (c *core) DeclareSubscriptions(subs *sampvalue.Map) error {
	_, err := c.rpc("samp.hub.declareSubscriptions", sampvalue.List{sampvalue.String(c.privateKey), subs})
	return err
}

func (c *core) GetSubscriptions(targetID string) (*sampvalue.Map, error) {
	result, err := c.rpc("samp.hub.getSubscriptions", sampvalue.List{sampvalue.String(c.privateKey), sampvalue.String(targetID)})
	if err != nil {
		return nil, err
	}
	return asMap(result), nil
}

func (c *core) GetRegisteredClients() ([]string, error) {
	result, err := c.rpc("samp.hub.getRegisteredClients", sampvalue.List{sampvalue.String(c.privateKey)})
	if err != nil {
		return nil, err
	}
	return asStringList(result), nil
}

func (c *core) GetSubscribedClients(mtype string) (*sampvalue.Map, error) {
	result, err := c.rpc("samp.hub.getSubscribedClients", sampvalue.List{sampvalue.String(c.privateKey), sampvalue.String(mtype)})
	if err != nil {
		return nil, err
	}
	return asMap(result), nil
}

func (c *core) Notify(recipientID string, msg hub.Message) error {
	_, err := c.rpc("samp.hub.notify", sampvalue.List{sampvalue.String(c.privateKey), sampvalue.String(recipientID), hub.EncodeMessage(msg)})
	return err
}

func (c *core) NotifyAll(msg hub.Message) ([]string, error) {
	result, err := c.rpc("samp.hub.notifyAll", sampvalue.List{sampvalue.String(c.privateKey), hub.EncodeMessage(msg)})
	if err != nil {
		return nil, err
	}
	return asStringList(result), nil
}

func (c *core) Call(recipientID, tag string, msg hub.Message) (string, error) {
	result, err := c.rpc("samp.hub.call", sampvalue.List{
		sampvalue.String(c.privateKey), sampvalue.String(recipientID), sampvalue.String(tag), hub.EncodeMessage(msg),
	})
	if err != nil {
		return "", err
	}
	s, _ := result.(sampvalue.String)
	return string(s), nil
}

func (c *core) CallAll(tag string, msg hub.Message) (*sampvalue.Map, error) {
	result, err := c.rpc("samp.hub.callAll", sampvalue.List{sampvalue.String(c.privateKey), sampvalue.String(tag), hub.EncodeMessage(msg)})
	if err != nil {
		return nil, err
	}
	return asMap(result), nil
}

func (c *core) CallAndWait(recipientID string, msg hub.Message, timeout time.Duration) (*sampvalue.Map, error) {
	seconds := strconv.Itoa(int(timeout / time.Second))
	result, err := c.rpc("samp.hub.callAndWait", sampvalue.List{
		sampvalue.String(c.privateKey), sampvalue.String(recipientID), hub.EncodeMessage(msg), sampvalue.String(seconds),
	})
	if err != nil {
		return nil, err
	}
	return asMap(result), nil
}

func (c *core) Reply(msgID string, response *sampvalue.Map) error {
	_, err := c.rpc("samp.hub.reply", sampvalue.List{sampvalue.String(c.privateKey), sampvalue.String(msgID), response})
	return err
}

func (c *core) Unregister() error {
	_, err := c.rpc("samp.hub.unregister", sampvalue.List{sampvalue.String(c.privateKey)})
	return err
}

func asMap(v sampvalue.Value) *sampvalue.Map {
	m, ok := v.(*sampvalue.Map)
	if !ok {
		return sampvalue.NewMap()
	}
	return m
}

func asStringList(v sampvalue.Value) []string {
	list, ok := v.(sampvalue.List)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(sampvalue.String); ok {
			out = append(out, string(s))
		}
	}
	return out
}
