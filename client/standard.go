package client

import (
	"fmt"
	"net"
	"net/http"

	"github.com/lvalerom/jsamp/internal/lockfile"
	"github.com/lvalerom/jsamp/internal/sampvalue"
	"github.com/lvalerom/jsamp/internal/transport"
	"github.com/lvalerom/jsamp/internal/transport/xmlrpc"
)

// StandardClient implements the Standard Profile half of the client
// runtime: registration and RPC over XML-RPC to the hub's advertised
// endpoint, with an embedded HTTP server of its own for receiving
// samp.client.* callbacks, grounded on the split between BrokerClient's
// dial/listen setup and its wire-agnostic call() in the teacher's
// internal/client/broker.go.
type StandardClient struct {
	core

	hubURL string
	secret string
	caller *xmlrpc.HTTPCaller

	listener    net.Listener
	server      *http.Server
	callbackURL string
}

// DiscoverStandardClient reads the Standard Profile lockfile at path
// and returns a client ready to Register against the hub it describes.
func DiscoverStandardClient(path string) (*StandardClient, error) {
	f, err := lockfile.Read(path)
	if err != nil {
		return nil, fmt.Errorf("samp: reading lockfile: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	url, _ := f.Get(lockfile.KeyXMLRPCURL)
	secret, _ := f.Get(lockfile.KeySecret)
	c := NewStandardClient(url)
	c.secret = secret
	return c, nil
}

// NewStandardClient returns a client bound to a known hub XML-RPC URL,
// for callers that already hold the lockfile's contents.
func NewStandardClient(hubURL string) *StandardClient {
	c := &StandardClient{hubURL: hubURL, caller: xmlrpc.NewHTTPCaller(nil)}
	c.core.rpc = c.call
	return c
}

func (c *StandardClient) call(method string, args sampvalue.List) (sampvalue.Value, error) {
	return c.caller.Call(c.hubURL, method, args)
}

// Register authenticates with the hub's lockfile secret and stores the
// resulting self id and private key.
func (c *StandardClient) Register() error {
	result, err := c.call("samp.hub.register", sampvalue.List{sampvalue.String(c.secret)})
	if err != nil {
		return err
	}
	m, ok := result.(*sampvalue.Map)
	if !ok {
		return fmt.Errorf("samp: register: malformed result")
	}
	selfID, _ := m.GetString("samp.self-id")
	privKey, _ := m.GetString("samp.private-key")
	c.selfID = selfID
	c.privateKey = privKey
	return nil
}

// Start opens a local HTTP listener for inbound samp.client.* callbacks,
// dispatches them to handlers, and declares the listener's URL to the
// hub as this client's callback endpoint. The caller must Register
// first.
func (c *StandardClient) Start(handlers Handlers) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("samp: client callback listener: %w", err)
	}
	c.listener = ln
	c.callbackURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	d := transport.NewDispatcher()
	registerInboundHandlers(d, handlers)
	c.server = &http.Server{Handler: xmlrpc.Handler(d)}
	go c.server.Serve(ln)

	_, err = c.call("samp.hub.declareCallback", sampvalue.List{sampvalue.String(c.privateKey), sampvalue.String(c.callbackURL)})
	return err
}

// Stop unregisters from the hub and shuts down the callback listener.
func (c *StandardClient) Stop() error {
	err := c.Unregister()
	if c.server != nil {
		c.server.Close()
	}
	return err
}
