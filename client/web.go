package client

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/lvalerom/jsamp/internal/sampvalue"
	"github.com/lvalerom/jsamp/internal/transport/webjson"
)

// WebClient implements the Web Profile half of the client runtime:
// registration and RPC over JSON to the hub's single endpoint, with
// inbound deliveries retrieved by polling samp.hub.pullCallbacks
// instead of an owned listener, grounded on the teacher's
// messageListener background-goroutine shape in
// internal/client/broker.go generalized from a persistent connection
// to repeated short-lived HTTP requests.
type WebClient struct {
	core

	baseURL string
	origin  string
	http    *http.Client

	pollTimeout time.Duration
	stop        chan struct{}
	wg          sync.WaitGroup
}

// NewWebClient returns a client bound to a hub's Web Profile endpoint
// (the full URL including path). origin is sent as the Origin header
// on every request, matching what a browser page at that origin would
// send.
func NewWebClient(baseURL, origin string) *WebClient {
	c := &WebClient{
		baseURL:     baseURL,
		origin:      origin,
		http:        &http.Client{Timeout: 60 * time.Second},
		pollTimeout: 30 * time.Second,
	}
	c.core.rpc = c.call
	return c
}

func (c *WebClient) call(method string, args sampvalue.List) (sampvalue.Value, error) {
	body, err := webjson.EncodeCall(method, args)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("samp: web profile request rejected: origin not authorized")
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return webjson.DecodeResponse(data)
}

// Register calls samp.hub.register and stores the resulting self id
// and private key.
func (c *WebClient) Register() error {
	result, err := c.call("samp.hub.register", sampvalue.List{sampvalue.NewMap()})
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

// Start begins polling samp.hub.pullCallbacks in the background,
// dispatching each pulled callback to handlers. The caller must
// Register first.
func (c *WebClient) Start(handlers Handlers) error {
	c.stop = make(chan struct{})
	c.wg.Add(1)
	go c.pollLoop(handlers)
	return nil
}

func (c *WebClient) pollLoop(handlers Handlers) {
	defer c.wg.Done()
	seconds := strconv.Itoa(int(c.pollTimeout / time.Second))
	for {
		select {
		case <-c.stop:
			return
		default:
		}
		result, err := c.call("samp.hub.pullCallbacks", sampvalue.List{sampvalue.String(c.privateKey), sampvalue.String(seconds)})
		if err != nil {
			select {
			case <-c.stop:
				return
			case <-time.After(time.Second):
			}
			continue
		}
		batch, ok := result.(sampvalue.List)
		if !ok {
			continue
		}
		for _, entry := range batch {
			m, ok := entry.(*sampvalue.Map)
			if !ok {
				continue
			}
			method, _ := m.GetString("samp.methodName")
			params, _ := m.Get("samp.params")
			args, _ := params.(sampvalue.List)
			dispatchInbound(handlers, method, args)
		}
	}
}

// Stop ends the poll loop and unregisters from the hub.
func (c *WebClient) Stop() error {
	if c.stop != nil {
		close(c.stop)
		c.wg.Wait()
	}
	return c.Unregister()
}
