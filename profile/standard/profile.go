// Package standard implements the SAMP Standard Profile: lockfile
// discovery plus an XML-RPC server, grounded on the teacher's
// cmd/orchestrator service-startup/shutdown sequencing and its
// BrokerClient outbound request/response correlation (replayed here
// as the hub's outbound call to a client's callback URL).
package standard

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/lvalerom/jsamp/internal/config"
	"github.com/lvalerom/jsamp/internal/hub"
	"github.com/lvalerom/jsamp/internal/hublog"
	"github.com/lvalerom/jsamp/internal/lockfile"
	"github.com/lvalerom/jsamp/internal/sampvalue"
	"github.com/lvalerom/jsamp/internal/transport"
	"github.com/lvalerom/jsamp/internal/transport/xmlrpc"
)

// maxHeaderBytes bounds a Standard Profile client's request headers,
// per spec §5.
const maxHeaderBytes = 1 << 20

// Profile owns one Standard Profile rendezvous: its lockfile, its
// XML-RPC server, and the outbound caller it hands each client as a
// hub.Deliverer once that client declares a callback.
type Profile struct {
	hub    *hub.Hub
	log    *zap.SugaredLogger
	caller *xmlrpc.HTTPCaller

	lockPath      string
	localhostName string
	secret        string
	httpWorkers   int

	listener net.Listener
	server   *http.Server
	inFlight sync.WaitGroup
}

// New constructs a Profile bound to h. workers bounds the number of
// XML-RPC requests served concurrently (spec §5's dispatch pool); 0 or
// negative falls back to 20.
func New(h *hub.Hub, cfg config.StandardConfig, workers int, log *zap.SugaredLogger) *Profile {
	lockPath := cfg.LockfilePath
	if lockPath == "" {
		lockPath = lockfile.ResolvePath("")
	}
	if workers <= 0 {
		workers = 20
	}
	return &Profile{
		hub:           h,
		log:           log,
		caller:        xmlrpc.NewHTTPCaller(nil),
		lockPath:      lockPath,
		localhostName: lockfile.LocalhostName(cfg.LocalhostName),
		httpWorkers:   workers,
	}
}

// Start picks a free loopback port, generates the lockfile secret,
// writes the lockfile atomically, and begins serving XML-RPC, per
// spec §4.5's three-step startup sequence.
func (p *Profile) Start() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("standard: listen: %w", err)
	}
	p.listener = listener

	secret, err := newSecret()
	if err != nil {
		listener.Close()
		return err
	}
	p.secret = secret

	url := fmt.Sprintf("http://%s:%d/", p.localhostName, listener.Addr().(*net.TCPAddr).Port)

	lf := lockfile.New()
	lf.Set(lockfile.KeySecret, secret)
	lf.Set(lockfile.KeyXMLRPCURL, url)
	lf.Set(lockfile.KeyProfileVersion, lockfile.ProfileVersion)
	if err := lockfile.Write(p.lockPath, lf); err != nil {
		listener.Close()
		return fmt.Errorf("standard: writing lockfile: %w", err)
	}

	dispatcher := p.buildDispatcher()
	p.server = &http.Server{
		Handler:        p.boundedHandler(xmlrpc.Handler(dispatcher)),
		MaxHeaderBytes: maxHeaderBytes,
	}

	go func() {
		if err := p.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			p.log.Errorw("standard profile server stopped", "error", err)
		}
	}()

	p.log.Infow("standard profile listening", "url", url, "lockfile", p.lockPath)
	return nil
}

// Stop shuts down the XML-RPC server and deletes the lockfile, per
// spec §4.5's shutdown contract.
func (p *Profile) Stop(ctx context.Context) error {
	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			p.log.Warnw("standard profile shutdown error", "error", err)
		}
	}
	p.waitInFlight(ctx)
	return lockfile.Delete(p.lockPath)
}

// boundedHandler caps the number of XML-RPC requests handled
// concurrently to p.httpWorkers, tracking each in flight with a
// sync.WaitGroup so Stop can confirm the dispatch pool has drained,
// per spec §5's semaphore-bounded pool (gin's own server pools
// connections for the Web Profile; the Standard Profile needs its own
// bound since it serves XML-RPC directly over net/http).
func (p *Profile) boundedHandler(next http.Handler) http.Handler {
	sem := make(chan struct{}, p.httpWorkers)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sem <- struct{}{}
		p.inFlight.Add(1)
		defer func() {
			p.inFlight.Done()
			<-sem
		}()
		next.ServeHTTP(w, r)
	})
}

// waitInFlight blocks until every in-flight request drains or ctx is
// done, whichever comes first.
func (p *Profile) waitInFlight(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		p.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// callbackDeliverer posts callbacks to one client's declared URL via
// the profile's shared HTTPCaller. Delivery failures are logged and
// swallowed, per spec §4.4/§7's callback failure policy — they never
// propagate back into the calling client's own method.
type callbackDeliverer struct {
	caller   transport.Caller
	endpoint string
	log      *zap.SugaredLogger
	clientID string
}

func (d *callbackDeliverer) Deliver(method string, args sampvalue.List) {
	if _, err := d.caller.Call(d.endpoint, method, args); err != nil {
		d.log.Debugw("callback delivery failed",
			hublog.FieldClientID, d.clientID, "method", method, "error", err)
	}
}
