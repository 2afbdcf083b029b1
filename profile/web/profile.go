// Package web implements the SAMP Web Profile: a single HTTP endpoint
// serving every Web client over origin-checked JSON-framed RPC, with
// per-client pull queues instead of callback URLs, grounded on the
// teacher's gin-based HTTP surface generalized with the pack's sse.Hub
// buffered-queue pattern for outbound delivery.
package web

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lvalerom/jsamp/internal/config"
	"github.com/lvalerom/jsamp/internal/hub"
	"github.com/lvalerom/jsamp/internal/hublog"
	"github.com/lvalerom/jsamp/internal/sampvalue"
	"github.com/lvalerom/jsamp/internal/transport"
	"github.com/lvalerom/jsamp/internal/transport/webjson"
)

// keyPrefix distinguishes Web Profile private keys from Standard
// Profile ones sharing the same hub core, per spec §4.6.
const keyPrefix = "wk:"

// Profile owns the Web Profile's single HTTP endpoint: its gin
// engine, the origin/client authorizers guarding it, and every
// registered client's pull queue.
type Profile struct {
	hub *hub.Hub
	log *zap.SugaredLogger

	addr string
	path string

	queueBound       int
	clientAuthorizer ClientAuthorizer
	originAuthorizer OriginAuthorizer

	dispatcher *transport.Dispatcher

	mu     sync.Mutex
	queues map[string]*pullQueue // keyed by private key

	server *http.Server
}

// New constructs a Profile bound to h. Call Start to bring it up.
// The client authorizer is always AllowAllClientAuthorizer; the origin
// authorizer is AllowAllOrigins when cfg.AllowAllOrigins is set and an
// empty AllowlistOrigins otherwise. Both are unexported fields, so
// code outside this package cannot replace them.
func New(h *hub.Hub, cfg config.WebConfig, log *zap.SugaredLogger) *Profile {
	p := &Profile{
		hub:              h,
		log:              log,
		addr:             cfg.Addr,
		path:             cfg.Path,
		queueBound:       cfg.QueueBound,
		clientAuthorizer: AllowAllClientAuthorizer{},
		queues:           make(map[string]*pullQueue),
	}
	if cfg.AllowAllOrigins {
		p.originAuthorizer = AllowAllOrigins{}
	} else {
		p.originAuthorizer = AllowlistOrigins{Allowed: map[string]bool{}}
	}
	return p
}

// Start brings up the gin engine and begins serving on p.addr.
func (p *Profile) Start() error {
	p.dispatcher = p.buildDispatcher()

	engine := gin.New()
	engine.Use(p.corsMiddleware())
	engine.POST(p.path, p.handleCall)
	engine.OPTIONS(p.path, func(c *gin.Context) { c.Status(http.StatusNoContent) })

	p.server = &http.Server{Addr: p.addr, Handler: engine}
	go func() {
		if err := p.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			p.log.Errorw("web profile server stopped", "error", err)
		}
	}()
	p.log.Infow("web profile listening", "addr", p.addr, "path", p.path)
	return nil
}

// Stop shuts down the HTTP server.
func (p *Profile) Stop(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	return p.server.Shutdown(ctx)
}

// corsMiddleware consults the OriginAuthorizer for every request,
// including preflight OPTIONS, per spec §4.6.
func (p *Profile) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		if !p.originAuthorizer.AllowOrigin(origin) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Next()
	}
}

// handleCall decodes a webjson request, intercepts register and
// pullCallbacks (both of which need state this Profile holds that the
// ordinary dispatcher table doesn't), and otherwise dispatches into
// p.dispatcher exactly like the Standard Profile does.
func (p *Profile) handleCall(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		p.writeFault(c, transport.CodeGenericFault, "cannot read request body")
		return
	}
	method, args, err := webjson.DecodeCall(body)
	if err != nil {
		p.writeFault(c, transport.CodeGenericFault, err.Error())
		return
	}

	switch method {
	case registerMethod:
		p.handleRegister(c, args)
		return
	case pullCallbacksMethod:
		p.handlePullCallbacks(c, args)
		return
	}

	result, err := p.dispatcher.Dispatch(method, args)
	if err != nil {
		code, message := faultFrom(err)
		p.writeFault(c, code, message)
		return
	}
	p.writeResult(c, result)
}

// handleRegister consults ClientAuthorizer with the request's Origin
// before registering, per spec §4.6. A denied origin fails the
// request at the transport layer with HTTP 403, not a SAMP fault.
func (p *Profile) handleRegister(c *gin.Context, args sampvalue.List) {
	origin := c.GetHeader("Origin")
	if !p.clientAuthorizer.Authorize(origin) {
		c.Status(http.StatusForbidden)
		return
	}

	id, privKey, err := p.hub.Register(keyPrefix)
	if err != nil {
		code, message := faultFrom(faultFor(err))
		p.writeFault(c, code, message)
		return
	}

	queue := newPullQueue(p.queueBound)
	p.mu.Lock()
	p.queues[privKey] = queue
	p.mu.Unlock()
	if err := p.hub.DeclareCallback(privKey, &webDeliverer{queue: queue}); err != nil {
		p.log.Warnw("web profile: declareCallback after register failed", hublog.FieldClientID, id, "error", err)
	}

	result := sampvalue.NewMap()
	result.Set("samp.hub-id", sampvalue.String(hub.HubClientID))
	result.Set("samp.self-id", sampvalue.String(id))
	result.Set("samp.private-key", sampvalue.String(privKey))
	p.writeResult(c, result)
}

// handlePullCallbacks drains the caller's pull queue, blocking up to
// the requested timeout, per spec §4.6.
func (p *Profile) handlePullCallbacks(c *gin.Context, args sampvalue.List) {
	privKey, err := stringArg(args, 0)
	if err != nil {
		p.writeFault(c, transport.CodeGenericFault, err.Error())
		return
	}
	timeoutStr, err := stringArg(args, 1)
	if err != nil {
		p.writeFault(c, transport.CodeGenericFault, err.Error())
		return
	}
	seconds, convErr := strconv.Atoi(timeoutStr)
	if convErr != nil {
		p.writeFault(c, transport.CodeGenericFault, "samp: timeout must be a decimal seconds string")
		return
	}

	p.mu.Lock()
	queue, ok := p.queues[privKey]
	p.mu.Unlock()
	if !ok {
		p.writeFault(c, transport.CodeGenericFault, "samp: unknown private key")
		return
	}

	batch, _ := queue.drain(time.Duration(seconds) * time.Second)
	out := make(sampvalue.List, len(batch))
	for i, cb := range batch {
		call := sampvalue.NewMap()
		call.Set("samp.methodName", sampvalue.String(cb.method))
		params := make(sampvalue.List, len(cb.args))
		copy(params, cb.args)
		call.Set("samp.params", params)
		out[i] = call
	}
	p.writeResult(c, out)
}

func (p *Profile) dropQueue(privKey string) {
	p.mu.Lock()
	delete(p.queues, privKey)
	p.mu.Unlock()
}

func (p *Profile) writeResult(c *gin.Context, result sampvalue.Value) {
	out, err := webjson.EncodeResponse(result)
	if err != nil {
		p.writeFault(c, transport.CodeGenericFault, err.Error())
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}

func (p *Profile) writeFault(c *gin.Context, code int, message string) {
	out, err := webjson.EncodeFault(code, message)
	if err != nil {
		c.String(http.StatusInternalServerError, message)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}

func faultFrom(err error) (int, string) {
	if rf, ok := err.(*transport.RemoteFailure); ok {
		return rf.Code, rf.Message
	}
	return transport.CodeGenericFault, err.Error()
}
