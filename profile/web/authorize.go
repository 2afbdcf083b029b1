package web

// ClientAuthorizer decides whether a Web client's register call from
// origin is accepted, per spec §4.6's "pluggable ClientAuthorizer
// decides to accept, deny, or prompt the user."
type ClientAuthorizer interface {
	Authorize(origin string) bool
}

// AllowAllClientAuthorizer accepts every registration regardless of
// origin. Suitable for tests and trusted deployments, not for a
// browser-facing hub.
type AllowAllClientAuthorizer struct{}

func (AllowAllClientAuthorizer) Authorize(string) bool { return true }

// PromptUserFunc is the host application's hook for interactively
// asking a user whether to trust origin. No UI is built in this
// package; a host wires a real implementation.
type PromptUserFunc func(origin string) bool

// PromptClientAuthorizer defers to an injected PromptUserFunc,
// denying by default when none is configured.
type PromptClientAuthorizer struct {
	PromptUser PromptUserFunc
}

func (a PromptClientAuthorizer) Authorize(origin string) bool {
	if a.PromptUser == nil {
		return false
	}
	return a.PromptUser(origin)
}

// OriginAuthorizer decides whether origin may use the Web endpoint at
// all, consulted independently of ClientAuthorizer for every request
// and CORS preflight, per spec §4.6.
type OriginAuthorizer interface {
	AllowOrigin(origin string) bool
}

// AllowAllOrigins permits every origin's CORS preflight and request.
type AllowAllOrigins struct{}

func (AllowAllOrigins) AllowOrigin(string) bool { return true }

// AllowlistOrigins permits only the configured set of origins.
type AllowlistOrigins struct {
	Allowed map[string]bool
}

func (a AllowlistOrigins) AllowOrigin(origin string) bool {
	return a.Allowed[origin]
}
