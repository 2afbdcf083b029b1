package hub

import (
	"strings"
	"sync"

	"github.com/lvalerom/jsamp/internal/sampvalue"
)

// subscriptionIndex is a trie of MType segments supporting the three
// pattern shapes SAMP allows: an exact MType, a trailing-wildcard
// prefix ("a.b.*"), and the bare wildcard ("*"). It is rebuilt
// wholesale for a client on every declareSubscriptions call, which
// matches the Standard/Web Profile contract that declareSubscriptions
// always replaces the client's entire subscription set.
//
// Lookup walks one segment per trie level, so match cost is
// O(components-of-MType) as spec §4.4 requires.
type subscriptionIndex struct {
	mu   sync.RWMutex
	root *subNode
}

type subNode struct {
	children map[string]*subNode
	exact    map[string]sampvalue.Value // clientID -> subscription config
	wildcard map[string]sampvalue.Value // clientID -> config, pattern is this node's path + ".*"
}

func newSubNode() *subNode {
	return &subNode{
		children: make(map[string]*subNode),
		exact:    make(map[string]sampvalue.Value),
		wildcard: make(map[string]sampvalue.Value),
	}
}

func newSubscriptionIndex() *subscriptionIndex {
	return &subscriptionIndex{root: newSubNode()}
}

// Remove deletes every pattern previously registered for clientID.
func (idx *subscriptionIndex) Remove(clientID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	removeClient(idx.root, clientID)
}

func removeClient(n *subNode, clientID string) {
	delete(n.exact, clientID)
	delete(n.wildcard, clientID)
	for _, child := range n.children {
		removeClient(child, clientID)
	}
}

// Replace discards clientID's prior subscriptions and installs the
// patterns present in subs (an MType -> config mapping, as accepted
// by declareSubscriptions).
func (idx *subscriptionIndex) Replace(clientID string, subs *sampvalue.Map) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	removeClient(idx.root, clientID)
	for _, pattern := range subs.Keys() {
		config, _ := subs.Get(pattern)
		idx.insertLocked(clientID, pattern, config)
	}
}

func (idx *subscriptionIndex) insertLocked(clientID, pattern string, config sampvalue.Value) {
	if pattern == "*" {
		idx.root.wildcard[clientID] = config
		return
	}
	segments := strings.Split(pattern, ".")
	wildcardTail := segments[len(segments)-1] == "*"
	if wildcardTail {
		segments = segments[:len(segments)-1]
	}
	node := idx.root
	for _, seg := range segments {
		child, ok := node.children[seg]
		if !ok {
			child = newSubNode()
			node.children[seg] = child
		}
		node = child
	}
	if wildcardTail {
		node.wildcard[clientID] = config
	} else {
		node.exact[clientID] = config
	}
}

// match pairs a matched client with its subscription config and the
// specificity that won it.
type match struct {
	config sampvalue.Value
	depth  int
	exact  bool
}

func (m match) beats(other match) bool {
	if m.depth != other.depth {
		return m.depth > other.depth
	}
	return m.exact && !other.exact
}

// Match returns, for the given MType, the set of subscribed client
// ids paired with the config of the most specific pattern matching
// that client, applying spec §4.4's most-specific-wins rule: an exact
// match beats any wildcard, and a longer wildcard prefix beats a
// shorter one.
func (idx *subscriptionIndex) Match(mtype string) map[string]sampvalue.Value {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	best := make(map[string]match)
	consider := func(clientID string, cfg sampvalue.Value, depth int, exact bool) {
		cand := match{config: cfg, depth: depth, exact: exact}
		if cur, ok := best[clientID]; !ok || cand.beats(cur) {
			best[clientID] = cand
		}
	}

	for clientID, cfg := range idx.root.wildcard {
		consider(clientID, cfg, 0, false)
	}

	segments := strings.Split(mtype, ".")
	node := idx.root
	for i, seg := range segments {
		child, ok := node.children[seg]
		if !ok {
			break
		}
		node = child
		depth := i + 1
		for clientID, cfg := range node.wildcard {
			consider(clientID, cfg, depth, false)
		}
		if depth == len(segments) {
			for clientID, cfg := range node.exact {
				consider(clientID, cfg, depth, true)
			}
		}
	}

	out := make(map[string]sampvalue.Value, len(best))
	for clientID, m := range best {
		out[clientID] = m.config
	}
	return out
}

// Subscriptions returns the raw subscription mapping previously
// installed for clientID via Replace, rebuilt from the trie. Used by
// getSubscriptions.
func (idx *subscriptionIndex) Subscriptions(clientID string) *sampvalue.Map {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := sampvalue.NewMap()
	collectClient(idx.root, "", clientID, out)
	return out
}

func collectClient(n *subNode, prefix, clientID string, out *sampvalue.Map) {
	if cfg, ok := n.exact[clientID]; ok {
		key := prefix
		if key == "" {
			key = "*"
		}
		out.Set(key, cfg)
	}
	if cfg, ok := n.wildcard[clientID]; ok {
		key := prefix + ".*"
		if prefix == "" {
			key = "*"
		}
		out.Set(key, cfg)
	}
	for seg, child := range n.children {
		next := seg
		if prefix != "" {
			next = prefix + "." + seg
		}
		collectClient(child, next, clientID, out)
	}
}
