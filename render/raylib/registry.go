// Package raylib wires the render-node tree to a concrete raylib-go
// backend: texture loading, frame drawing and the custom-component
// layout hook.
package raylib

import (
	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-render/krb"
	"github.com/kryonlabs/kryon-render/render"
)

// registry holds the custom-component handlers recognized by identifier.
type registry struct {
	handlers map[string]render.CustomComponentHandler
	log      *zap.Logger
}

// NewRegistry builds a registry with the TabBar and MarkdownView handlers
// pre-registered. Callers may Register additional handlers before
// running ApplyAdjustments.
func NewRegistry(log *zap.Logger) *registry {
	r := &registry{handlers: make(map[string]render.CustomComponentHandler), log: log}
	r.Register("TabBar", &TabBarHandler{})
	r.Register("MarkdownView", &MarkdownViewHandler{})
	return r
}

// Register links a component identifier to its handler, overwriting any
// existing registration for that identifier.
func (r *registry) Register(identifier string, handler render.CustomComponentHandler) {
	if identifier == "" || handler == nil {
		return
	}
	r.handlers[identifier] = handler
}

// identify reports the custom-component identifier a node matches, if
// any, keyed by the presence of a recognized marker custom property.
func identify(n *render.Node) string {
	if hasCustomProp(n, "position") {
		return "TabBar"
	}
	if hasCustomProp(n, "source") {
		return "MarkdownView"
	}
	return ""
}

func hasCustomProp(n *render.Node, key string) bool {
	for _, p := range n.CustomProps {
		if p.Key == key {
			return true
		}
	}
	return false
}

// customPropString resolves a string-valued custom property on n,
// falling back to def when absent or mistyped.
func customPropString(doc *krb.Document, n *render.Node, key, def string) string {
	for _, p := range n.CustomProps {
		if p.Key != key {
			continue
		}
		if idx, ok := p.StringIndex(); ok {
			if s, ok := doc.StringAt(idx); ok {
				return s
			}
		}
		return def
	}
	return def
}

// ApplyAdjustments runs every recognized handler over the tree once the
// first full layout pass has completed.
func (r *registry) ApplyAdjustments(tree *render.Tree, engineRelayout func(nodeIndex int, contentX, contentY, contentW, contentH float32)) {
	for i := range tree.Nodes {
		id := identify(&tree.Nodes[i])
		if id == "" {
			continue
		}
		handler, ok := r.handlers[id]
		if !ok {
			continue
		}
		if err := handler.HandleLayoutAdjustment(tree, i, engineRelayout); err != nil {
			if r.log != nil {
				r.log.Warn("custom component layout adjustment failed", zap.String("component", id), zap.Int("node", i), zap.Error(err))
			}
		}
	}
}
