// Package app implements the renderer-agnostic main loop: load a KRB
// file, build and style its render tree, then run the single-threaded
// frame sequence (poll events, dispatch handlers, layout,
// custom-component adjustments, draw) until the backend requests
// shutdown.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-render/internal/config"
	"github.com/kryonlabs/kryon-render/internal/diagnostics"
	"github.com/kryonlabs/kryon-render/krb"
	"github.com/kryonlabs/kryon-render/render"
	"github.com/kryonlabs/kryon-render/render/raylib"
)

// EventHandlers maps a KRB event's callback string name to a Go
// function. The CLI wires an empty registry by default; an unresolved
// handler name is logged once, then silently skipped.
type EventHandlers map[string]func()

// Options configures a single Run invocation.
type Options struct {
	KRBPath      string
	Config       *config.Config
	Log          *zap.Logger
	Handlers     EventHandlers
	DumpTree     bool // --debug-tree development flag
}

// Run loads KRBPath, initializes a raylib backend and drives frames
// until the window is closed or a fatal error occurs. The returned error
// is non-nil only for conditions the CLI maps to a non-zero exit code.
func Run(opts Options) error {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	diag := diagnostics.NewBatch(log)

	data, err := os.ReadFile(opts.KRBPath)
	if err != nil {
		return &ParseError{Err: fmt.Errorf("reading %q: %w", opts.KRBPath, err)}
	}

	doc, err := krb.ReadDocument(data)
	if err != nil {
		return &ParseError{Err: fmt.Errorf("parsing %q: %w", opts.KRBPath, err)}
	}
	diag.AddAll(doc.Diagnostics)
	log.Info("parsed KRB document",
		zap.String("file", opts.KRBPath),
		zap.Uint8("version_major", doc.VersionMajor),
		zap.Uint8("version_minor", doc.VersionMinor),
		zap.Int("elements", len(doc.Elements)),
		zap.Int("styles", len(doc.Styles)),
		zap.Int("strings", len(doc.Strings)),
		zap.Int("resources", len(doc.Resources)),
	)

	if len(doc.Elements) == 0 {
		log.Warn("document has no elements, nothing to render")
		return nil
	}

	store, err := krb.BuildTemplateStore(doc)
	if err != nil {
		return &ParseError{Err: fmt.Errorf("building template store: %w", err)}
	}

	tree, err := render.BuildTree(doc, store)
	if err != nil {
		return &ParseError{Err: fmt.Errorf("building render tree: %w", err)}
	}
	diag.AddAll(tree.Diagnostics)

	render.ApplyStyling(tree, doc)

	var appNode *render.Node
	if doc.Header.HasApp() && len(tree.Roots) > 0 {
		appNode = &tree.Nodes[tree.Roots[0]]
	}
	windowConfig := resolveWindowConfig(doc, appNode, opts.Config)

	krbDir, err := filepath.Abs(filepath.Dir(opts.KRBPath))
	if err != nil {
		krbDir = filepath.Dir(opts.KRBPath)
	}
	backend := raylib.NewBackend(krbDir)
	if err := backend.Initialize(windowConfig); err != nil {
		return &RuntimeError{Err: fmt.Errorf("initializing backend: %w", err)}
	}
	defer backend.Shutdown()

	registry := raylib.NewRegistry(log)
	handlers := opts.Handlers
	if handlers == nil {
		handlers = EventHandlers{}
	}
	warnedHandlers := make(map[string]bool)

	preloadTextures(doc, tree, backend, diag)
	textureSize := func(d *krb.Document, idx uint8) (int, int, bool) {
		handle, err := backend.LoadTexture(d, idx)
		if err != nil {
			return 0, 0, false
		}
		return backend.TextureSize(handle)
	}

	if opts.DumpTree {
		dumpTree(tree, log)
	}

	relayout := render.NewRelayoutFunc(tree, doc, windowConfig.ScaleFactor, backend.MeasureText, textureSize)

	for !backend.ShouldClose() {
		events := backend.PollEvents()
		for _, ev := range events {
			dispatch(tree, ev, handlers, warnedHandlers, log)
		}

		w, h := backend.CurrentSize()
		render.RunLayout(tree, doc, windowConfig.ScaleFactor, float32(w), float32(h), backend.MeasureText, textureSize)
		registry.ApplyAdjustments(tree, relayout)
		backend.SetTree(tree)

		backend.BeginFrame()
		drawTree(tree, backend)
		backend.EndFrame()
	}

	if diag.Len() > 0 {
		log.Info("session ended with diagnostics", zap.Int("count", diag.Len()))
	}
	return nil
}

func preloadTextures(doc *krb.Document, tree *render.Tree, backend *raylib.Backend, diag *diagnostics.Batch) {
	for i := range tree.Nodes {
		n := &tree.Nodes[i]
		if n.ResourceIndex == render.InvalidResourceIndex {
			continue
		}
		if _, err := backend.LoadTexture(doc, n.ResourceIndex); err != nil {
			diag.Add(fmt.Errorf("node %d: %w", i, err))
		}
	}
}

// dispatch routes a backend-reported event to the node it hit, invoking
// any bound handler by name. Lookup failures log once per handler name.
func dispatch(tree *render.Tree, ev render.InputEvent, handlers EventHandlers, warned map[string]bool, log *zap.Logger) {
	if ev.NodeHint < 0 || ev.NodeHint >= len(tree.Nodes) {
		return
	}
	n := &tree.Nodes[ev.NodeHint]
	for _, b := range n.Events {
		if b.Type != ev.Type {
			continue
		}
		fn, ok := handlers[b.HandlerName]
		if !ok {
			if !warned[b.HandlerName] {
				log.Warn("no handler registered for event callback", zap.String("handler", b.HandlerName))
				warned[b.HandlerName] = true
			}
			continue
		}
		fn()
	}
}

func drawTree(tree *render.Tree, backend *raylib.Backend) {
	for _, root := range tree.Roots {
		drawNode(tree, root, backend)
	}
}

func drawNode(tree *render.Tree, idx int, backend *raylib.Backend) {
	n := &tree.Nodes[idx]
	if !n.Visible {
		return
	}
	if n.RenderW <= 0 || n.RenderH <= 0 {
		for _, c := range n.Children {
			drawNode(tree, c, backend)
		}
		return
	}

	if n.Header.Type != krb.ElemTypeText {
		backend.DrawRect(n.RenderX, n.RenderY, n.RenderW, n.RenderH, n.BgColor)
	}

	left := float32(n.BorderWidths[3])
	top := float32(n.BorderWidths[0])
	right := float32(n.BorderWidths[1])
	bottom := float32(n.BorderWidths[2])
	cx := n.RenderX + left
	cy := n.RenderY + top
	cw := n.RenderW - left - right
	ch := n.RenderH - top - bottom

	if cw > 0 && ch > 0 {
		backend.PushScissor(cx, cy, cw, ch)
		drawContent(tree.Doc, n, cx, cy, cw, ch, backend)
		backend.PopScissor()
	}

	for _, c := range n.Children {
		drawNode(tree, c, backend)
	}
}

func drawContent(doc *krb.Document, n *render.Node, cx, cy, cw, ch float32, backend *raylib.Backend) {
	switch n.Header.Type {
	case krb.ElemTypeText, krb.ElemTypeButton:
		if n.Text == "" {
			break
		}
		fontSize := n.EffectiveFontSize()
		tw, th := backend.MeasureText(n.Text, fontSize)
		x := cx
		switch n.TextAlign {
		case krb.TextAlignCenter:
			x = cx + (cw-tw)/2
		case krb.TextAlignEnd:
			x = cx + cw - tw
		}
		y := cy + (ch-th)/2
		backend.DrawText(n.Text, x, y, fontSize, n.FgColor)
	}
	if n.Header.Type == krb.ElemTypeImage || n.Header.Type == krb.ElemTypeButton {
		if n.ResourceIndex == render.InvalidResourceIndex {
			return
		}
		if handle, err := backend.LoadTexture(doc, n.ResourceIndex); err == nil {
			backend.DrawTexture(handle, cx, cy, cw, ch)
		}
	}
}

func dumpTree(tree *render.Tree, log *zap.Logger) {
	for _, root := range tree.Roots {
		dumpNode(tree, root, 0, log)
	}
}

func dumpNode(tree *render.Tree, idx, depth int, log *zap.Logger) {
	n := &tree.Nodes[idx]
	log.Debug("tree",
		zap.Int("depth", depth),
		zap.Int("index", idx),
		zap.String("name", n.SourceName),
		zap.Uint8("type", uint8(n.Header.Type)),
		zap.Int("children", len(n.Children)),
		zap.Float32("x", n.RenderX), zap.Float32("y", n.RenderY),
		zap.Float32("w", n.RenderW), zap.Float32("h", n.RenderH),
	)
	for _, c := range n.Children {
		dumpNode(tree, c, depth+1, log)
	}
}

// ParseError marks a fatal document-load failure (exit code 1).
type ParseError struct{ Err error }

func (e *ParseError) Error() string { return e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// RuntimeError marks a fatal backend/runtime failure (exit code 2).
type RuntimeError struct{ Err error }

func (e *RuntimeError) Error() string { return e.Err.Error() }
func (e *RuntimeError) Unwrap() error { return e.Err }
