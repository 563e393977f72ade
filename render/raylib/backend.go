package raylib

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/kryonlabs/kryon-render/krb"
	"github.com/kryonlabs/kryon-render/render"
)

// Backend implements render.Backend on top of raylib-go: window
// lifecycle, frame begin/end, the draw primitives, text measurement and
// input polling. It holds no render tree of its own; tree building and
// layout live in the render package.
type Backend struct {
	config render.WindowConfig
	scale  float32

	// tree is the most recently laid-out frame, used by PollEvents for
	// hit-testing topmost-first. Set via SetTree once per frame by the
	// caller; polling happens before the next layout pass, so this is
	// always last frame's geometry, never this frame's.
	tree *render.Tree

	loadedTextures map[uint8]rl.Texture2D
	krbDir         string
}

// NewBackend constructs an uninitialized Backend. Call Initialize before
// any other method.
func NewBackend(krbDir string) *Backend {
	return &Backend{
		loadedTextures: make(map[uint8]rl.Texture2D),
		scale:          1.0,
		krbDir:         krbDir,
	}
}

// SetTree records the tree PollEvents should hit-test against.
func (b *Backend) SetTree(tree *render.Tree) { b.tree = tree }

func toRLColor(c krb.RGBA) rl.Color { return rl.NewColor(c.R, c.G, c.B, c.A) }

// Initialize opens the raylib window per the resolved WindowConfig.
func (b *Backend) Initialize(config render.WindowConfig) error {
	b.config = config
	b.scale = config.ScaleFactor
	if b.scale <= 0 {
		b.scale = 1.0
	}

	rl.InitWindow(int32(config.Width), int32(config.Height), config.Title)
	if config.Resizable {
		rl.SetWindowState(rl.FlagWindowResizable)
	} else {
		rl.ClearWindowState(rl.FlagWindowResizable)
		rl.SetWindowSize(config.Width, config.Height)
	}
	rl.SetTargetFPS(60)

	if !rl.IsWindowReady() {
		return &krb.Error{Kind: krb.KindLinkFailure, Message: "raylib window failed to initialize"}
	}
	return nil
}

// MeasureText reports the pixel width/height of text set in a single
// line at fontSizePx.
func (b *Backend) MeasureText(text string, fontSizePx float32) (float32, float32) {
	size := int32(fontSizePx)
	if size < 1 {
		size = 1
	}
	return float32(rl.MeasureText(text, size)), fontSizePx
}

// DrawRect fills a rectangle if the color is not fully transparent.
func (b *Backend) DrawRect(x, y, w, h float32, color krb.RGBA) {
	if color.A == 0 || w <= 0 || h <= 0 {
		return
	}
	rl.DrawRectangle(int32(x), int32(y), int32(w), int32(h), toRLColor(color))
}

// DrawText draws a single line of text at the given baseline-top origin.
func (b *Backend) DrawText(text string, x, y, fontSizePx float32, color krb.RGBA) {
	if text == "" {
		return
	}
	size := int32(fontSizePx)
	if size < 1 {
		size = 1
	}
	rl.DrawText(text, int32(x), int32(y), size, toRLColor(color))
}

// DrawTexture stretches a previously loaded texture into the destination
// rectangle.
func (b *Backend) DrawTexture(handle render.TextureHandle, x, y, w, h float32) {
	tex, ok := handle.(rl.Texture2D)
	if !ok || tex.ID == 0 || w <= 0 || h <= 0 {
		return
	}
	src := rl.NewRectangle(0, 0, float32(tex.Width), float32(tex.Height))
	dst := rl.NewRectangle(x, y, w, h)
	rl.DrawTexturePro(tex, src, dst, rl.NewVector2(0, 0), 0, rl.White)
}

// PushScissor clips subsequent draws to the given rectangle.
func (b *Backend) PushScissor(x, y, w, h float32) {
	rl.BeginScissorMode(int32(x), int32(y), int32(maxF32(0, w)), int32(maxF32(0, h)))
}

// PopScissor ends the current clip region.
func (b *Backend) PopScissor() { rl.EndScissorMode() }

// CurrentSize reports the live window dimensions, adopting a user-dragged
// resize when the window is resizable and re-asserting the configured
// size when it is not.
func (b *Backend) CurrentSize() (width, height int) {
	if !rl.IsWindowReady() {
		return b.config.Width, b.config.Height
	}
	if b.config.Resizable {
		if w, h := int(rl.GetScreenWidth()), int(rl.GetScreenHeight()); w > 0 && h > 0 {
			b.config.Width, b.config.Height = w, h
		}
	} else if int(rl.GetScreenWidth()) != b.config.Width || int(rl.GetScreenHeight()) != b.config.Height {
		rl.SetWindowSize(b.config.Width, b.config.Height)
	}
	return b.config.Width, b.config.Height
}

// BeginFrame starts a new raylib drawing frame, clearing to the window's
// resolved background.
func (b *Backend) BeginFrame() {
	rl.BeginDrawing()
	rl.ClearBackground(toRLColor(b.config.DefaultBg))
}

// EndFrame finalizes and presents the current frame.
func (b *Backend) EndFrame() { rl.EndDrawing() }

// ShouldClose reports whether the window received a close request.
func (b *Backend) ShouldClose() bool {
	return rl.IsWindowReady() && rl.WindowShouldClose()
}

// Shutdown releases every cached texture and closes the window. Not part
// of the Backend interface (the engine never calls Shutdown mid-frame);
// app.Run defers it.
func (b *Backend) Shutdown() {
	for idx, tex := range b.loadedTextures {
		if tex.ID > 0 {
			rl.UnloadTexture(tex)
		}
		delete(b.loadedTextures, idx)
	}
	if rl.IsWindowReady() {
		rl.CloseWindow()
	}
}

// PollEvents polls raylib's input state and hit-tests the mouse against
// the last tree SetTree recorded, topmost node first (reverse document
// order), reporting one Click event against the first interactive,
// visible node under the cursor.
func (b *Backend) PollEvents() []render.InputEvent {
	var events []render.InputEvent
	if !rl.IsWindowReady() {
		return events
	}

	mouse := rl.GetMousePosition()
	cursor := rl.MouseCursorDefault
	clicked := rl.IsMouseButtonPressed(rl.MouseButtonLeft)

	if b.tree != nil {
		for i := len(b.tree.Nodes) - 1; i >= 0; i-- {
			n := &b.tree.Nodes[i]
			if !n.Visible || n.RenderW <= 0 || n.RenderH <= 0 || !isInteractive(n) {
				continue
			}
			bounds := rl.NewRectangle(n.RenderX, n.RenderY, n.RenderW, n.RenderH)
			if !rl.CheckCollisionPointRec(mouse, bounds) {
				continue
			}
			cursor = rl.MouseCursorPointingHand
			if clicked {
				events = append(events, render.InputEvent{Type: krb.EventClick, NodeHint: i})
			}
			break
		}
	}
	rl.SetMouseCursor(cursor)
	return events
}

func isInteractive(n *render.Node) bool {
	switch n.Header.Type {
	case krb.ElemTypeButton, krb.ElemTypeInput:
		return true
	}
	return len(n.Events) > 0
}

func maxF32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
