package app

import (
	"github.com/kryonlabs/kryon-render/internal/config"
	"github.com/kryonlabs/kryon-render/krb"
	"github.com/kryonlabs/kryon-render/render"
)

// resolveWindowConfig derives the effective WindowConfig by layering, in
// order: compiled-in defaults, the optional config file's window
// section, and finally the App element's own style and direct properties
// (WindowWidth/Height/Title/Resizable/ScaleFactor). KRB content always
// wins, matching the cascade order every other element resolves under.
func resolveWindowConfig(doc *krb.Document, appNode *render.Node, fileCfg *config.Config) render.WindowConfig {
	wc := render.DefaultWindowConfig()
	if fileCfg != nil {
		if fileCfg.Window.Width > 0 {
			wc.Width = fileCfg.Window.Width
		}
		if fileCfg.Window.Height > 0 {
			wc.Height = fileCfg.Window.Height
		}
		if fileCfg.Window.Title != "" {
			wc.Title = fileCfg.Window.Title
		}
		wc.Resizable = fileCfg.Window.Resizable
		if fileCfg.Window.ScaleFactor > 0 {
			wc.ScaleFactor = fileCfg.Window.ScaleFactor
		}
	}
	if appNode == nil {
		return wc
	}

	apply := func(p krb.Property) {
		switch p.ID {
		case krb.PropWindowWidth:
			if v, ok := p.Short(); ok {
				wc.Width = int(v)
			} else if v, ok := p.Byte(); ok {
				wc.Width = int(v)
			}
		case krb.PropWindowHeight:
			if v, ok := p.Short(); ok {
				wc.Height = int(v)
			} else if v, ok := p.Byte(); ok {
				wc.Height = int(v)
			}
		case krb.PropWindowTitle:
			if idx, ok := p.StringIndex(); ok {
				if s, ok := doc.StringAt(idx); ok {
					wc.Title = s
				}
			}
		case krb.PropResizable:
			if v, ok := p.Byte(); ok {
				wc.Resizable = v != 0
			}
		case krb.PropScaleFactor:
			if v, ok := p.Percentage(); ok {
				wc.ScaleFactor = v
			} else if v, ok := p.Byte(); ok {
				wc.ScaleFactor = float32(v)
			}
		}
	}

	if style := doc.StyleByID(appNode.Header.StyleID); style != nil {
		for _, p := range style.Properties {
			apply(p)
		}
	}
	for _, p := range appNode.Properties {
		apply(p)
	}
	if wc.ScaleFactor <= 0 {
		wc.ScaleFactor = 1.0
	}
	wc.DefaultBg = appNode.BgColor
	return wc
}
