package raylib

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"
	_ "golang.org/x/image/bmp"

	"github.com/kryonlabs/kryon-render/krb"
	"github.com/kryonlabs/kryon-render/render"
)

// LoadTexture resolves and uploads the resource at resourceIndex,
// caching by index so a resource referenced by many nodes is decoded and
// uploaded only once. The pre-frame texture pass calls it for every node
// that carries a ResourceIndex; repeated indices are served from the
// cache. A failed load is not cached.
func (b *Backend) LoadTexture(doc *krb.Document, resourceIndex uint8) (render.TextureHandle, error) {
	if tex, ok := b.loadedTextures[resourceIndex]; ok {
		return tex, nil
	}
	if int(resourceIndex) >= len(doc.Resources) {
		return nil, fmt.Errorf("resource index %d out of range (%d resources)", resourceIndex, len(doc.Resources))
	}
	res := doc.Resources[resourceIndex]

	var raw []byte
	switch res.Format {
	case krb.ResourceFormatExternal:
		name, ok := doc.StringAt(res.PathIndex)
		if !ok {
			return nil, fmt.Errorf("resource %d: path string index %d out of range", resourceIndex, res.PathIndex)
		}
		data, err := os.ReadFile(filepath.Join(b.krbDir, name))
		if err != nil {
			return nil, fmt.Errorf("resource %d: reading %q: %w", resourceIndex, name, err)
		}
		raw = data
	case krb.ResourceFormatInline:
		raw = res.Inline
	default:
		return nil, fmt.Errorf("resource %d: unsupported format %#x", resourceIndex, res.Format)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("resource %d: empty image data", resourceIndex)
	}

	img := b.decodeImage(raw)
	if img == nil || img.Data == nil || img.Width == 0 || img.Height == 0 {
		return nil, fmt.Errorf("resource %d: failed to decode image (%d bytes)", resourceIndex, len(raw))
	}
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	if tex.ID == 0 {
		return nil, fmt.Errorf("resource %d: failed to upload texture", resourceIndex)
	}
	b.loadedTextures[resourceIndex] = tex
	return tex, nil
}

// decodeImage tries raylib's own memory decoder first (it covers PNG,
// JPEG, BMP, and more via stb_image). When that rejects the container,
// this falls back to the registered Go image decoders and converts the
// result into a raylib Image for upload.
func (b *Backend) decodeImage(raw []byte) *rl.Image {
	ext := sniffExt(raw)
	img := rl.LoadImageFromMemory(ext, raw, int32(len(raw)))
	if img != nil && img.Data != nil && img.Width > 0 && img.Height > 0 {
		return img
	}
	decoded, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil
	}
	return rl.NewImageFromImage(decoded)
}

// TextureSize reports the pixel dimensions of a handle previously
// returned by LoadTexture, used to build the TextureSizeFunc the layout
// engine calls for intrinsic image sizing.
func (b *Backend) TextureSize(handle render.TextureHandle) (width, height int, ok bool) {
	tex, isTex := handle.(rl.Texture2D)
	if !isTex || tex.ID == 0 {
		return 0, 0, false
	}
	return int(tex.Width), int(tex.Height), true
}

func sniffExt(raw []byte) string {
	switch {
	case len(raw) >= 8 && bytes.Equal(raw[:8], []byte(png.Header)):
		return ".png"
	case len(raw) >= 3 && raw[0] == 0xFF && raw[1] == 0xD8:
		return ".jpg"
	case len(raw) >= 2 && raw[0] == 'B' && raw[1] == 'M':
		return ".bmp"
	default:
		return ".png"
	}
}
