package export

import (
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"clipstudio/internal/transform"
)

// Compositor draws transformed source frames onto a fixed-size surface.
// The cropped region is fitted inside the surface, then scaled, rotated
// about its centre and panned by a fraction of the surface size, the same
// order the preview's CSS transform applies.
type Compositor struct {
	Width      int
	Height     int
	Background color.Color
	Interp     draw.Interpolator
}

// NewCompositor returns a compositor for a w×h surface.
func NewCompositor(w, h int) *Compositor {
	return &Compositor{Width: w, Height: h, Background: color.Black, Interp: draw.ApproxBiLinear}
}

// NewSurface allocates a surface matching the compositor size.
func (c *Compositor) NewSurface() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
}

// Draw clears dst and paints src with tr applied.
func (c *Compositor) Draw(dst *image.RGBA, src image.Image, tr transform.Transform) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c.Background), image.Point{}, draw.Src)

	sb := src.Bounds()
	crop := tr.Crop.Pixels(sb.Dx(), sb.Dy()).Add(sb.Min)
	if crop.Empty() || tr.Opacity <= 0 {
		return
	}

	db := dst.Bounds()
	cw, ch := float64(crop.Dx()), float64(crop.Dy())
	fit := math.Min(float64(db.Dx())/cw, float64(db.Dy())/ch)
	k := fit * tr.Scale

	theta := tr.Rotation * math.Pi / 180
	cos, sin := math.Cos(theta), math.Sin(theta)

	scx := float64(crop.Min.X) + cw/2
	scy := float64(crop.Min.Y) + ch/2
	dcx := float64(db.Min.X) + float64(db.Dx())/2 + tr.PanX*float64(db.Dx())
	dcy := float64(db.Min.Y) + float64(db.Dy())/2 + tr.PanY*float64(db.Dy())

	// dst = T(dc) · R(θ) · S(k) · T(-sc) · src
	a, b := k*cos, -k*sin
	d, e := k*sin, k*cos
	m := f64.Aff3{
		a, b, dcx - (a*scx + b*scy),
		d, e, dcy - (d*scx + e*scy),
	}

	opts := &draw.Options{}
	if tr.Opacity < 1 {
		alpha := uint8(math.Round(tr.Opacity * 255))
		opts.SrcMask = image.NewUniform(color.Alpha{A: alpha})
	}
	interp := c.Interp
	if interp == nil {
		interp = draw.ApproxBiLinear
	}
	interp.Transform(dst, m, src, crop, draw.Over, opts)
}

// framePool recycles decoded frame buffers by size.
type framePool struct {
	mu    sync.Mutex
	pools map[image.Rectangle]*sync.Pool
}

func newFramePool() *framePool {
	return &framePool{pools: make(map[image.Rectangle]*sync.Pool)}
}

func (p *framePool) get(rect image.Rectangle) *image.RGBA {
	p.mu.Lock()
	pool, ok := p.pools[rect]
	if !ok {
		pool = &sync.Pool{New: func() any { return image.NewRGBA(rect) }}
		p.pools[rect] = pool
	}
	p.mu.Unlock()
	return pool.Get().(*image.RGBA)
}

func (p *framePool) put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.Lock()
	pool, ok := p.pools[img.Rect]
	p.mu.Unlock()
	if ok {
		pool.Put(img)
	}
}
