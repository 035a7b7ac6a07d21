// Package chart renders price, relative-performance and P/E trend charts to
// PNG files.
package chart

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	gochart "github.com/wcharczuk/go-chart/v2"
)

// CanvasConfig sizes a Canvas.
type CanvasConfig struct {
	Width  int     // pixels
	Height int     // pixels
	DPI    float64 // 0 uses go-chart's default
}

// Canvas is the rendering context handed to every render call. It owns the
// font and the encode buffer. A render holds the canvas for its whole
// duration, so concurrent renders need one canvas each.
type Canvas struct {
	mu     sync.Mutex
	width  int
	height int
	dpi    float64
	font   *truetype.Font
	buf    bytes.Buffer
	closed bool
}

// NewCanvas validates cfg and loads the default font.
func NewCanvas(cfg CanvasConfig) (*Canvas, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: canvas size %dx%d", ErrInvalidConfig, cfg.Width, cfg.Height)
	}
	if cfg.DPI < 0 {
		return nil, fmt.Errorf("%w: negative dpi %v", ErrInvalidConfig, cfg.DPI)
	}
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("loading font: %w", err)
	}
	return &Canvas{
		width:  cfg.Width,
		height: cfg.Height,
		dpi:    cfg.DPI,
		font:   font,
	}, nil
}

// Size returns the canvas dimensions in pixels.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// Close releases the canvas. Further renders fail with ErrCanvasClosed.
func (c *Canvas) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.buf = bytes.Buffer{}
	c.font = nil
	return nil
}

// acquire takes the canvas exclusively. The returned func releases it.
func (c *Canvas) acquire() (func(), error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil canvas", ErrInvalidConfig)
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrCanvasClosed
	}
	return c.mu.Unlock, nil
}

// encode renders graph as PNG and returns a copy of the bytes. The caller
// must hold the canvas.
func (c *Canvas) encode(graph gochart.Chart) ([]byte, error) {
	graph.Width = c.width
	graph.Height = c.height
	graph.Font = c.font
	if c.dpi > 0 {
		graph.DPI = c.dpi
	}

	c.buf.Reset()
	if err := graph.Render(gochart.PNG, &c.buf); err != nil {
		return nil, fmt.Errorf("rendering png: %w", err)
	}
	out := make([]byte, c.buf.Len())
	copy(out, c.buf.Bytes())
	return out, nil
}
