// Package chart renders the spending trend as inline SVG.
package chart

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/ledger"
)

const (
	DefaultWidth  = 560
	DefaultHeight = 260

	padLeft   = 56
	padRight  = 16
	padTop    = 16
	padBottom = 36

	gridLines = 4
	lineColor = "#8884d8"
)

// Renderer turns trend points into SVG, caching the markup per ledger revision.
type Renderer struct {
	width  int
	height int
	cache  *cache.LRUCache[template.HTML]
}

type Option func(*Renderer)

func WithSize(width, height int) Option {
	return func(r *Renderer) {
		if width > padLeft+padRight && height > padTop+padBottom {
			r.width, r.height = width, height
		}
	}
}

// WithCache enables caching; without it every call renders.
func WithCache(c *cache.LRUCache[template.HTML]) Option {
	return func(r *Renderer) { r.cache = c }
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{width: DefaultWidth, height: DefaultHeight}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const (
	cacheEntries    = 8
	defaultCacheTTL = 10 * time.Minute
)

// NewCache returns a cache sized for a handful of recent revisions. A
// non-positive ttl uses ten minutes.
func NewCache(ttl time.Duration) *cache.LRUCache[template.HTML] {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return cache.NewLRUCache[template.HTML](cacheEntries, ttl)
}

// RenderSnapshot renders the trend of snap, reusing the cached markup when the
// revision was already rendered.
func (r *Renderer) RenderSnapshot(snap ledger.Snapshot) template.HTML {
	if r.cache == nil {
		return r.Render(ledger.Trend(snap.Records))
	}
	key := "rev:" + strconv.FormatUint(snap.Revision, 10)
	svg, _ := r.cache.GetOrCompute(key, func() (template.HTML, error) {
		return r.Render(ledger.Trend(snap.Records)), nil
	})
	return svg
}

// Render draws points left to right in the given order. An empty series yields
// the frame and grid without a line.
func (r *Renderer) Render(points []ledger.TrendPoint) template.HTML {
	var b strings.Builder

	plotW := float64(r.width - padLeft - padRight)
	plotH := float64(r.height - padTop - padBottom)
	bottom := float64(r.height - padBottom)

	maxAmount := decimal.Zero
	for _, p := range points {
		if p.Amount.GreaterThan(maxAmount) {
			maxAmount = p.Amount
		}
	}
	scaleMax, _ := maxAmount.Float64()
	if scaleMax <= 0 {
		scaleMax = 1
	}

	fmt.Fprintf(&b, `<svg class="trend-chart" viewBox="0 0 %d %d" width="100%%" role="img" aria-label="Spending trend" xmlns="http://www.w3.org/2000/svg">`, r.width, r.height)

	for i := 0; i <= gridLines; i++ {
		y := float64(padTop) + plotH*float64(i)/gridLines
		fmt.Fprintf(&b, `<line class="grid" x1="%d" y1="%s" x2="%d" y2="%s" stroke="#ccc" stroke-dasharray="3 3"/>`,
			padLeft, coord(y), r.width-padRight, coord(y))
		tick := maxAmount.Mul(decimal.NewFromInt(int64(gridLines - i))).Div(decimal.NewFromInt(gridLines))
		fmt.Fprintf(&b, `<text class="y-label" x="%d" y="%s" text-anchor="end" dominant-baseline="middle">%s</text>`,
			padLeft-6, coord(y), tick.StringFixed(0))
	}
	fmt.Fprintf(&b, `<line class="axis" x1="%d" y1="%s" x2="%d" y2="%s" stroke="#666"/>`,
		padLeft, coord(bottom), r.width-padRight, coord(bottom))

	if len(points) > 0 {
		xs := make([]float64, len(points))
		ys := make([]float64, len(points))
		for i, p := range points {
			if len(points) == 1 {
				xs[i] = float64(padLeft) + plotW/2
			} else {
				xs[i] = float64(padLeft) + plotW*float64(i)/float64(len(points)-1)
			}
			v, _ := p.Amount.Float64()
			ys[i] = bottom - plotH*v/scaleMax
		}

		pairs := make([]string, len(points))
		for i := range points {
			pairs[i] = coord(xs[i]) + "," + coord(ys[i])
		}
		fmt.Fprintf(&b, `<polyline class="trend-line" fill="none" stroke="%s" stroke-width="2" points="%s"/>`,
			lineColor, strings.Join(pairs, " "))

		for i, p := range points {
			label := template.HTMLEscapeString(p.Label)
			fmt.Fprintf(&b, `<circle class="point" cx="%s" cy="%s" r="4" fill="%s"><title>%s: %s</title></circle>`,
				coord(xs[i]), coord(ys[i]), lineColor, label, core.FormatCurrency(p.Amount))
			fmt.Fprintf(&b, `<text class="x-label" x="%s" y="%s" text-anchor="middle">%s</text>`,
				coord(xs[i]), coord(bottom+18), label)
		}
	}

	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
