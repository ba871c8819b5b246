package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/chromedp/chromedp"

	"resume-preview/internal/pagination"
)

// ChromeMeasurer measures blocks with the browser's layout engine. Every
// probe is a hidden container in its own tab, sized to the page width with
// the template stylesheet applied.
type ChromeMeasurer struct {
	browser *Browser
	open    atomic.Int64
}

func NewChromeMeasurer(b *Browser) *ChromeMeasurer {
	return &ChromeMeasurer{browser: b}
}

// Open reports how many probes are attached.
func (m *ChromeMeasurer) Open() int { return int(m.open.Load()) }

const probeID = "pagination-probe"

// the outer box carries the page padding; the inner box is what gets
// measured so padding is never counted as content
const mountProbeJS = `(function(spec){
	var style = document.createElement('style');
	style.id = '%[1]s-style';
	style.textContent = spec.stylesheet;
	document.head.appendChild(style);
	var outer = document.createElement('div');
	outer.id = '%[1]s';
	outer.className = spec.class;
	outer.setAttribute('style', spec.style);
	outer.style.boxSizing = 'border-box';
	outer.style.width = spec.width + 'px';
	outer.style.position = 'absolute';
	outer.style.left = '-100000px';
	outer.style.top = '0';
	outer.style.visibility = 'hidden';
	var inner = document.createElement('div');
	inner.id = '%[1]s-content';
	inner.style.display = 'flow-root';
	outer.appendChild(inner);
	document.body.appendChild(outer);
	return true;
})(%[2]s)`

const measureJS = `(function(html){
	var inner = document.getElementById('%s-content');
	if (!inner) { throw new Error('probe detached'); }
	inner.innerHTML = html;
	var h = inner.getBoundingClientRect().height;
	inner.innerHTML = '';
	return h;
})(%s)`

const unmountProbeJS = `(function(){
	var n = document.getElementById('%[1]s');
	if (n) { n.remove(); }
	var s = document.getElementById('%[1]s-style');
	if (s) { s.remove(); }
	return true;
})()`

func (m *ChromeMeasurer) Acquire(ctx context.Context, spec pagination.ProbeSpec) (pagination.Probe, error) {
	tctx, cancelTab := m.browser.tab()
	stop := context.AfterFunc(ctx, cancelTab)

	arg, err := json.Marshal(map[string]interface{}{
		"width":      spec.Width,
		"style":      spec.Style,
		"stylesheet": spec.Stylesheet,
		"class":      spec.Class,
	})
	if err != nil {
		stop()
		cancelTab()
		return nil, err
	}

	var ok bool
	err = chromedp.Run(tctx,
		chromedp.Navigate("about:blank"),
		setContent("<!DOCTYPE html><html><head><meta charset=\"utf-8\"></head><body></body></html>"),
		chromedp.Evaluate(fmt.Sprintf(mountProbeJS, probeID, arg), &ok),
	)
	if err != nil {
		stop()
		cancelTab()
		return nil, fmt.Errorf("mount probe: %w", err)
	}
	m.open.Add(1)
	return &chromeProbe{m: m, ctx: tctx, cancel: cancelTab, stop: stop}, nil
}

type chromeProbe struct {
	m        *ChromeMeasurer
	ctx      context.Context
	cancel   context.CancelFunc
	stop     func() bool
	released atomic.Bool
}

func (p *chromeProbe) Total(ctx context.Context, blocks []pagination.ContentBlock) (float64, error) {
	var html string
	for _, b := range blocks {
		html += b.Content
	}
	return p.measure(html)
}

func (p *chromeProbe) Measure(ctx context.Context, b pagination.ContentBlock) (float64, error) {
	return p.measure(b.Content)
}

func (p *chromeProbe) measure(html string) (float64, error) {
	if p.released.Load() {
		return 0, errors.New("probe released")
	}
	arg, err := json.Marshal(html)
	if err != nil {
		return 0, err
	}
	var h float64
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(fmt.Sprintf(measureJS, probeID, arg), &h)); err != nil {
		return 0, err
	}
	return h, nil
}

// Release removes the container and closes the tab. It is safe to call more
// than once.
func (p *chromeProbe) Release() error {
	if !p.released.CompareAndSwap(false, true) {
		return nil
	}
	defer p.m.open.Add(-1)
	defer p.cancel()
	defer p.stop()

	var ok bool
	return chromedp.Run(p.ctx, chromedp.Evaluate(fmt.Sprintf(unmountProbeJS, probeID), &ok))
}
