// Package pages holds the page objects of the web client: each one wraps the
// DOM of a part of the application (the login form, the sidenav, the
// document list, the breadcrumb, the viewer, the search input) behind
// methods named after what a user does or sees.
//
// Every method waits for the elements it needs, within the timeout of the
// browser. An element still missing at the deadline gives an error wrapping
// ErrElementNotFound.
package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/contentapp/e2e/pkg/config"
	"github.com/contentapp/e2e/pkg/logger"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// ErrElementNotFound is returned when an element has not shown up before the
// timeout.
var ErrElementNotFound = errors.New("element not found")

var log = logger.WithNamespace("pages")

// Default values for the browser options.
const (
	DefaultTimeout        = 20 * time.Second
	DefaultViewportWidth  = 1366
	DefaultViewportHeight = 768
)

// Options configures the browser.
type Options struct {
	// AppURL is the base URL of the web client.
	AppURL string
	// ControlURL is the DevTools URL of a running browser. When empty, a
	// new browser is launched.
	ControlURL string
	// Bin is the path of the browser binary to launch.
	Bin            string
	Headless       bool
	Timeout        time.Duration
	SlowMotion     time.Duration
	ViewportWidth  int
	ViewportHeight int
	// Flags are added to the command line of the launched browser, like
	// "--no-sandbox" or "--lang=en".
	Flags []string
}

// OptionsFromConfig returns the options of the browser section of the
// configuration.
func OptionsFromConfig(c config.Browser) Options {
	return Options{
		AppURL:         c.AppURL,
		ControlURL:     c.ControlURL,
		Bin:            c.Bin,
		Headless:       c.Headless,
		Timeout:        c.Timeout,
		SlowMotion:     c.SlowMotion,
		ViewportWidth:  c.ViewportWidth,
		ViewportHeight: c.ViewportHeight,
		Flags:          c.Flags,
	}
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = DefaultViewportWidth
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = DefaultViewportHeight
	}
	o.AppURL = strings.TrimSuffix(o.AppURL, "/")
	return o
}

// Browser is a browser with a single tab opened on the web client.
type Browser struct {
	opts     Options
	launcher *launcher.Launcher
	rod      *rod.Browser
	page     *rod.Page
}

// Launch starts a browser, or connects to the one at ControlURL, and opens a
// tab.
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	opts = opts.withDefaults()
	b := &Browser{opts: opts}

	controlURL := opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Context(ctx).Headless(opts.Headless)
		if opts.Bin != "" {
			l = l.Bin(opts.Bin)
		}
		for _, raw := range opts.Flags {
			name, val, hasVal := strings.Cut(strings.TrimLeft(raw, "-"), "=")
			if hasVal {
				l = l.Set(flags.Flag(name), val)
			} else {
				l = l.Set(flags.Flag(name))
			}
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		b.launcher = l
		controlURL = u
		log.Debugf("Browser launched at %s", controlURL)
	}

	b.rod = rod.New().ControlURL(controlURL).SlowMotion(opts.SlowMotion)
	if err := b.rod.Connect(); err != nil {
		b.kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	page, err := b.rod.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.ViewportWidth,
		Height:            opts.ViewportHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		log.Warnf("Cannot set the viewport: %s", err)
	}
	b.page = page
	return b, nil
}

// Page returns the tab of the browser.
func (b *Browser) Page() *rod.Page {
	return b.page
}

// Timeout returns the time given to an element to show up.
func (b *Browser) Timeout() time.Duration {
	return b.opts.Timeout
}

// URL returns the URL of a route of the web client.
func (b *Browser) URL(route string) string {
	if route == "" {
		return b.opts.AppURL
	}
	if !strings.HasPrefix(route, "/") && !strings.HasPrefix(route, "#") {
		route = "/" + route
	}
	return b.opts.AppURL + route
}

// Open navigates to a route of the web client and waits for the page to be
// loaded.
func (b *Browser) Open(ctx context.Context, route string) error {
	p := b.with(ctx)
	u := b.URL(route)
	if err := p.Navigate(u); err != nil {
		return fmt.Errorf("navigate to %s: %w", u, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("load %s: %w", u, err)
	}
	return nil
}

// CurrentURL returns the URL of the tab.
func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	info, err := b.with(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Screenshot captures the visible part of the tab as PNG.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	return b.with(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Close closes the browser, and kills it if it has been launched by Launch.
func (b *Browser) Close() error {
	var err error
	if b.rod != nil {
		err = b.rod.Close()
	}
	b.kill()
	return err
}

func (b *Browser) kill() {
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
		b.launcher = nil
	}
}

// with returns the tab bound to ctx, and to the timeout of the browser.
func (b *Browser) with(ctx context.Context) *rod.Page {
	return b.page.Context(ctx).Timeout(b.opts.Timeout)
}

// PressEscape sends the Escape key to the focused element, to close the
// viewer or a dialog.
func PressEscape(ctx context.Context, b *Browser) error {
	return b.with(ctx).Keyboard.Type(input.Escape)
}

// element waits for the first element matching selector.
func (b *Browser) element(ctx context.Context, what, selector string) (*rod.Element, error) {
	el, err := b.with(ctx).Element(selector)
	if err != nil {
		return nil, notFound(what, err)
	}
	return el, nil
}

// elementWithText waits for the first element matching selector whose text
// is exactly text.
func (b *Browser) elementWithText(ctx context.Context, what, selector, text string) (*rod.Element, error) {
	el, err := b.with(ctx).ElementR(selector, exactText(text))
	if err != nil {
		return nil, notFound(what, err)
	}
	return el, nil
}

// has tells if an element matching selector is currently in the DOM,
// without waiting.
func (b *Browser) has(ctx context.Context, selector string) (bool, *rod.Element, error) {
	return b.page.Context(ctx).Has(selector)
}

// click clicks on the element, once it is visible.
func click(el *rod.Element) error {
	if err := el.WaitVisible(); err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func text(el *rod.Element) (string, error) {
	s, err := el.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func notFound(what string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrElementNotFound, what)
	}
	var nf *rod.ElementNotFoundError
	if errors.As(err, &nf) {
		return fmt.Errorf("%w: %s", ErrElementNotFound, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrElementNotFound)
}
