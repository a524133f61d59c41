package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Config configures the launched browser session.
type Config struct {
	Headless        bool
	UserAgent       string
	PageLoadTimeout time.Duration
	ElementWait     time.Duration
}

type rodSession struct {
	browser *rod.Browser
	lnch    *launcher.Launcher
	page    *rod.Page
	cfg     Config
}

// NewSession launches Chrome and opens the single shared page with stealth
// applied. The caller owns the session and must Close it on every exit path.
func NewSession(cfg Config) (Session, error) {
	l := launcher.New().Headless(cfg.Headless)
	l = l.Set("disable-blink-features", "AutomationControlled")

	wsURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser launch: %w", err)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("browser connect: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("create page: %w", err)
	}

	if cfg.UserAgent != "" {
		ua := &proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}
		if err := page.SetUserAgent(ua); err != nil {
			b.Close()
			l.Cleanup()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	return &rodSession{browser: b, lnch: l, page: page, cfg: cfg}, nil
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.PageLoadTimeout)
	defer cancel()

	page := s.page.Context(navCtx)
	if err := page.Navigate(url); err != nil {
		return navErr("navigate", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return navErr("wait load", url, err)
	}
	return nil
}

func navErr(op, url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", op, url, ErrNavigationTimeout)
	}
	return fmt.Errorf("%s %s: %w", op, url, err)
}

func (s *rodSession) Reload() error {
	if err := s.page.Reload(); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

func (s *rodSession) CurrentURL() (string, error) {
	info, err := s.page.Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.URL, nil
}

func (s *rodSession) Element(selector string) (Element, error) {
	el, err := s.page.Timeout(s.cfg.ElementWait).Element(selector)
	if err != nil {
		return nil, elemErr(selector, err)
	}
	return &rodElement{el: el.CancelTimeout(), wait: s.cfg.ElementWait}, nil
}

func (s *rodSession) Elements(selector string) ([]Element, error) {
	els, err := s.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("find all %q: %w", selector, err)
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el, wait: s.cfg.ElementWait})
	}
	return out, nil
}

func (s *rodSession) SetCookies(cookies []Cookie) error {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
			Secure: c.Secure,
		})
	}
	if err := s.page.SetCookies(params); err != nil {
		return fmt.Errorf("set cookies: %w", err)
	}
	return nil
}

func (s *rodSession) Close() error {
	err := s.page.Close()
	if berr := s.browser.Close(); err == nil {
		err = berr
	}
	s.lnch.Cleanup()
	return err
}

func elemErr(selector string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%q: %w", selector, ErrElementNotFound)
	}
	return fmt.Errorf("find %q: %w", selector, err)
}

type rodElement struct {
	el   *rod.Element
	wait time.Duration
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Attribute(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", fmt.Errorf("attribute %q: %w", name, err)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (e *rodElement) Element(selector string) (Element, error) {
	el, err := e.el.Timeout(e.wait).Element(selector)
	if err != nil {
		return nil, elemErr(selector, err)
	}
	return &rodElement{el: el.CancelTimeout(), wait: e.wait}, nil
}

func (e *rodElement) Elements(selector string) ([]Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("find all %q: %w", selector, err)
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el, wait: e.wait})
	}
	return out, nil
}
