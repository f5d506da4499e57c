package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/jonathan/lien-harvester/internal/config"
	"github.com/jonathan/lien-harvester/internal/retry"
)

// Session owns the browser for one crawl run. All navigation goes through the
// one tab it opens; document capture opens short-lived secondary tabs off the
// same browser so they share the login cookies.
type Session struct {
	cfg *config.Crawler
	ctx context.Context

	allocCancel context.CancelFunc
	ctxCancel   context.CancelFunc

	// pendingLocal holds restored localStorage entries until the first
	// navigation reaches the portal origin, where they can be written.
	pendingLocal map[string]string
}

// New launches the browser. Close must be called when the run ends.
func New(ctx context.Context, cfg *config.Crawler) (*Session, error) {
	width, height, err := cfg.Viewport()
	if err != nil {
		return nil, err
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(cfg.UserAgent()),
			chromedp.WindowSize(width, height),
		)...,
	)

	browserCtx, ctxCancel := chromedp.NewContext(allocCtx)

	// Starting the browser eagerly surfaces a missing Chrome install as an
	// error here instead of on the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		ctxCancel()
		allocCancel()
		return nil, fmt.Errorf("browser start failed: %w", err)
	}

	if cfg.Verbose {
		log.Printf("[BROWSER] Started (headless=%v, viewport=%dx%d)", cfg.Headless, width, height)
	}

	return &Session{
		cfg:         cfg,
		ctx:         browserCtx,
		allocCancel: allocCancel,
		ctxCancel:   ctxCancel,
	}, nil
}

// Context returns the browser tab context. Secondary tabs branch off it.
func (s *Session) Context() context.Context { return s.ctx }

// Close tears the browser down.
func (s *Session) Close() {
	s.ctxCancel()
	s.allocCancel()
}

// Pace sleeps a randomized human-like interval between interactions.
func (s *Session) Pace() {
	s.sleepRange(s.cfg.PaceMinMs, s.cfg.PaceMaxMs)
}

// PaceShort is the brief delay used between individual form fields.
func (s *Session) PaceShort() {
	s.sleepRange(250, 500)
}

func (s *Session) sleepRange(minMs, maxMs int) {
	d := time.Duration(minMs) * time.Millisecond
	if maxMs > minMs {
		d += time.Duration(rand.Intn(maxMs-minMs)) * time.Millisecond
	}
	select {
	case <-time.After(d):
	case <-s.ctx.Done():
	}
}

// navTimeout bounds one navigation or wait.
func (s *Session) navTimeout() time.Duration {
	return time.Duration(s.cfg.NavTimeoutSec) * time.Second
}

// Run executes browser actions under the navigation timeout.
func (s *Session) Run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.navTimeout())
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Navigate loads a URL in the main tab and waits for the document body.
func (s *Session) Navigate(url string) error {
	if err := s.Run(chromedp.Navigate(url), chromedp.WaitReady("body")); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if len(s.pendingLocal) > 0 {
		s.flushLocalStorage()
	}
	return nil
}

// flushLocalStorage writes restored localStorage entries into the current
// page's origin. Failures are logged only; cookies alone usually carry the
// session.
func (s *Session) flushLocalStorage() {
	data, err := json.Marshal(s.pendingLocal)
	if err != nil {
		s.pendingLocal = nil
		return
	}
	js := fmt.Sprintf(
		`(() => { const items = %s; for (const k in items) localStorage.setItem(k, items[k]); })()`,
		string(data),
	)
	if err := s.Run(chromedp.Evaluate(js, nil)); err != nil {
		log.Printf("[BROWSER] localStorage restore failed: %v", err)
		return
	}
	if s.cfg.Verbose {
		log.Printf("[BROWSER] Restored %d localStorage entries", len(s.pendingLocal))
	}
	s.pendingLocal = nil
}

// CurrentURL returns the main tab's location.
func (s *Session) CurrentURL() (string, error) {
	var url string
	if err := s.Run(chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return url, nil
}

// DismissAnnouncement handles the portal's interstitial announcement page,
// which can appear after any navigation. It selects the dismiss option and
// continues; on any other page it does nothing.
func (s *Session) DismissAnnouncement() error {
	url, err := s.CurrentURL()
	if err != nil {
		return err
	}
	if !strings.Contains(url, "Announcement") {
		return nil
	}

	log.Printf("[BROWSER] Announcement page detected, dismissing")
	err = s.Run(
		chromedp.SetValue("#Options", "dismiss", chromedp.ByID),
		chromedp.Sleep(time.Second),
		chromedp.Click(`input[name='Continue']`, chromedp.NodeVisible),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		return fmt.Errorf("dismiss announcement: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether the current page shows a logout affordance,
// which is the only reliable signal this portal gives.
func (s *Session) IsAuthenticated() (bool, error) {
	var bodyText string
	err := s.Run(chromedp.Evaluate("document.body.innerText", &bodyText))
	if err != nil {
		return false, fmt.Errorf("read page text: %w", err)
	}
	return strings.Contains(strings.ToLower(bodyText), "logout"), nil
}

// Login performs the portal login and verifies it landed in an authenticated
// state. It retries the whole sequence a bounded number of times because the
// portal intermittently drops the first form submission.
func (s *Session) Login() error {
	return retry.Do(s.ctx, retry.DefaultAttempts, 2*time.Second, func(context.Context) error {
		return s.loginOnce()
	})
}

func (s *Session) loginOnce() error {
	if err := s.Navigate(s.cfg.LoginURL); err != nil {
		return err
	}
	s.Pace()
	if err := s.DismissAnnouncement(); err != nil {
		return err
	}

	err := s.Run(
		chromedp.SendKeys(`input[name='txtUserID']`, s.cfg.Username, chromedp.NodeVisible),
		chromedp.SendKeys(`input[name='txtPassword']`, s.cfg.Password, chromedp.NodeVisible),
	)
	if err != nil {
		return fmt.Errorf("fill login form: %w", err)
	}
	s.PaceShort()

	// Keep the session persistent when the portal offers it. The checkbox is
	// missing on some portal variants, so this must not block or fail.
	_ = s.Run(chromedp.Evaluate(
		`(() => { const cb = document.querySelector("input[type='checkbox'][name='permanent']"); if (cb && !cb.checked) cb.click(); })()`,
		nil,
	))

	if err := s.Run(chromedp.Click(`img[name='logon']`, chromedp.NodeVisible)); err != nil {
		log.Printf("[LOGIN] Login button click failed (%v), using JS submit", err)
		if err := s.Run(chromedp.Evaluate(`document.forms['frmLogin'].submit()`, nil)); err != nil {
			return fmt.Errorf("submit login form: %w", err)
		}
	}

	if err := s.Run(chromedp.WaitReady("body")); err != nil {
		return fmt.Errorf("wait for post-login page: %w", err)
	}
	s.Pace()
	if err := s.DismissAnnouncement(); err != nil {
		return err
	}

	if err := s.Navigate(s.cfg.SearchURL); err != nil {
		return err
	}
	s.Pace()
	if err := s.DismissAnnouncement(); err != nil {
		return err
	}

	ok, err := s.IsAuthenticated()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("login not accepted by portal")
	}

	log.Printf("[LOGIN] Login successful")
	return nil
}

// EnsureAuthenticated restores a usable session: it checks the search page
// for an authenticated state and logs in once if the saved session expired.
// The session state file is only overwritten after a verified login.
func (s *Session) EnsureAuthenticated() error {
	if err := s.Navigate(s.cfg.SearchURL); err != nil {
		return err
	}
	s.Pace()
	if err := s.DismissAnnouncement(); err != nil {
		return err
	}

	ok, err := s.IsAuthenticated()
	if err != nil {
		return err
	}
	if ok {
		log.Printf("[LOGIN] Existing session still valid")
		return nil
	}

	log.Printf("[LOGIN] Session expired, logging in")
	if err := s.Login(); err != nil {
		return err
	}

	st, err := s.CaptureState()
	if err != nil {
		return err
	}
	if err := SaveState(s.cfg.StateFile, st); err != nil {
		return err
	}
	log.Printf("[LOGIN] Saved session state to %s", s.cfg.StateFile)
	return nil
}

// RestoreState injects saved cookies into the browser before the first
// navigation. localStorage entries cannot be written until a page of the
// portal origin is open, so they are held back until then.
func (s *Session) RestoreState(st *State) error {
	if st == nil {
		return nil
	}
	if len(st.LocalStorage) > 0 {
		s.pendingLocal = st.LocalStorage
	}
	if len(st.Cookies) == 0 {
		return nil
	}

	err := s.Run(chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range st.Cookies {
			p := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithHTTPOnly(c.HTTPOnly).
				WithSecure(c.Secure)
			if c.Expires > 0 {
				t := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
				p = p.WithExpires(&t)
			}
			if err := p.Do(ctx); err != nil {
				return fmt.Errorf("set cookie %s: %w", c.Name, err)
			}
		}
		return nil
	}))
	if err != nil {
		return err
	}

	if s.cfg.Verbose {
		log.Printf("[BROWSER] Restored %d cookies from saved session", len(st.Cookies))
	}
	return nil
}

// CaptureState reads the browser's cookies and the portal's localStorage
// for persistence.
func (s *Session) CaptureState() (*State, error) {
	var cookies []*network.Cookie
	err := s.Run(chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("capture cookies: %w", err)
	}

	var local map[string]string
	err = s.Run(chromedp.Evaluate(
		`(() => { const o = {}; for (let i = 0; i < localStorage.length; i++) { const k = localStorage.key(i); o[k] = localStorage.getItem(k); } return o; })()`,
		&local,
	))
	if err != nil {
		// Not worth failing the save over; cookies carry the session.
		log.Printf("[BROWSER] localStorage capture failed: %v", err)
		local = nil
	}

	st := &State{LocalStorage: local}
	for _, c := range cookies {
		st.Cookies = append(st.Cookies, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: c.SameSite.String(),
		})
	}
	return st, nil
}
