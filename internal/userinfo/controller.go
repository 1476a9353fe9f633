package userinfo

import (
	"context"
	"errors"
	"sync"

	"github.com/fruitsalade/fruitsalade/mobile/internal/logging"
	"github.com/fruitsalade/fruitsalade/mobile/pkg/models"
)

// ErrNoProfile is reported when the server answered without a profile.
var ErrNoProfile = errors.New("server returned no user info")

// View renders the profile screen.
type View interface {
	ShowLoading()
	ShowProfile(info *models.UserInfo, details []DetailItem)
	// ShowEmpty is used for a profile without any detail fields.
	ShowEmpty(info *models.UserInfo)
	ShowError(err error)
}

// Dispatcher runs fn on the goroutine that owns the view.
type Dispatcher func(fn func())

type lifecycle int

const (
	stateCreated lifecycle = iota
	stateResumed
	statePaused
	stateDestroyed
)

// Controller drives a single profile screen: it renders a saved profile
// straight away, or fetches one in the background. A fetch result reaches
// the view only if the screen is resumed when the fetch completes; otherwise
// it is dropped. Fetches are neither cancelled nor retried.
type Controller struct {
	fetcher  Fetcher
	view     View
	dispatch Dispatcher

	mu    sync.Mutex
	state lifecycle
	info  *models.UserInfo

	wg sync.WaitGroup
}

// NewController creates a controller. A nil dispatch calls the view directly
// from the fetching goroutine.
func NewController(fetcher Fetcher, view View, dispatch Dispatcher) *Controller {
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &Controller{fetcher: fetcher, view: view, dispatch: dispatch}
}

// Resume marks the screen as visible and interactive.
func (c *Controller) Resume() { c.setState(stateResumed) }

// Pause marks the screen as no longer in the foreground.
func (c *Controller) Pause() { c.setState(statePaused) }

// Destroy tears the screen down. It cannot be resumed afterwards.
func (c *Controller) Destroy() { c.setState(stateDestroyed) }

func (c *Controller) setState(s lifecycle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateDestroyed {
		c.state = s
	}
}

// Open shows the profile. A non-nil saved profile, e.g. restored after a
// configuration change, is rendered without contacting the server.
func (c *Controller) Open(ctx context.Context, saved *models.UserInfo) {
	if saved != nil {
		c.mu.Lock()
		c.info = saved
		c.mu.Unlock()
		c.render(saved)
		return
	}

	c.view.ShowLoading()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.fetch(context.WithoutCancel(ctx))
	}()
}

func (c *Controller) fetch(ctx context.Context) {
	info, err := c.fetcher.FetchUserInfo(ctx)
	if err == nil && info == nil {
		err = ErrNoProfile
	}
	if err != nil {
		logging.WithContext(ctx).Debug("user info fetch failed", logging.Err(err))
	}

	c.mu.Lock()
	if c.state != stateResumed {
		c.mu.Unlock()
		logging.WithContext(ctx).Debug("dropping user info result, screen not resumed")
		return
	}
	if err == nil {
		c.info = info
	}
	c.mu.Unlock()

	if err != nil {
		c.dispatch(func() { c.view.ShowError(err) })
		return
	}
	c.dispatch(func() { c.render(info) })
}

func (c *Controller) render(info *models.UserInfo) {
	details := Details(info)
	if len(details) == 0 {
		c.view.ShowEmpty(info)
		return
	}
	c.view.ShowProfile(info, details)
}

// SavedState returns the profile to persist across a screen recreation, or
// nil when none was loaded.
func (c *Controller) SavedState() *models.UserInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

// Wait blocks until the background fetch started by Open, if any, has
// finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}
