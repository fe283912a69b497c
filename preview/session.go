package preview

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// session wraps a headless browser used to rasterize the HTML contact sheet.
type session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func newSession() (*session, error) {
	l := launcher.New().Headless(true)
	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("error launching browser: %v", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("error connecting to browser: %v", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("error creating page: %v", err)
	}
	page = page.Timeout(30 * time.Second)

	return &session{launcher: l, browser: browser, page: page}, nil
}

func (s *session) Close() {
	if s.page != nil {
		s.page.Close()
	}
	if s.browser != nil {
		s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
}

// open navigates to a URL and waits for the page and its images to settle.
func (s *session) open(url string) error {
	if err := s.page.Navigate(url); err != nil {
		return fmt.Errorf("error navigating to %s: %v", url, err)
	}
	if err := s.page.WaitLoad(); err != nil {
		return fmt.Errorf("error waiting for page load: %v", err)
	}
	s.page.WaitRequestIdle(3*time.Second, []string{}, []string{}, nil)
	return nil
}

// screenshot captures the full page as PNG bytes.
func (s *session) screenshot() ([]byte, error) {
	data, err := s.page.Screenshot(true, nil)
	if err != nil {
		return nil, fmt.Errorf("error capturing screenshot: %v", err)
	}
	return data, nil
}
