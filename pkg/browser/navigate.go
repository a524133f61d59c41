package browser

import (
	"context"
	"errors"

	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/logging"
)

// NavigateWithRetry loads url, and on a load timeout issues exactly one
// reload. The reload is not verified: processing continues with whatever
// content is present, which may be incomplete.
func NavigateWithRetry(ctx context.Context, s Session, url string, log logging.Logger) error {
	err := s.Navigate(ctx, url)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNavigationTimeout) {
		log.Warn("page load timed out, refreshing", logging.String("url", url))
		return s.Reload()
	}
	return err
}
