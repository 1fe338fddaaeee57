package depot

import (
	"github.com/aquastor/depot/internal/errs"
	"github.com/aquastor/depot/internal/logger"
)

// retry runs fn up to attempts times and returns nil on the first success,
// otherwise the last error. Only transient errors (connectivity, backend
// timeouts) are retried; not-found, permission, and integrity failures
// abort immediately.
func retry(attempts int, log *logger.Logger, fn func() error) error {
	var last error
	for i := 0; i < attempts; i++ {
		last = fn()
		if last == nil {
			return nil
		}
		if !errs.IsTransient(last) {
			return last
		}
		log.Warnf("attempt %d/%d failed: %v", i+1, attempts, last)
	}
	return last
}
