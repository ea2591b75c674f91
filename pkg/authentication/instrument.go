package authentication

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/cftpd/pkg/logging"
)

// Instrumented wraps a Provider, writing every attempt to the access log and
// counting outcomes. It does not change what the wrapped provider returns.
type Instrumented struct {
	identifier string
	provider   Provider

	successes atomic.Int64
	failures  atomic.Int64
	errors    atomic.Int64
}

var _ Provider = (*Instrumented)(nil)

// Instrument wraps p. identifier is used in log lines.
func Instrument(identifier string, p Provider) *Instrumented {
	return &Instrumented{identifier: identifier, provider: p}
}

// Authenticate implements Provider
func (i *Instrumented) Authenticate(user, password string) error {
	attempt := uuid.NewString()
	start := time.Now()

	err := i.provider.Authenticate(user, password)
	elapsed := time.Since(start).Round(time.Microsecond)

	switch {
	case err == nil:
		i.successes.Add(1)
		logging.Access.LogAuth("AUTH", user, "success", "provider", i.identifier, "attempt", attempt, "duration", elapsed)
	case IsAuthenticationFailure(err):
		i.failures.Add(1)
		logging.Access.LogAuth("AUTH", user, "failure", "provider", i.identifier, "attempt", attempt, "duration", elapsed, "reason", err)
	default:
		// Not a rejection: the provider itself misbehaved
		i.errors.Add(1)
		logging.Access.LogAuth("AUTH", user, "error", "provider", i.identifier, "attempt", attempt, "duration", elapsed)
		logging.App.Error("Authentication provider error", "provider", i.identifier, "user", user, "attempt", attempt, "error", err)
	}
	return err
}

// Provider returns the wrapped provider
func (i *Instrumented) Provider() Provider { return i.provider }

// Identifier returns the name used in log lines
func (i *Instrumented) Identifier() string { return i.identifier }

// Successes returns the number of accepted attempts
func (i *Instrumented) Successes() int64 { return i.successes.Load() }

// Failures returns the number of rejected attempts
func (i *Instrumented) Failures() int64 { return i.failures.Load() }

// Errors returns the number of attempts that failed with something other than a rejection
func (i *Instrumented) Errors() int64 { return i.errors.Load() }
