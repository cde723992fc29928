package statuscheck

import (
	"context"
	"errors"
	"time"
)

// Pinger models the minimal capability we need from a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker aggregates health checks for the services a cut depends on.
type Checker struct {
	store  Pinger
	s3     Pinger
	verify bool
}

// Options configures the Checker. Nil pingers mean the service is not in use.
type Options struct {
	Store  Pinger
	S3     Pinger
	Verify bool
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses for the health endpoint.
type Summary struct {
	Store    Status `json:"store"`
	S3       Status `json:"s3"`
	Verifier Status `json:"verifier"`
}

// Healthy reports whether every subsystem is usable.
func (s Summary) Healthy() bool { return s.Store.OK && s.S3.OK && s.Verifier.OK }

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
	return &Checker{store: opts.Store, s3: opts.S3, verify: opts.Verify}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Store:    c.checkStore(ctx),
		S3:       c.checkS3(ctx),
		Verifier: c.checkVerifier(),
	}
}

func (c *Checker) checkStore(ctx context.Context) Status {
	if c.store == nil {
		return Status{OK: true, Message: "In memory"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.store.Ping(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
	if c.s3 == nil {
		return Status{OK: true, Message: "Not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.s3.Ping(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkVerifier() Status {
	if !c.verify {
		return Status{OK: true, Message: "Disabled"}
	}
	return Status{OK: true, Message: "MuPDF"}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
