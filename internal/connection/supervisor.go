package connection

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Options defines supervision and retry behavior.
type Options struct {
	Name          string        // store name used in logs (ex: "postgres")
	PingTimeout   time.Duration // timeout for each ping attempt (ex: 2s)
	CheckInterval time.Duration // wait between pings while connected (ex: 10s)
	RetryInterval time.Duration // initial wait between retries (ex: 1s, grows exponentially)
	MaxWait       time.Duration // max wait between retries (ex: 30s)
	WarnThreshold int           // escalate to error logs after this many attempts
	HookTimeout   time.Duration // wait for the OnConnect hook per attempt, 0 means DefaultHookTimeout
}

// DefaultHookTimeout bounds each wait for the OnConnect hook.
const DefaultHookTimeout = 30 * time.Second

// DefaultOptions returns sensible supervision timings.
func DefaultOptions(name string) Options {
	return Options{
		Name:          name,
		PingTimeout:   2 * time.Second,
		CheckInterval: 10 * time.Second,
		RetryInterval: time.Second,
		MaxWait:       30 * time.Second,
		WarnThreshold: 5,
		HookTimeout:   DefaultHookTimeout,
	}
}

// Validate ensures all timings are usable.
func (o Options) Validate() error {
	if o.PingTimeout <= 0 {
		return fmt.Errorf("PingTimeout must be > 0, got %v", o.PingTimeout)
	}

	if o.CheckInterval <= 0 {
		return fmt.Errorf("CheckInterval must be > 0, got %v", o.CheckInterval)
	}

	if o.RetryInterval <= 0 {
		return fmt.Errorf("RetryInterval must be > 0, got %v", o.RetryInterval)
	}

	if o.MaxWait < o.RetryInterval {
		return fmt.Errorf("MaxWait must be >= RetryInterval, got %v", o.MaxWait)
	}

	if o.WarnThreshold < 0 {
		return fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold)
	}

	if o.HookTimeout < 0 {
		return fmt.Errorf("HookTimeout must be >= 0, got %v", o.HookTimeout)
	}

	return nil
}

// connectionLogger handles all supervision logging.
type connectionLogger struct {
	logger *zap.Logger
	name   string
}

func (cl *connectionLogger) logConnected(attempts int) {
	if attempts > 1 {
		cl.logger.Warn("connected to store after retry",
			zap.String("store", cl.name),
			zap.Int("attempts", attempts))

		return
	}

	cl.logger.Info("connected to store", zap.String("store", cl.name))
}

func (cl *connectionLogger) logLost(err error) {
	cl.logger.Error("store connection lost",
		zap.String("store", cl.name),
		zap.Error(err))
}

func (cl *connectionLogger) logRetry(attempt int, nextRetry time.Duration, warnThreshold int, err error) {
	if attempt <= warnThreshold {
		cl.logger.Warn("store connection failed, retrying",
			zap.String("store", cl.name),
			zap.Int("attempt", attempt),
			zap.Duration("next_retry_in", nextRetry),
			zap.Error(err))

		return
	}

	cl.logger.Error("store still unavailable",
		zap.String("store", cl.name),
		zap.Int("attempt", attempt),
		zap.Duration("next_retry_in", nextRetry),
		zap.Error(err))
}

// Supervisor keeps the Tracker in sync with the store by pinging it in the background.
// Request paths only read the tracker; reconnection happens here.
type Supervisor struct {
	pinger    Pinger
	tracker   *Tracker
	opts      Options
	log       *connectionLogger
	onConnect func(ctx context.Context) error
	hooked    bool
	pending   chan error
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSupervisor creates a supervisor for pinger that reports into tracker.
func NewSupervisor(pinger Pinger, tracker *Tracker, opts Options, logger *zap.Logger) (*Supervisor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if opts.HookTimeout == 0 {
		opts.HookTimeout = DefaultHookTimeout
	}

	return &Supervisor{
		pinger:  pinger,
		tracker: tracker,
		opts:    opts,
		log:     &connectionLogger{logger: logger, name: opts.Name},
		done:    make(chan struct{}),
	}, nil
}

// OnConnect registers a hook run once after the first successful ping, such as
// applying migrations. A failing hook counts as a failed attempt, and so does a hook
// still running after HookTimeout; the next attempt keeps waiting on the same run.
func (s *Supervisor) OnConnect(fn func(ctx context.Context) error) {
	s.onConnect = fn
}

// Start begins supervising in a background goroutine.
func (s *Supervisor) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.log.logger.Info("supervising store connection",
		zap.String("store", s.opts.Name),
		zap.Duration("check_interval", s.opts.CheckInterval))

	go s.run(ctx)
}

func (s *Supervisor) run(ctx context.Context) {
	defer close(s.done)

	attempt := 0
	wait := s.opts.RetryInterval

	for {
		if s.tracker.State() != StateConnected {
			s.tracker.Set(StateConnecting)
		}

		err := s.check(ctx)
		if ctx.Err() != nil {
			return
		}

		next := s.opts.CheckInterval

		if err == nil {
			if prev := s.tracker.Set(StateConnected); prev != StateConnected {
				s.log.logConnected(attempt + 1)
			}

			attempt = 0
			wait = s.opts.RetryInterval
		} else {
			attempt++

			if prev := s.tracker.Set(StateDisconnected); prev == StateConnected {
				s.log.logLost(err)
			}

			s.log.logRetry(attempt, wait, s.opts.WarnThreshold, err)

			next = wait
			// Exponential backoff with cap
			wait *= 2
			if wait > s.opts.MaxWait {
				wait = s.opts.MaxWait
			}
		}

		timer := time.NewTimer(next)
		select {
		case <-ctx.Done():
			timer.Stop()

			return
		case <-timer.C:
		}
	}
}

func (s *Supervisor) check(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, s.opts.PingTimeout)
	defer cancel()

	if err := s.pinger.Ping(pingCtx); err != nil {
		return err
	}

	if s.hooked || s.onConnect == nil {
		return nil
	}

	if err := s.awaitHook(ctx); err != nil {
		return fmt.Errorf("on connect: %w", err)
	}

	s.hooked = true

	return nil
}

// awaitHook starts the hook unless a previous run is still pending, then waits at most HookTimeout.
func (s *Supervisor) awaitHook(ctx context.Context) error {
	if s.pending == nil {
		pending := make(chan error, 1)
		s.pending = pending

		go func() {
			pending <- s.onConnect(ctx)
		}()
	}

	timer := time.NewTimer(s.opts.HookTimeout)
	defer timer.Stop()

	select {
	case err := <-s.pending:
		s.pending = nil

		return err
	case <-timer.C:
		return fmt.Errorf("still running after %v", s.opts.HookTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops supervision and marks the store disconnected.
func (s *Supervisor) Shutdown() error {
	s.tracker.Set(StateDisconnecting)

	if s.cancel != nil {
		s.cancel()
		<-s.done
	}

	s.tracker.Set(StateDisconnected)

	return nil
}

// Connect pings until the store answers or ctx expires, backing off between attempts.
func Connect(ctx context.Context, pinger Pinger, opts Options, logger *zap.Logger) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	log := &connectionLogger{logger: logger, name: opts.Name}
	attempt := 0
	wait := opts.RetryInterval

	for {
		attempt++

		pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := pinger.Ping(pingCtx)
		cancel()

		if err == nil {
			log.logConnected(attempt)

			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()

			return fmt.Errorf("%s unavailable after %d attempts: %w", opts.Name, attempt, err)
		case <-timer.C:
			log.logRetry(attempt, wait, opts.WarnThreshold, err)

			wait *= 2
			if wait > opts.MaxWait {
				wait = opts.MaxWait
			}
		}
	}
}
