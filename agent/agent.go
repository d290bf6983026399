// Package agent implements the service-presence agent: it registers a
// local service's reachable endpoints with DIR, keeps its service record
// and configuration fresh on a periodic cadence, and deregisters cleanly
// on shutdown. See SPEC_FULL.md for the full component design; this file
// wires the Lifecycle Supervisor (§4.6) and Heartbeat Loop (§4.5) around
// the Registrar, Merger and Pusher in the sibling files of this package.
//
// The actor shape — a timer channel selected alongside a cancellation
// channel, with a mutex serializing the loop body against shutdown — is
// the same one controller/heartbeat uses for its own periodic sender,
// generalized here to the agent's richer state machine and critical
// region (§5).
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xtreemfs/presenced/dirclient"
	"github.com/xtreemfs/presenced/discovery"
	"github.com/xtreemfs/presenced/metrics"
	"github.com/xtreemfs/presenced/waiter"
)

// Agent is one service-presence agent instance, embedded by a node
// process. The zero value is not usable; construct with New.
type Agent struct {
	name      string
	identity  string
	client    dirclient.Client
	generator Generator
	options   Options

	discoverer *discovery.Discoverer
	waiter     *waiter.Waiter

	// mu is the agent's critical region (§5): both the heartbeat loop's
	// body and Shutdown acquire it, so a shutdown cannot run concurrently
	// with an in-flight merge cycle.
	mu   sync.Mutex
	quit bool

	// rpcCtx is the context every Registrar/Merger/Pusher RPC is derived
	// from (§5's cancellation contract). rpcCancel is called by Shutdown
	// before it acquires mu, so a merge cycle blocked on an RPC fails
	// with a cancellation error and releases the region instead of
	// holding up shutdown.
	rpcCtx    context.Context
	rpcCancel context.CancelFunc

	advertisedHost string
	events         chan Event

	log *logrus.Entry
}

// New constructs an Agent. name identifies this instance in log output;
// uuid is its stable ServiceIdentity; client is the DIR transport;
// generator supplies the services to refresh each cycle.
func New(name string, client dirclient.Client, uuid string, generator Generator, opts Options) *Agent {
	rpcCtx, rpcCancel := context.WithCancel(context.Background())
	return &Agent{
		name:       name,
		identity:   uuid,
		client:     client,
		generator:  generator,
		options:    opts,
		discoverer: discovery.New(),
		waiter:     waiter.New(),
		rpcCtx:     rpcCtx,
		rpcCancel:  rpcCancel,
		events:     make(chan Event, eventBacklog),
		log:        logrus.WithFields(logrus.Fields{"agent": name, "uuid": uuid}),
	}
}

// AdvertisedHostName returns the host this agent advertised to DIR. Valid
// after Initialize returns successfully.
func (a *Agent) AdvertisedHostName() string {
	return a.advertisedHost
}

// WaitForDIR blocks until a TCP connection to dirAddress succeeds or
// maxWait elapses, implementing the DIR Liveness Waiter (§4.7). Embedders
// call this before Initialize.
func (a *Agent) WaitForDIR(ctx context.Context, dirAddress string, maxWait time.Duration) error {
	return a.waiter.WaitForDIR(ctx, dirAddress, maxWait)
}

// Initialize runs the one-shot startup sequence: Endpoint Discoverer →
// Address Mapping Registrar → initial Service Record Merger cycle →
// Configuration Pusher. RPC failures in the first three stages abort
// startup; a Configuration Pusher failure is logged and swallowed (§7).
//
// ctx is currently unused: discovery takes no context, and every RPC
// issued from here on derives from the agent's own cancellable context
// (§5), so a Shutdown call cancels them regardless of what ctx the
// embedder passed in here.
func (a *Agent) Initialize(ctx context.Context) error {
	result, err := a.discoverer.Discover(a.identity, a.options.Discovery)
	if err != nil {
		return fmt.Errorf("presenced: discover endpoints: %w", err)
	}
	a.advertisedHost = result.AdvertisedHost

	if err := a.registerMappings(a.rpcCtx, result.Endpoints); err != nil {
		return fmt.Errorf("presenced: register address mappings: %w", err)
	}

	if err := a.refreshOnce(a.rpcCtx); err != nil {
		return fmt.Errorf("presenced: initial service record refresh: %w", err)
	}

	if err := a.pushConfiguration(a.rpcCtx); err != nil {
		a.log.WithError(err).Warn("configuration push failed")
		metrics.ConfigPushFailures.WithLabelValues(a.identity).Inc()
	}

	return nil
}

// refreshOnce runs the Service Record Merger (§4.3) once for every
// Registration the generator currently returns. It returns the first
// error encountered, if any. Per §4.5 step 1, a cancellation observed on
// ctx breaks the loop immediately rather than attempting the remaining
// registrations.
func (a *Agent) refreshOnce(ctx context.Context) error {
	metrics.RefreshTotal.WithLabelValues(a.identity).Inc()

	var firstErr error
	for _, reg := range a.generator() {
		if err := ctx.Err(); err != nil {
			firstErr = err
			break
		}
		if err := a.mergeOne(ctx, reg); err != nil {
			a.log.WithError(err).WithField("service_uuid", reg.UUID).Error("service record refresh failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		metrics.RefreshFailures.WithLabelValues(a.identity).Inc()
	}
	return firstErr
}

// Run enters the Heartbeat Loop (§4.5) and blocks until shutdown. It
// publishes started on entry and stopped (or crashed, on an unexpected
// panic from the generator callback) on exit.
func (a *Agent) Run(ctx context.Context) {
	a.publish(Event{Kind: EventStarted})

	crashed := false
	defer func() {
		if r := recover(); r != nil {
			crashed = true
			err := fmt.Errorf("presenced: panic in heartbeat loop: %v", r)
			a.log.WithError(err).Error("agent crashed")
			a.publish(Event{Kind: EventCrashed, Err: err})
		}
		if !crashed {
			a.publish(Event{Kind: EventStopped})
		}
	}()

	for {
		a.mu.Lock()
		if a.quit {
			a.mu.Unlock()
			return
		}

		err := func() error {
			defer a.mu.Unlock()
			return a.refreshOnce(a.rpcCtx)
		}()

		// quit is set by Shutdown alone, under the lock above, so
		// Shutdown's deregister always runs exactly once regardless of
		// how this loop iteration ends; a cancelled rpcCtx here just
		// means Shutdown is already in progress and this goroutine has
		// nothing left to do.
		if err != nil && errors.Is(err, context.Canceled) {
			return
		}
		if !a.sleepInterruptible(ctx) {
			return
		}
	}
}

// sleepInterruptible waits up to the configured update interval, outside
// the critical region so Shutdown stays responsive (§5). It returns false
// if the wait was cut short by cancellation, either of the agent's own
// rpcCtx (cancelled by Shutdown) or of ctx (the embedder's Run context).
func (a *Agent) sleepInterruptible(ctx context.Context) bool {
	timer := time.NewTimer(a.options.updateInterval())
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-a.rpcCtx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

// Shutdown implements the Lifecycle Supervisor's shutdown sequence
// (§4.6): it is idempotent, and serializes with the loop body via the
// same critical region so it only issues deregister after any in-flight
// merge has completed (invariant 7).
//
// rpcCancel runs first, before the region is acquired: per §5's
// cancellation contract, a shutdown signal must cause any blocking RPC to
// fail with a cancellation error, and the merge cycle that is presently
// inside the region won't release it until its RPC call returns. Calling
// rpcCancel only after acquiring the lock would deadlock against exactly
// the hung-RPC case this contract exists to cover; cancelling first lets
// the in-flight merge unblock, release the region, and let Shutdown
// proceed to deregister.
func (a *Agent) Shutdown(ctx context.Context) {
	a.rpcCancel()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.quit {
		return
	}

	metrics.DeregisterAttempts.WithLabelValues(a.identity).Inc()
	if err := a.client.ServiceDeregister(ctx, a.identity); err != nil {
		a.log.WithError(err).Warn("deregister failed")
	}

	a.quit = true
}
