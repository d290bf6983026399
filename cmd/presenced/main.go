// Command presenced is a reference embedder of the presence agent: it
// wires config.Load() into an agent.Agent talking to DIR over
// dirclient/grpcclient, serves /metrics and /ready, and drives the full
// initialize → run → shutdown lifecycle against process signals, in the
// same config → components → signal-handling shape as
// cmd/controlplane/main.go.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/xtreemfs/presenced/admin"
	"github.com/xtreemfs/presenced/agent"
	"github.com/xtreemfs/presenced/config"
	"github.com/xtreemfs/presenced/dirclient"
	"github.com/xtreemfs/presenced/dirclient/grpcclient"
)

func main() {
	log := logrus.WithField("component", "presenced")

	cfg := config.Load()
	log.WithFields(logrus.Fields{
		"dir_address": cfg.DIRAddress,
		"port":        cfg.Port,
	}).Info("config loaded")

	uuid := os.Getenv("PRESENCED_UUID")
	if uuid == "" {
		log.Fatal("PRESENCED_UUID must be set")
	}

	// TLS credential construction is the embedder's responsibility (§1
	// scope); this reference main wires the plaintext transport.
	client, err := grpcclient.Dial(cfg.DIRAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.WithError(err).Fatal("failed to dial DIR")
	}
	defer client.Close()

	var opts agent.Options
	if err := cfg.ApplyDefaults(&opts); err != nil {
		log.WithError(err).Fatal("failed to apply configuration defaults")
	}

	a := agent.New("presenced", client, uuid, localServiceData(uuid), opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("received shutdown signal")
		cancel()
	}()

	ready := &atomic.Bool{}
	adminServer := admin.NewServer(":9090", ready)
	go func() {
		log.WithField("addr", adminServer.Addr).Info("admin server listening")
		if err := adminServer.ListenAndServe(); err != nil {
			log.WithError(err).Warn("admin server stopped")
		}
	}()

	waitCtx, waitCancel := context.WithTimeout(ctx, time.Duration(cfg.WaitForDIRSeconds)*time.Second)
	err = a.WaitForDIR(waitCtx, cfg.DIRAddress, time.Duration(cfg.WaitForDIRSeconds)*time.Second)
	waitCancel()
	if err != nil {
		log.WithError(err).Fatal("DIR never became reachable")
	}

	if err := a.Initialize(ctx); err != nil {
		log.WithError(err).Fatal("agent initialization failed")
	}
	ready.Store(true)
	log.WithField("advertised_host", a.AdvertisedHostName()).Info("registered with DIR")

	var shutdownComplete sync.WaitGroup
	shutdownComplete.Add(1)
	go func() {
		defer shutdownComplete.Done()
		<-ctx.Done()
		ready.Store(false)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		a.Shutdown(shutdownCtx)
	}()

	a.Run(ctx)

	// Run can also return on its own (e.g. a crashed event from a
	// panicking generator) without a signal ever arriving; cancel here
	// too so the shutdown goroutine above is guaranteed to run instead
	// of waiting on a ctx that nothing will ever cancel.
	cancel()

	// Run can return as soon as ctx is done, well before the goroutine
	// above finishes issuing the deregister RPC; wait for it so the
	// process does not exit out from under a still-in-flight shutdown
	// (otherwise the agent's core "cleanly deregisters on shutdown"
	// guarantee would depend on how quickly the OS tears the process
	// down).
	shutdownComplete.Wait()
	log.Info("presenced stopped")
}

// localServiceData returns a placeholder agent.Generator that refreshes a
// single OSD-like service record carrying this process's own uuid. A real
// embedder supplies its own generator reflecting live node state (free
// capacity, load, volume/MRC associations, etc) instead of this stub.
func localServiceData(uuid string) agent.Generator {
	return func() []agent.Registration {
		data := dirclient.NewOrderedData()
		return []agent.Registration{{UUID: uuid, Type: dirclient.ServiceTypeOSD, Name: uuid, Data: data}}
	}
}
