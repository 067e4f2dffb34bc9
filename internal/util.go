package internal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Version is set at build time via ldflags.
var Version = "unknown"

// SignalAwareContext returns a context that gets cancelled once one of the given signals
// is received. By default, syscall.SIGINT, syscall.SIGTERM and syscall.SIGHUP are handled.
func SignalAwareContext(ctx context.Context, sig ...os.Signal) context.Context {
	c := make(chan os.Signal, 1)
	if len(sig) == 0 {
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	} else {
		signal.Notify(c, sig...)
	}

	signalCtx, cancel := context.WithCancel(ctx)

	go func() {
		select {
		case <-ctx.Done():
			// normal shutdown, quit go routine
		case <-c:
			cancel()
		}

		signal.Stop(c)
		close(c)
	}()

	return signalCtx
}

// AssertNoError panics if the given error is not nil.
func AssertNoError(err error) {
	if err != nil {
		panic(err)
	}
}

// UniqueStringSlice removes duplicates from the given slice while keeping the original order.
func UniqueStringSlice(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}
