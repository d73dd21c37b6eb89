package sdk

import (
	"context"
	"os"
	"time"

	"github.com/celerix-dev/certify-one/internal/engine"
	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
)

// New initializes the store based on the environment.
// It returns the interface, so the caller doesn't care if it's local or remote.
// A remote store must also answer PING before it is used.
func New(dataDir string, opts ...Option) (pkgengine.TrainingStore, error) {
	o := buildOptions(opts)

	// 1. Check if a remote store is defined in the environment
	if remoteAddr := os.Getenv("CERTIFY_STORE_ADDR"); remoteAddr != "" {
		client, err := Connect(remoteAddr, opts...)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = client.Ping(ctx)
			cancel()
			if err == nil {
				return client, nil
			}
			client.Close()
		}
		o.log.Warnw("Remote store unreachable, using embedded store", "addr", remoteAddr, "error", err)
	}

	// 2. Fallback to embedded mode.
	// This uses the same engine the daemon uses, but inside the app process.
	slots, err := engine.NewFileSlots(dataDir)
	if err != nil {
		return nil, err
	}
	store, err := engine.NewStore(context.Background(), slots)
	if err != nil {
		return nil, err
	}
	return store, nil
}
