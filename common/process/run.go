// Copyright 2023 StreamNative, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package process

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// RunProcess starts a long-running process and blocks until SIGINT or
// SIGTERM, then closes it and exits.
func RunProcess(startProcess func() (io.Closer, error)) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, startProcess); err != nil {
		slog.Error(
			"Failed to run the process",
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

// Run starts the process and keeps it alive until ctx is done.
func Run(ctx context.Context, startProcess func() (io.Closer, error)) error {
	process, err := startProcess()
	if err != nil {
		return errors.Wrap(err, "failed to start the process")
	}

	return WaitUntilDone(ctx, process)
}

// WaitUntilDone blocks until ctx is done and then closes all the closers,
// in order.
func WaitUntilDone(ctx context.Context, closers ...io.Closer) error {
	<-ctx.Done()

	slog.Info(
		"Received shutdown request, exiting",
		slog.Any("cause", context.Cause(ctx)),
	)

	var err error
	for _, closer := range closers {
		if closer == nil {
			continue
		}
		err = multierr.Append(err, closer.Close())
	}

	if err != nil {
		slog.Error(
			"Failed when shutting down",
			slog.Any("error", err),
		)
		return err
	}

	slog.Info("Shutdown Completed")
	return nil
}
