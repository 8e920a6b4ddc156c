// Package service runs the HTTP server and the background jobs of the
// donation service until the context is cancelled.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Job is a background task running until ctx is done.
type Job struct {
	Name string
	Run  func(ctx context.Context)
}

// Start serves handler at host:port and runs jobs. The returned context is
// cancelled once the server stopped, either because ctx was cancelled or
// because serving failed; Wait blocks until the jobs returned as well.
func Start(ctx context.Context, host string, port int, handler http.Handler, logger *zap.Logger, jobs ...Job) (context.Context, func() error) {
	ctx, cancel := context.WithCancel(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			logger.Info("starting job", zap.String("job", job.Name))
			job.Run(ctx)
			logger.Info("job stopped", zap.String("job", job.Name))
		}(job)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", srv.Addr))
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
		cancel()
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http server shutdown", zap.Error(err))
		}
	}()

	wait := func() error {
		<-ctx.Done()
		wg.Wait()
		return <-serveErr
	}
	return ctx, wait
}
