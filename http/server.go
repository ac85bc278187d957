package http

import (
	"context"
	"net/http"
	"time"
)

var srv *http.Server

// Serve listens on the configured address until Close.
func Serve(opts ...ServeOption) error {
	e := NewEngine(opts...)
	srv = &http.Server{
		Addr:    e.Address,
		Handler: e,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	return nil
}
