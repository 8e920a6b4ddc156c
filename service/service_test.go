package service

import (
	"context"
	"net"
	"net/http"
	"testing"

	"go.uber.org/zap"
)

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan struct{})
	job := Job{Name: "expire", Run: func(ctx context.Context) {
		close(ran)
		<-ctx.Done()
	}}

	_, wait := Start(ctx, "127.0.0.1", 0, http.NotFoundHandler(), zap.NewNop(), job)
	<-ran
	cancel()

	if err := wait(); err != nil {
		t.Errorf("wait: %v", err)
	}
}

func TestStartReportsListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	ctx, wait := Start(context.Background(), "127.0.0.1", port, http.NotFoundHandler(), zap.NewNop())
	<-ctx.Done()
	if err := wait(); err == nil {
		t.Error("expected the listen error")
	}
}
