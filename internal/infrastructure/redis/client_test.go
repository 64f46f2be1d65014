package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewClient(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := NewClient(context.Background(), "redis://"+s.Addr())
	if err != nil {
		t.Fatalf("expected client, got error: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set failed: %v", err)
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := NewClient(context.Background(), "://bad-url"); err == nil {
		t.Fatal("expected error for malformed URL")
	}
}

func TestNewClientUnreachableServer(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	if _, err := NewClient(context.Background(), "redis://"+addr); err == nil {
		t.Fatal("expected ping error when the server is down")
	}
}
