package main

import "testing"

func TestListenAddr(t *testing.T) {
	if got := listenAddr("8080"); got != ":8080" {
		t.Fatalf("expected :8080, got %s", got)
	}

	if got := listenAddr("0.0.0.0:9090"); got != "0.0.0.0:9090" {
		t.Fatalf("expected host:port unchanged, got %s", got)
	}
}
