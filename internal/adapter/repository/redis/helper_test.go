package redis

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// newTestRedisClient spins up an in-process redis and a client bound
// to it. Both are torn down with the test.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return client, mr
}
