package common

import (
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bobmcallan/coinfolio/internal/common"
)

var redisServer = &shared{
	name: "Redis",
	req: testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		).WithDeadline(30 * time.Second),
	},
}

// RedisContainer is the shared Redis instance.
type RedisContainer struct {
	address string
}

// StartRedis starts Redis on first use.
func StartRedis(t *testing.T) *RedisContainer {
	return &RedisContainer{address: redisServer.start(t)}
}

// Config returns store settings; prefix isolates a test's keys.
func (c *RedisContainer) Config(prefix string) common.RedisConfig {
	return common.RedisConfig{Address: c.address, Prefix: prefix}
}

// CleanupRedis terminates the container if it was started.
func CleanupRedis() {
	redisServer.terminate()
}
