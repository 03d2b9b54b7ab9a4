// Package common starts the containers shared by the integration tests.
package common

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

// shared is a container started at most once per test process.
type shared struct {
	name string
	req  testcontainers.ContainerRequest // a single exposed port

	once      sync.Once
	container testcontainers.Container
	endpoint  string // host:port
	err       error
}

func (s *shared) start(t *testing.T) string {
	t.Helper()

	s.once.Do(func() {
		ctx := context.Background()

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: s.req,
			Started:          true,
		})
		if err != nil {
			s.err = fmt.Errorf("start %s container: %w", s.name, err)
			return
		}

		endpoint, err := container.Endpoint(ctx, "")
		if err != nil {
			_ = container.Terminate(ctx)
			s.err = fmt.Errorf("get %s endpoint: %w", s.name, err)
			return
		}
		s.container, s.endpoint = container, endpoint
	})

	if s.err != nil {
		t.Fatalf("%s container failed: %v", s.name, s.err)
	}
	return s.endpoint
}

func (s *shared) terminate() {
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}
