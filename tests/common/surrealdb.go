package common

import (
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bobmcallan/coinfolio/internal/common"
)

var surreal = &shared{
	name: "SurrealDB",
	req: testcontainers.ContainerRequest{
		Image:        "surrealdb/surrealdb:v3.0.0",
		ExposedPorts: []string{"8000/tcp"},
		Cmd:          []string{"start", "--user", "root", "--pass", "root"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("8000/tcp"),
			wait.ForLog("Started web server"),
		).WithDeadline(60 * time.Second),
	},
}

// SurrealDBContainer is the shared SurrealDB instance.
type SurrealDBContainer struct {
	endpoint string
}

// StartSurrealDB starts SurrealDB on first use.
func StartSurrealDB(t *testing.T) *SurrealDBContainer {
	return &SurrealDBContainer{endpoint: surreal.start(t)}
}

// Address returns the WebSocket RPC address.
func (c *SurrealDBContainer) Address() string {
	return "ws://" + c.endpoint + "/rpc"
}

// Config returns store settings for database on this container.
func (c *SurrealDBContainer) Config(database string) common.SurrealDBConfig {
	return common.SurrealDBConfig{
		Address:   c.Address(),
		Namespace: "coinfolio_test",
		Database:  database,
		Username:  "root",
		Password:  "root",
	}
}

// CleanupSurrealDB terminates the container if it was started.
func CleanupSurrealDB() {
	surreal.terminate()
}
