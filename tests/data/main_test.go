package data

import (
	"os"
	"testing"

	tcommon "github.com/bobmcallan/coinfolio/tests/common"
)

func TestMain(m *testing.M) {
	code := m.Run()
	tcommon.CleanupSurrealDB()
	tcommon.CleanupRedis()
	os.Exit(code)
}
