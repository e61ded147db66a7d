// Package sqlite implements the embedded Relational backend. The database is
// an in-process SQLite instance whose whole image is serialized and stored as
// one base64 blob in the host key-value store after every write.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// engineDrivers maps engine names to database/sql driver names. The wasm
// engine runs SQLite compiled to WebAssembly under wazero; modernc is the
// pure Go translation.
var engineDrivers = map[string]string{
	types.EngineModernc: "sqlite",
	types.EngineWASM:    "sqlite3",
}

// engineLoads memoizes one load per engine for the life of the process.
var engineLoads sync.Map // engine name -> func() (string, error)

// LoadEngine warms up the named engine and returns its driver name. The
// first call per engine opens a scratch connection and asks for the SQLite
// version; later calls return the memoized outcome.
func LoadEngine(engine string) (string, error) {
	if engine == "" {
		engine = types.EngineModernc
	}
	driver, ok := engineDrivers[engine]
	if !ok {
		return "", fmt.Errorf("engine %q: %w", engine, types.ErrEngineUnknown)
	}
	load, _ := engineLoads.LoadOrStore(engine, sync.OnceValues(func() (string, error) {
		return driver, probeDriver(driver)
	}))
	return load.(func() (string, error))()
}

func probeDriver(driver string) error {
	db, err := sql.Open(driver, ":memory:")
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", types.ErrEngineUnavailable, driver, err)
	}
	defer db.Close()

	var version string
	if err := db.QueryRowContext(context.Background(), "SELECT sqlite_version()").Scan(&version); err != nil {
		return fmt.Errorf("%w: probe %s: %v", types.ErrEngineUnavailable, driver, err)
	}
	return nil
}
