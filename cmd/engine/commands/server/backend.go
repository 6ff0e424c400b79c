package server

import (
	"fmt"
	"io"

	"github.com/gridsnake/engine/controller"
	"github.com/gridsnake/engine/controller/filestore"
	"github.com/gridsnake/engine/controller/redis"
	"github.com/gridsnake/engine/controller/sqlstore"
	log "github.com/sirupsen/logrus"
)

var (
	backendName = "inmem"
	backendArgs = ""
)

// openBackend connects the configured store backend and wraps it with the
// store instrumentation. The inmem backend only holds state inside one
// process, split api and worker processes need a shared backend like redis
// or sql.
func openBackend() (controller.Store, func(), error) {
	var store controller.Store
	var err error
	switch backendName {
	case "inmem":
		store = controller.InMemStore()
	case "file":
		store = filestore.NewFileStore(backendArgs)
	case "redis":
		store, err = redis.NewStore(backendArgs)
	case "sql":
		store, err = sqlstore.NewSQLStore(backendArgs)
	default:
		err = fmt.Errorf("invalid backend %q", backendName)
	}
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if c, ok := store.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.WithError(err).Error("unable to close store")
			}
		}
	}
	return controller.InstrumentStore(store), cleanup, nil
}
