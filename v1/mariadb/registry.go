package mariadb

import (
	"sync"
)

// clients is the process-wide registry of host clients. An entry is written once,
// on the first Instance call for a host identity, and never replaced.
var clients = struct {
	sync.Mutex
	byIdentity map[string]*MariaDB
}{
	byIdentity: make(map[string]*MariaDB),
}

// Instance returns the process-wide client for the host identified by
// cfg.Identity(), creating it on first use. The pool itself is opened lazily by
// the first Conn, Query or Exec call.
//
// Concurrent first calls for the same identity all receive the same client.
// Options are only applied when the client is created; later calls return the
// existing client unchanged.
func Instance(cfg Config, opts ...Option) *MariaDB {
	identity := cfg.Identity()

	clients.Lock()
	defer clients.Unlock()

	if client, ok := clients.byIdentity[identity]; ok {
		return client
	}
	client := newClient(cfg, opts...)
	clients.byIdentity[identity] = client
	return client
}

// Lookup returns the registered client for a host identity.
func Lookup(identity string) (*MariaDB, bool) {
	clients.Lock()
	defer clients.Unlock()

	client, ok := clients.byIdentity[identity]
	return client, ok
}
