package configuration

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
)

var servers sync.Map

// StartServer starts handler on addr in the background. Only one server may run on an
// address at a time.
func StartServer(addr string, handler http.Handler) (*http.Server, error) {
	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}
	if _, loaded := servers.LoadOrStore(addr, server); loaded {
		return nil, fmt.Errorf("server already running at %s", addr)
	}

	go func() {
		log.Infof("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err)
			servers.Delete(addr)
		}
	}()
	return server, nil
}

func loadServer(addr string) (*http.Server, bool) {
	server, loaded := servers.Load(addr)
	if !loaded {
		return nil, false
	}
	return server.(*http.Server), loaded
}

func ShutdownAllServers(ctx context.Context) {
	servers.Range(func(key, _ interface{}) bool {
		server, loaded := servers.LoadAndDelete(key)
		if loaded {
			if err := server.(*http.Server).Shutdown(ctx); err != nil {
				log.Error(err)
			}
		}
		return true
	})
}
