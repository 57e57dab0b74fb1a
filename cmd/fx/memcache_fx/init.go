package memcache_fx

import (
	"go.uber.org/fx"

	"examprep/internal/exam"
	mem "examprep/pkg/memcache"
)

var Module = fx.Provide(provideSessionStore)

func provideSessionStore() *mem.Store[*exam.Session] {
	return mem.NewStore[*exam.Session]()
}
