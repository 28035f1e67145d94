package services

import (
	"github.com/ghuser/auctiondesk/pkg/app"
	"github.com/ghuser/auctiondesk/pkg/auth"
	"github.com/ghuser/auctiondesk/pkg/cache"
	appsync "github.com/ghuser/auctiondesk/services/auction/application/sync"
	"github.com/ghuser/auctiondesk/services/auction/domain/ledger"
	"github.com/ghuser/auctiondesk/services/auction/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for the auction context.
// It wires the ledger and sync layer with their infrastructure implementations.
type Services struct {
	Ledger    *ledger.Ledger
	Sync      *appsync.Service
	Operators *auth.Operators
}

// New wires all auction application services with infrastructure from the
// Application container.
func New(a *app.Application) *Services {
	store := postgres.New(a.Db, a.EventBus)
	led := ledger.New(store)
	snaps := cache.NewSnapshotStore(a.Redis)
	return &Services{
		Ledger:    led,
		Sync:      appsync.New(led, store, a.EventBus, snaps, a.Logger),
		Operators: auth.NewOperators(auth.NewPostgresOperatorStore(a.Db), a.Logger),
	}
}
