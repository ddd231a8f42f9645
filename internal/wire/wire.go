// Package wire provides dependency injection for the conductor application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"sync"

	execadapter "github.com/example/conductor/internal/adapters/exec"
	"github.com/example/conductor/internal/adapters/sqlite"
	"github.com/example/conductor/internal/app"
	"github.com/example/conductor/internal/db"
	"github.com/example/conductor/internal/ports/primary"
)

var (
	trackService      primary.TrackService
	graphService      primary.GraphService
	syncService       primary.SyncService
	gateService       primary.GateService
	constraintService primary.ConstraintService
	planService       primary.PlanService
	statusService     primary.StatusService
	once              sync.Once
)

// TrackService returns the singleton TrackService instance.
func TrackService() primary.TrackService {
	once.Do(initServices)
	return trackService
}

// GraphService returns the singleton GraphService instance.
func GraphService() primary.GraphService {
	once.Do(initServices)
	return graphService
}

// SyncService returns the singleton SyncService instance.
func SyncService() primary.SyncService {
	once.Do(initServices)
	return syncService
}

// GateService returns the singleton GateService instance.
func GateService() primary.GateService {
	once.Do(initServices)
	return gateService
}

// ConstraintService returns the singleton ConstraintService instance.
func ConstraintService() primary.ConstraintService {
	once.Do(initServices)
	return constraintService
}

// PlanService returns the singleton PlanService instance.
func PlanService() primary.PlanService {
	once.Do(initServices)
	return planService
}

// StatusService returns the singleton StatusService instance.
func StatusService() primary.StatusService {
	once.Do(initServices)
	return statusService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Repository adapters (secondary ports) with injected DB
	trackRepo := sqlite.NewTrackRepository(database)
	patchRepo := sqlite.NewPatchRepository(database)
	discoveryRepo := sqlite.NewDiscoveryRepository(database)
	constraintRepo := sqlite.NewConstraintRepository(database)
	runner := execadapter.NewShellRunner("")

	// Services (primary ports implementation)
	trackService = app.NewTrackService(trackRepo, patchRepo, constraintRepo)
	graphService = app.NewGraphService(trackRepo)
	syncService = app.NewSyncService(discoveryRepo, trackRepo, patchRepo, constraintRepo, graphService)
	gateService = app.NewGateService(trackRepo, patchRepo, discoveryRepo, runner)
	constraintService = app.NewConstraintService(constraintRepo, trackRepo, patchRepo)
	planService = app.NewPlanService(trackRepo, constraintRepo)
	statusService = app.NewStatusService(trackRepo)
}
