package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/example/conductor/internal/ports/secondary"
)

// Ensure the mocks implement their interfaces
var (
	_ secondary.TrackRepository      = (*mockTrackRepository)(nil)
	_ secondary.PatchRepository      = (*mockPatchRepository)(nil)
	_ secondary.DiscoveryRepository  = (*mockDiscoveryRepository)(nil)
	_ secondary.ConstraintRepository = (*mockConstraintRepository)(nil)
	_ secondary.TestRunner           = (*mockTestRunner)(nil)
)

// mockTrackRepository implements secondary.TrackRepository for testing.
type mockTrackRepository struct {
	tracks          map[string]*secondary.TrackRecord
	edges           []secondary.DependencyEdge
	overrides       []*secondary.OverrideRecord
	createErr       error
	listErr         error
	updateStatusErr error
	setWaveErr      error
}

func newMockTrackRepository() *mockTrackRepository {
	return &mockTrackRepository{tracks: make(map[string]*secondary.TrackRecord)}
}

// seed inserts a track and its dependency edges directly.
func (m *mockTrackRepository) seed(record *secondary.TrackRecord) {
	m.tracks[record.ID] = record
	for _, dep := range record.Dependencies {
		m.edges = append(m.edges, secondary.DependencyEdge{TrackID: record.ID, DependsOnID: dep})
	}
}

func (m *mockTrackRepository) Create(ctx context.Context, record *secondary.TrackRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.tracks[record.ID]; ok {
		return fmt.Errorf("track %s already exists", record.ID)
	}
	m.seed(record)
	return nil
}

func (m *mockTrackRepository) GetByID(ctx context.Context, id string) (*secondary.TrackRecord, error) {
	if record, ok := m.tracks[id]; ok {
		return record, nil
	}
	return nil, fmt.Errorf("track %s not found", id)
}

func (m *mockTrackRepository) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := m.tracks[id]
	return ok, nil
}

func (m *mockTrackRepository) Update(ctx context.Context, record *secondary.TrackRecord) error {
	if _, ok := m.tracks[record.ID]; !ok {
		return fmt.Errorf("track %s not found", record.ID)
	}
	m.tracks[record.ID] = record
	return nil
}

func (m *mockTrackRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	record, ok := m.tracks[id]
	if !ok {
		return fmt.Errorf("track %s not found", id)
	}
	record.Status = status
	if status == "completed" {
		record.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return nil
}

func (m *mockTrackRepository) SetWave(ctx context.Context, id string, wave int) error {
	if m.setWaveErr != nil {
		return m.setWaveErr
	}
	record, ok := m.tracks[id]
	if !ok {
		return fmt.Errorf("track %s not found", id)
	}
	record.Wave = wave
	return nil
}

func (m *mockTrackRepository) SetPhasesComplete(ctx context.Context, id string, complete bool) error {
	record, ok := m.tracks[id]
	if !ok {
		return fmt.Errorf("track %s not found", id)
	}
	record.PhasesComplete = complete
	return nil
}

func (m *mockTrackRepository) SetConstraintVersion(ctx context.Context, id string, version int) error {
	record, ok := m.tracks[id]
	if !ok {
		return fmt.Errorf("track %s not found", id)
	}
	record.ConstraintCurrent = version
	return nil
}

func (m *mockTrackRepository) List(ctx context.Context, filters secondary.TrackFilters) ([]*secondary.TrackRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*secondary.TrackRecord
	for _, r := range m.tracks {
		if filters.Status != "" && r.Status != filters.Status {
			continue
		}
		if filters.Wave != 0 && r.Wave != filters.Wave {
			continue
		}
		// Return copies, like the real repository: callers get a snapshot,
		// not live pointers into the store.
		copied := *r
		copied.Dependencies = append([]string(nil), r.Dependencies...)
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockTrackRepository) ListByWave(ctx context.Context, wave int) ([]*secondary.TrackRecord, error) {
	return m.List(ctx, secondary.TrackFilters{Wave: wave})
}

func (m *mockTrackRepository) AddDependency(ctx context.Context, trackID, dependsOnID string) error {
	record, ok := m.tracks[trackID]
	if !ok {
		return fmt.Errorf("track %s not found", trackID)
	}
	m.edges = append(m.edges, secondary.DependencyEdge{TrackID: trackID, DependsOnID: dependsOnID})
	record.Dependencies = append(record.Dependencies, dependsOnID)
	return nil
}

func (m *mockTrackRepository) ListAllDependencies(ctx context.Context) ([]secondary.DependencyEdge, error) {
	return m.edges, nil
}

func (m *mockTrackRepository) AppendOverride(ctx context.Context, override *secondary.OverrideRecord) error {
	m.overrides = append(m.overrides, override)
	return nil
}

func (m *mockTrackRepository) ListOverrides(ctx context.Context, trackID string) ([]*secondary.OverrideRecord, error) {
	var result []*secondary.OverrideRecord
	for _, o := range m.overrides {
		if o.TrackID == trackID {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *mockTrackRepository) GetNextID(ctx context.Context) (string, error) {
	return fmt.Sprintf("TRACK-%03d", len(m.tracks)+1), nil
}

// mockPatchRepository implements secondary.PatchRepository for testing.
type mockPatchRepository struct {
	patches   map[string]*secondary.PatchRecord
	createErr error
}

func newMockPatchRepository() *mockPatchRepository {
	return &mockPatchRepository{patches: make(map[string]*secondary.PatchRecord)}
}

func (m *mockPatchRepository) Create(ctx context.Context, patch *secondary.PatchRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	if patch.Status == "" {
		patch.Status = "open"
	}
	m.patches[patch.ID] = patch
	return nil
}

func (m *mockPatchRepository) GetByID(ctx context.Context, id string) (*secondary.PatchRecord, error) {
	if patch, ok := m.patches[id]; ok {
		return patch, nil
	}
	return nil, fmt.Errorf("patch %s not found", id)
}

func (m *mockPatchRepository) ListByTrack(ctx context.Context, trackID string) ([]*secondary.PatchRecord, error) {
	var result []*secondary.PatchRecord
	for _, p := range m.patches {
		if p.TrackID == trackID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockPatchRepository) ListOpenByTrack(ctx context.Context, trackID string) ([]*secondary.PatchRecord, error) {
	all, _ := m.ListByTrack(ctx, trackID)
	var result []*secondary.PatchRecord
	for _, p := range all {
		if p.Status != "completed" {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockPatchRepository) Complete(ctx context.Context, id string) error {
	patch, ok := m.patches[id]
	if !ok {
		return fmt.Errorf("patch %s not found", id)
	}
	patch.Status = "completed"
	patch.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	return nil
}

func (m *mockPatchRepository) GetNextID(ctx context.Context) (string, error) {
	return fmt.Sprintf("PATCH-%03d", len(m.patches)+1), nil
}

// mockDiscoveryRepository implements secondary.DiscoveryRepository for testing.
type mockDiscoveryRepository struct {
	discoveries  map[string]*secondary.DiscoveryRecord
	processedErr error
}

func newMockDiscoveryRepository() *mockDiscoveryRepository {
	return &mockDiscoveryRepository{discoveries: make(map[string]*secondary.DiscoveryRecord)}
}

func (m *mockDiscoveryRepository) Create(ctx context.Context, record *secondary.DiscoveryRecord) error {
	if record.Status == "" {
		record.Status = "pending"
	}
	m.discoveries[record.ID] = record
	return nil
}

func (m *mockDiscoveryRepository) GetByID(ctx context.Context, id string) (*secondary.DiscoveryRecord, error) {
	if record, ok := m.discoveries[id]; ok {
		return record, nil
	}
	return nil, fmt.Errorf("discovery %s not found", id)
}

func (m *mockDiscoveryRepository) ListPending(ctx context.Context) ([]*secondary.DiscoveryRecord, error) {
	var result []*secondary.DiscoveryRecord
	for _, d := range m.discoveries {
		if d.Status == "pending" {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *mockDiscoveryRepository) List(ctx context.Context, filters secondary.DiscoveryFilters) ([]*secondary.DiscoveryRecord, error) {
	var result []*secondary.DiscoveryRecord
	for _, d := range m.discoveries {
		if filters.Status != "" && d.Status != filters.Status {
			continue
		}
		if filters.SourceTrackID != "" && d.SourceTrackID != filters.SourceTrackID {
			continue
		}
		if filters.Urgency != "" && d.Urgency != filters.Urgency {
			continue
		}
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockDiscoveryRepository) ListPendingBlocking(ctx context.Context, trackID string) ([]*secondary.DiscoveryRecord, error) {
	var result []*secondary.DiscoveryRecord
	for _, d := range m.discoveries {
		if d.Status == "pending" && d.Urgency == "blocking" && d.SourceTrackID == trackID {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockDiscoveryRepository) MarkProcessed(ctx context.Context, id string, resolution *secondary.DiscoveryResolution) error {
	if m.processedErr != nil {
		return m.processedErr
	}
	record, ok := m.discoveries[id]
	if !ok {
		return fmt.Errorf("discovery %s not found", id)
	}
	if record.Status != "pending" {
		return errors.New("discovery is not pending")
	}
	record.Status = "processed"
	record.Classification = resolution.Classification
	record.Urgency = resolution.Urgency
	record.Action = resolution.Action
	record.DuplicateOf = resolution.DuplicateOf
	record.ProcessedAt = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// mockConstraintRepository implements secondary.ConstraintRepository for testing.
type mockConstraintRepository struct {
	entries []*secondary.ConstraintRecord
}

func newMockConstraintRepository() *mockConstraintRepository {
	return &mockConstraintRepository{}
}

func (m *mockConstraintRepository) Append(ctx context.Context, entry *secondary.ConstraintRecord) (int, error) {
	version := len(m.entries) + 1
	stored := *entry
	stored.Version = version
	m.entries = append(m.entries, &stored)
	return version, nil
}

func (m *mockConstraintRepository) Head(ctx context.Context) (int, error) {
	return len(m.entries), nil
}

func (m *mockConstraintRepository) List(ctx context.Context) ([]*secondary.ConstraintRecord, error) {
	return m.entries, nil
}

// mockTestRunner implements secondary.TestRunner for testing.
type mockTestRunner struct {
	result      *secondary.TestRunResult
	err         error
	lastCommand string
	runs        int
}

func newMockTestRunner() *mockTestRunner {
	return &mockTestRunner{result: &secondary.TestRunResult{ExitCode: 0}}
}

func (m *mockTestRunner) Run(ctx context.Context, command string, timeoutSec int) (*secondary.TestRunResult, error) {
	m.lastCommand = command
	m.runs++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}
