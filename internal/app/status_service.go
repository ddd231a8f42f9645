package app

import (
	"context"
	"sort"

	"github.com/example/conductor/internal/core/track"
	"github.com/example/conductor/internal/ports/primary"
	"github.com/example/conductor/internal/ports/secondary"
)

// StatusServiceImpl implements the StatusService interface.
type StatusServiceImpl struct {
	trackRepo secondary.TrackRepository
}

// NewStatusService creates a new StatusService with injected dependencies.
func NewStatusService(trackRepo secondary.TrackRepository) *StatusServiceImpl {
	return &StatusServiceImpl{trackRepo: trackRepo}
}

// Progress summarizes tracks per wave with complexity-weighted completion:
// an XL track moves the needle four times as far as an S track.
func (s *StatusServiceImpl) Progress(ctx context.Context) (*primary.ProgressReport, error) {
	records, err := s.trackRepo.List(ctx, secondary.TrackFilters{})
	if err != nil {
		return nil, err
	}

	report := &primary.ProgressReport{TotalTracks: len(records)}

	totalWeight := 0
	doneWeight := 0
	byWave := make(map[int][]*secondary.TrackRecord)
	for _, r := range records {
		weight := track.Complexity(r.Complexity).Weight()
		totalWeight += weight
		if track.Status(r.Status) == track.StatusCompleted {
			doneWeight += weight
		}
		byWave[r.Wave] = append(byWave[r.Wave], r)
	}
	if totalWeight > 0 {
		report.WeightedPercent = 100 * float64(doneWeight) / float64(totalWeight)
	}

	waves := make([]int, 0, len(byWave))
	for w := range byWave {
		waves = append(waves, w)
	}
	sort.Ints(waves)

	for _, w := range waves {
		progress := primary.WaveProgress{
			Wave:     w,
			ByStatus: make(map[string]int),
		}
		for _, r := range byWave[w] {
			progress.ByStatus[r.Status]++
			progress.Tracks = append(progress.Tracks, primary.TrackProgress{
				TrackID:    r.ID,
				Title:      r.Title,
				Status:     r.Status,
				Complexity: r.Complexity,
			})
		}
		report.Waves = append(report.Waves, progress)
	}

	return report, nil
}
