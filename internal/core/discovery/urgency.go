package discovery

import "github.com/example/conductor/internal/core/track"

// TrackState is the slice of track state urgency validation needs.
type TrackState struct {
	Status track.Status
	Wave   int
}

// Escalation records an urgency bump applied during synchronization.
type Escalation struct {
	From   Urgency
	To     Urgency
	Reason string
}

// ValidateUrgency checks whether a discovery's declared urgency understates
// its real impact and returns the escalation to apply, or nil if the declared
// urgency stands.
//
// Rules:
//   - The discovery touches an in_progress track -> blocking.
//   - A backlog discovery touches a track scheduled in the immediately next
//     wave (the lowest wave holding a not-yet-started track) -> next_wave.
func ValidateUrgency(record Record, states map[string]TrackState) *Escalation {
	if record.Urgency == UrgencyBlocking {
		return nil // already highest
	}

	for _, tid := range record.AffectedTracks {
		state, ok := states[tid]
		if !ok {
			continue
		}
		if state.Status == track.StatusInProgress {
			return &Escalation{
				From:   record.Urgency,
				To:     UrgencyBlocking,
				Reason: "blocks in_progress track " + tid,
			}
		}
	}

	if record.Urgency != UrgencyBacklog {
		return nil
	}

	next := nextWave(states)
	if next == 0 {
		return nil
	}
	for _, tid := range record.AffectedTracks {
		state, ok := states[tid]
		if !ok {
			continue
		}
		if state.Status == track.StatusNew && state.Wave == next {
			return &Escalation{
				From:   record.Urgency,
				To:     UrgencyNextWave,
				Reason: "needed by track " + tid + " in next wave",
			}
		}
	}

	return nil
}

// nextWave returns the lowest wave number that still holds a new track, or 0
// when every track has started. Unscheduled tracks (wave 0) don't count.
func nextWave(states map[string]TrackState) int {
	next := 0
	for _, state := range states {
		if state.Status != track.StatusNew || state.Wave == 0 {
			continue
		}
		if next == 0 || state.Wave < next {
			next = state.Wave
		}
	}
	return next
}
