package size

import (
	"encoding/json"
	"fmt"
)

// infoSnapshot is the explicit wire form of Info. The variant set is
// small and closed, so the codec enumerates it directly instead of any
// reflection-driven scheme. None of the current variants carry their own
// parameters beyond the tag; the Params slot exists so a future variant
// with parameters extends the envelope without a format break.
type infoSnapshot struct {
	State                       Label           `json:"state"`
	Params                      json.RawMessage `json:"params,omitempty"`
	DampingTime                 float64         `json:"damping_time"`
	TargetCharSpeed             float64         `json:"target_char_speed"`
	HasSuggestedTimeScale       bool            `json:"has_suggested_time_scale"`
	SuggestedTimeScale          float64         `json:"suggested_time_scale,omitempty"`
	DiscontinuousChangeOccurred bool            `json:"discontinuous_change_occurred"`
}

// MarshalInfo serializes an Info for checkpointing. The round trip through
// UnmarshalInfo is exact: every field and the variant tag survive.
func MarshalInfo(info *Info) ([]byte, error) {
	if info.State == nil {
		return nil, fmt.Errorf("marshal size-control info: nil state")
	}
	snap := infoSnapshot{
		State:                       info.State.Name(),
		DampingTime:                 info.DampingTime,
		TargetCharSpeed:             info.TargetCharSpeed,
		HasSuggestedTimeScale:       info.HasSuggestedTimeScale,
		SuggestedTimeScale:          info.SuggestedTimeScale,
		DiscontinuousChangeOccurred: info.DiscontinuousChangeOccurred,
	}
	return json.Marshal(snap)
}

// UnmarshalInfo restores an Info from a checkpoint snapshot.
func UnmarshalInfo(data []byte) (*Info, error) {
	var snap infoSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal size-control info: %w", err)
	}
	state, err := NewState(snap.State)
	if err != nil {
		return nil, fmt.Errorf("unmarshal size-control info: %w", err)
	}
	return &Info{
		State:                       state,
		DampingTime:                 snap.DampingTime,
		TargetCharSpeed:             snap.TargetCharSpeed,
		HasSuggestedTimeScale:       snap.HasSuggestedTimeScale,
		SuggestedTimeScale:          snap.SuggestedTimeScale,
		DiscontinuousChangeOccurred: snap.DiscontinuousChangeOccurred,
	}, nil
}
