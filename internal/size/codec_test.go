package size

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTripPreservesEveryField(t *testing.T) {
	info := &Info{
		State:                       AhSpeed{},
		DampingTime:                 0.125,
		TargetCharSpeed:             0.202,
		HasSuggestedTimeScale:       true,
		SuggestedTimeScale:          0.5,
		DiscontinuousChangeOccurred: true,
	}

	data, err := MarshalInfo(info)
	require.NoError(t, err)

	restored, err := UnmarshalInfo(data)
	require.NoError(t, err)

	assert.Equal(t, LabelAhSpeed, restored.State.Name())
	assert.Equal(t, info.DampingTime, restored.DampingTime)
	assert.Equal(t, info.TargetCharSpeed, restored.TargetCharSpeed)
	assert.Equal(t, info.HasSuggestedTimeScale, restored.HasSuggestedTimeScale)
	assert.Equal(t, info.SuggestedTimeScale, restored.SuggestedTimeScale)
	assert.Equal(t, info.DiscontinuousChangeOccurred, restored.DiscontinuousChangeOccurred)
}

func TestCodec_RoundTripAllVariants(t *testing.T) {
	for _, label := range []Label{
		LabelInitial,
		LabelDeltaR,
		LabelAhSpeed,
		LabelDeltaRDriftInward,
		LabelDeltaRDriftOutward,
	} {
		st, err := NewState(label)
		require.NoError(t, err)
		info := &Info{State: st, DampingTime: 1.0}

		data, err := MarshalInfo(info)
		require.NoError(t, err)
		restored, err := UnmarshalInfo(data)
		require.NoError(t, err)

		assert.Equal(t, label, restored.State.Name())
	}
}

func TestCodec_RejectsNilState(t *testing.T) {
	_, err := MarshalInfo(&Info{DampingTime: 1.0})
	assert.Error(t, err)
}

func TestCodec_RejectsUnknownTag(t *testing.T) {
	_, err := UnmarshalInfo([]byte(`{"state":"Sideways","damping_time":1}`))
	assert.Error(t, err)
}

func TestCodec_RejectsMalformedSnapshot(t *testing.T) {
	_, err := UnmarshalInfo([]byte(`{not json`))
	assert.Error(t, err)
}
