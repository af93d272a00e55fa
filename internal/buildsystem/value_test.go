package buildsystem_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/forge/internal/buildsystem"
	"go.trai.ch/forge/internal/core/domain"
)

func someFileInfo(inode uint64) domain.FileInfo {
	return domain.FileInfo{
		Kind:        domain.FileKindFile,
		Device:      1,
		Inode:       inode,
		Size:        inode * 10,
		ModTimeSec:  1700000000,
		ModTimeNsec: 42,
	}
}

func TestBuildValueRoundTrip(t *testing.T) {
	values := []buildsystem.BuildValue{
		buildsystem.MakeInvalidValue(),
		buildsystem.MakeVirtualInputValue(),
		buildsystem.MakeMissingInputValue(),
		buildsystem.MakeFailedInputValue(),
		buildsystem.MakeFailedCommandValue(),
		buildsystem.MakeSkippedCommandValue(),
		buildsystem.MakeTargetValue(),
		buildsystem.MakeExistingInputValue(someFileInfo(7)),
		buildsystem.MakeSuccessfulCommandValue(
			[]domain.FileInfo{someFileInfo(1), someFileInfo(2), {}}, 0xdeadbeef),
	}

	for _, value := range values {
		decoded, err := buildsystem.BuildValueFromData(value.ToData())
		require.NoError(t, err)
		if value.OutputInfos == nil {
			// Decoding yields an empty slice for zero-output commands.
			assert.Equal(t, value.Kind, decoded.Kind)
			assert.Equal(t, value.Signature, decoded.Signature)
			assert.Empty(t, decoded.OutputInfos)
			continue
		}
		assert.Equal(t, value, decoded)
	}
}

func TestBuildValueTagIsFirstByte(t *testing.T) {
	data := buildsystem.MakeSuccessfulCommandValue(
		[]domain.FileInfo{someFileInfo(3)}, 99).ToData()
	assert.Equal(t, byte(buildsystem.ValueSuccessfulCommand), data[0])
	// Tag, output count, one file info, signature.
	assert.Len(t, data, 1+2+domain.FileInfoSize+8)
}

func TestBuildValueDecodeErrors(t *testing.T) {
	_, err := buildsystem.BuildValueFromData(nil)
	require.ErrorIs(t, err, domain.ErrTruncatedValue)

	_, err = buildsystem.BuildValueFromData([]byte{0xff})
	require.ErrorIs(t, err, domain.ErrUnknownValueKind)

	// Truncated SuccessfulCommand payload.
	full := buildsystem.MakeSuccessfulCommandValue([]domain.FileInfo{someFileInfo(3)}, 99).ToData()
	_, err = buildsystem.BuildValueFromData(full[:len(full)-4])
	require.ErrorIs(t, err, domain.ErrTruncatedValue)
}
