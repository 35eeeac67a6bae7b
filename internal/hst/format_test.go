package hst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hst-data/internal/model"
)

func TestDescribeRecordSizes(t *testing.T) {
	for _, tc := range []struct {
		v    Version
		size int
	}{
		{VersionLegacy, 44},
		{VersionCurrent, 60},
	} {
		l, ok := Describe(tc.v)
		require.True(t, ok, "version %d", tc.v)
		assert.Equal(t, tc.size, l.RecordSize)
		assert.Equal(t, tc.v, l.Version)
		assert.Equal(t, FieldTime, l.Fields[0].Name)
		assert.Equal(t, KindDate, l.Fields[0].Kind)
	}
}

func TestLayoutFieldsFitRecord(t *testing.T) {
	for _, v := range Versions() {
		l, _ := Describe(v)
		end := 0
		for _, f := range l.Fields {
			if f.Kind == KindConstant || f.Kind == KindSkip {
				continue
			}
			assert.GreaterOrEqual(t, f.Offset, end, "%d/%s overlaps previous field", v, f.Name)
			end = f.Offset + f.Size
		}
		assert.Equal(t, l.RecordSize, end, "version %d", v)
	}
}

func TestLegacyHasConstantExtras(t *testing.T) {
	l, _ := Describe(VersionLegacy)
	var constants []string
	for _, f := range l.Fields {
		if f.Kind == KindConstant {
			constants = append(constants, f.Name)
			assert.Zero(t, f.Const)
		}
	}
	assert.Equal(t, []string{FieldSpread, FieldRealVolume}, constants)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported(VersionLegacy))
	assert.True(t, IsSupported(VersionCurrent))
	for _, v := range []Version{0, 1, -400, 399, 402, 500, 4010, 1 << 30} {
		assert.False(t, IsSupported(v), "version %d", v)
		_, ok := Describe(v)
		assert.False(t, ok)
	}
}

func TestDescribeReturnsCopy(t *testing.T) {
	l, _ := Describe(VersionCurrent)
	l.Fields[0].Name = "mutated"
	again, _ := Describe(VersionCurrent)
	assert.Equal(t, FieldTime, again.Fields[0].Name)
}

func TestLayoutTimeScale(t *testing.T) {
	legacy, _ := Describe(VersionLegacy)
	current, _ := Describe(VersionCurrent)
	assert.Equal(t, int64(1), legacy.TimeScale)
	assert.Equal(t, int64(1000), current.TimeScale)

	assert.Equal(t, t0, legacy.Millis(t0))
	assert.Equal(t, t0, current.Millis(t0/1000))
	assert.Equal(t, t0/1000, current.FromMillis(t0+999))
	assert.Equal(t, t0, legacy.FromMillis(t0))

	b := current.Normalize(model.Bar{Timestamp: t0 / 1000, Close: 1.5})
	assert.Equal(t, model.Bar{Timestamp: t0, Close: 1.5}, b)

	// zero layout behaves as ms
	assert.Equal(t, int64(7), Layout{}.Millis(7))
}
