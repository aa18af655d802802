package chart

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ficonsole/pkg/telemetry"
)

func TestLabelsFor(t *testing.T) {
	for _, m := range telemetry.Metrics {
		l := LabelsFor(m)
		assert.NotEmpty(t, l.Title, m.String())
		assert.NotEmpty(t, l.YLabel, m.String())
	}
	assert.Equal(t, "Altitude (ft above MSL)", LabelsFor(telemetry.Altitude).YLabel)
	assert.Equal(t, "Yaw Rate", LabelsFor(telemetry.TrueHeading).Title)
}

func TestWritePNG(t *testing.T) {
	buf := telemetry.NewBuffer(10)
	for i := 0; i < 5; i++ {
		buf.Append(telemetry.Sample{Time: float64(i) * 0.25, AltitudeFt: 3000 + float64(i)*10})
	}

	var out bytes.Buffer
	require.NoError(t, WritePNG(&out, buf.Snapshot(), telemetry.Altitude, 0, 0))

	img, err := png.Decode(&out)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
}

func TestBuild_EmptyBuffer(t *testing.T) {
	buf := telemetry.NewBuffer(10)
	p, err := Build(buf.Snapshot(), telemetry.Roll)
	require.NoError(t, err)
	assert.Equal(t, "Roll Rate", p.Title.Text)

	var out bytes.Buffer
	assert.NoError(t, WritePNG(&out, buf.Snapshot(), telemetry.Roll, 0, 0))
}
