package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartxaudio/rtpipeline/internal/testfw"
)

const testScenarioYAML = `
periodFrames: 64
sampleRate: 48000
pins:
  - name: in
    direction: input
    channels: 1
  - name: out
    direction: output
    channels: 1
modules:
  - typeName: volume
    instanceName: vol
    config:
      channels: 1
      sampleRate: 48000.0
      periodFrames: 64
links:
  - from: in
    to: vol.audio
    kind: immediate
  - from: vol.audio
    to: out
    kind: immediate
`

func writeScenario(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestBuildTopologyResolvesPinsAndLinks(t *testing.T) {
	path := writeScenario(t, testScenarioYAML)
	cfg, err := testfw.LoadScenario(path)
	require.NoError(t, err)

	topo, err := buildTopology(cfg, "", "zone-test")
	require.NoError(t, err)
	require.Contains(t, topo.pins, "in")
	require.Contains(t, topo.pins, "out")
	require.ElementsMatch(t, []string{"equalizer", "volume", "mixer"}, topo.engine.RegisteredTypes())
}

func TestBuildTopologyRunsPeriodsThroughRingPorts(t *testing.T) {
	path := writeScenario(t, testScenarioYAML)
	cfg, err := testfw.LoadScenario(path)
	require.NoError(t, err)

	topo, err := buildTopology(cfg, "", "zone-test")
	require.NoError(t, err)

	source := testfw.NewRingPort(1, 4096)
	sink := testfw.NewRingPort(1, 4096)
	_, err = source.PushFrames([][]float32{make([]float32, 64)})
	require.NoError(t, err)

	topo.zone.BindInput(topo.pins["in"], source)
	topo.zone.BindOutput(topo.pins["out"], sink)

	require.NoError(t, topo.zone.RunPeriods(context.Background(), 1))
}

func TestBuildTopologyRejectsUnresolvedLink(t *testing.T) {
	path := writeScenario(t, `
periodFrames: 64
sampleRate: 48000
pins:
  - name: in
    direction: input
    channels: 1
modules: []
links:
  - from: in
    to: nosuch.audio
    kind: immediate
`)
	cfg, err := testfw.LoadScenario(path)
	require.NoError(t, err)

	_, err = buildTopology(cfg, "", "zone-test")
	require.Error(t, err)
}
