package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_LaterLayersWin(t *testing.T) {
	delta := Merge(Layers{
		ConfEnv:   map[string]string{"X": "conf"},
		CommonEnv: map[string]string{"X": "common"},
	}, Snapshot{})

	assert.Equal(t, "common", delta.Values["X"])
	assert.Equal(t, "common_env", delta.Sources["X"])
}

func TestMerge_CliArgsBeatEveryLayer(t *testing.T) {
	delta := Merge(Layers{
		ConfEnv:    map[string]string{"X": "conf"},
		TeamEnv:    map[string]string{"X": "team"},
		DefaultEnv: map[string]string{"X": "default"},
		CommonEnv:  map[string]string{"X": "common"},
		CliArgs:    map[string]string{"X": "cli"},
	}, Snapshot{})

	assert.Equal(t, "cli", delta.Values["X"])
	assert.Equal(t, "cli_args", delta.Sources["X"])
}

func TestMerge_SnapshotAlwaysWins(t *testing.T) {
	delta := Merge(Layers{
		ConfEnv: map[string]string{"X": "conf"},
		CliArgs: map[string]string{"X": "cli", "Y": "set"},
	}, Snapshot{"X": "shell"})

	_, ok := delta.Values["X"]
	assert.False(t, ok, "pre-existing env vars must never be overwritten")
	assert.Equal(t, "set", delta.Values["Y"])
}

func TestMerge_LayersKeepDistinctKeys(t *testing.T) {
	delta := Merge(Layers{
		ConfEnv: map[string]string{"EXECUTOR_MEMORY": "9G"},
		TeamEnv: map[string]string{"EXECUTOR_CORES": "4"},
	}, Snapshot{})

	assert.Equal(t, "9G", delta.Values["EXECUTOR_MEMORY"])
	assert.Equal(t, "4", delta.Values["EXECUTOR_CORES"])
}

func TestDelta_ApplyIsSortedAndComplete(t *testing.T) {
	delta := Merge(Layers{
		CliArgs: map[string]string{"B": "2", "A": "1", "C": "3"},
	}, Snapshot{})

	var order []string
	applied := map[string]string{}
	err := delta.Apply(func(k, v string) error {
		order = append(order, k)
		applied[k] = v
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, order)
	assert.Equal(t, map[string]string{"A": "1", "B": "2", "C": "3"}, applied)
}

func TestCaptureSnapshot(t *testing.T) {
	snap := CaptureSnapshot([]string{"A=1", "B=x=y", "MALFORMED"})
	assert.Equal(t, "1", snap["A"])
	assert.Equal(t, "x=y", snap["B"])
	_, ok := snap["MALFORMED"]
	assert.False(t, ok)
}

func TestAppName(t *testing.T) {
	got := AppName("joins", "backfill", "production", "sample_team.sample_join.v1")
	assert.Equal(t, "chronon_joins_backfill_production_sample_team.sample_join.v1", got)
}
