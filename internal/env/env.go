// Package env computes the runtime environment for a launch: five named
// layers merged under a fixed precedence, applied against an immutable
// snapshot of the process environment. The resolver never mutates the
// process; it returns a Delta the caller applies at one point.
package env

import (
	"fmt"
	"sort"
	"strings"
)

// AppNameTemplate mirrors the derived application name
// chronon_{confType}_{mode}_{context}_{name}.
const AppNameTemplate = "chronon_%s_%s_%s_%s"

// MetadataExportAppName is the fixed app name for metadata-export runs.
const MetadataExportAppName = "chronon_metadata_export"

// AppName derives the default application name for a run.
func AppName(confType, mode, context, name string) string {
	return fmt.Sprintf(AppNameTemplate, confType, mode, context, name)
}

// Snapshot is an immutable capture of the process environment taken before
// resolution. Variables present here always win over every layer.
type Snapshot map[string]string

// CaptureSnapshot parses the KEY=VALUE pairs of os.Environ output.
func CaptureSnapshot(environ []string) Snapshot {
	snap := make(Snapshot, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			snap[k] = v
		}
	}
	return snap
}

// Layers are the five named scopes feeding the merge. Precedence from lowest
// to highest: ConfEnv, TeamEnv, DefaultEnv, CommonEnv, CliArgs.
type Layers struct {
	ConfEnv    map[string]string
	TeamEnv    map[string]string
	DefaultEnv map[string]string
	CommonEnv  map[string]string
	CliArgs    map[string]string
}

// Delta is the set of variables resolution decided to introduce, each tagged
// with the layer it came from.
type Delta struct {
	Values  map[string]string
	Sources map[string]string
}

// Keys returns the delta's variable names sorted, for deterministic
// application and logging.
func (d *Delta) Keys() []string {
	keys := make([]string, 0, len(d.Values))
	for k := range d.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply writes the delta through the given setter. This is the single point
// where resolution results reach the process environment.
func (d *Delta) Apply(set func(key, value string) error) error {
	for _, k := range d.Keys() {
		if err := set(k, d.Values[k]); err != nil {
			return fmt.Errorf("setting %s: %w", k, err)
		}
	}
	return nil
}

// Merge folds the layers into a Delta. Later layers overwrite earlier ones,
// and a key the snapshot already defines is never included: variables set by
// the invoking shell beat every layer.
func Merge(l Layers, snap Snapshot) *Delta {
	ordered := []struct {
		name   string
		values map[string]string
	}{
		{"conf_env", l.ConfEnv},
		{"team_env", l.TeamEnv},
		{"default_env", l.DefaultEnv},
		{"common_env", l.CommonEnv},
		{"cli_args", l.CliArgs},
	}
	delta := &Delta{
		Values:  map[string]string{},
		Sources: map[string]string{},
	}
	for _, layer := range ordered {
		for k, v := range layer.values {
			if _, exists := snap[k]; exists {
				continue
			}
			delta.Values[k] = v
			delta.Sources[k] = layer.name
		}
	}
	return delta
}
