package repo

import (
	"errors"
	"os"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// TeamsFile is the fixed location of the teams document under the repo root.
const TeamsFile = "teams.json"

// defaultTeam is the reserved team entry carrying common_env and fallback
// per-context overrides.
const defaultTeam = "default"

// Loader reads documents from a repository filesystem. Production code roots
// a billy osfs at the repo path; tests use memfs.
type Loader struct {
	fs billy.Filesystem
}

func NewLoader(fs billy.Filesystem) *Loader {
	return &Loader{fs: fs}
}

// Teams loads teams.json from the repo root. A missing file is not an error
// and yields a nil document; a file that fails to parse fails the run.
func (l *Loader) Teams() (*TeamsDocument, error) {
	data, err := util.ReadFile(l.fs, TeamsFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &ConfigError{Path: TeamsFile, Message: "reading teams document", Err: err}
	}
	root, err := oj.Parse(data)
	if err != nil {
		return nil, &ConfigError{Path: TeamsFile, Message: "malformed teams document", Err: err}
	}
	return &TeamsDocument{root: root}, nil
}

// Conf loads one conf document at a repo-relative path. metaData.name is
// required; everything else is optional.
func (l *Loader) Conf(rel string) (*ConfDocument, error) {
	data, err := util.ReadFile(l.fs, rel)
	if err != nil {
		return nil, &ConfigError{Path: rel, Message: "reading conf document", Err: err}
	}
	root, err := oj.Parse(data)
	if err != nil {
		return nil, &ConfigError{Path: rel, Message: "malformed conf document", Err: err}
	}
	name, ok := jp.C("metaData").C("name").First(root).(string)
	if !ok || name == "" {
		return nil, &ConfigError{Path: rel, Message: "conf document is missing metaData.name"}
	}
	return &ConfDocument{root: root, name: name}, nil
}

// TeamsDocument maps team -> context -> mode -> env overrides, with the
// reserved "default" team additionally carrying a flat common_env.
type TeamsDocument struct {
	root any
}

// CommonEnv returns default.common_env, empty if absent.
func (d *TeamsDocument) CommonEnv() map[string]string {
	return stringMap(jp.C(defaultTeam).C("common_env").First(d.root))
}

// TeamEnv returns the overrides for a team, context and mode. A missing key
// at any level yields an empty map, never an error.
func (d *TeamsDocument) TeamEnv(team, context, mode string) map[string]string {
	return stringMap(jp.C(team).C(context).C(mode).First(d.root))
}

// DefaultEnv returns the reserved default team's overrides for a context and
// mode, with the same missing-key behavior as TeamEnv.
func (d *TeamsDocument) DefaultEnv(context, mode string) map[string]string {
	return d.TeamEnv(defaultTeam, context, mode)
}

// ConfDocument describes one pipeline artifact.
type ConfDocument struct {
	root any
	name string
}

// Name returns metaData.name, validated at load time.
func (d *ConfDocument) Name() string { return d.name }

// ModeEnv returns metaData.modeToEnvMap[mode], empty if absent.
func (d *ConfDocument) ModeEnv(mode string) map[string]string {
	return stringMap(jp.C("metaData").C("modeToEnvMap").C(mode).First(d.root))
}

// stringMap extracts the string-valued entries of a decoded JSON object.
// Null and non-string values are dropped rather than coerced.
func stringMap(v any) map[string]string {
	out := map[string]string{}
	obj, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, raw := range obj {
		if s, ok := raw.(string); ok {
			out[k] = s
		}
	}
	return out
}
