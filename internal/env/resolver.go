package env

import (
	"log/slog"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"

	"github.com/chronon-ai/launcher/internal/repo"
)

// Resolver loads the teams and conf documents for a run and produces the
// environment delta to apply before final flag resolution.
type Resolver struct {
	// Fs is rooted at the configuration repository. Nil means no repo was
	// supplied: the teams-derived layers stay empty.
	Fs billy.Filesystem
	// RepoRoot is the absolute repo path, used only to compute the
	// CHRONON_CONF_PATH passed to the driver.
	RepoRoot string
	Log      *slog.Logger
}

// Request carries the pre-parse inputs that shape resolution.
type Request struct {
	ConfPath        string // repo-relative, may be empty
	Mode            string // may be empty
	ExplicitAppName string // --app-name, always wins when set

	// Pass-through values surfaced to the driver when provided.
	DriverJar   string
	OnlineJar   string
	OnlineClass string
}

// Resolve builds the five layers and merges them against the snapshot.
// Malformed conf paths and unparseable documents fail the run.
func (r *Resolver) Resolve(req Request, snap Snapshot) (*Delta, error) {
	layers := Layers{CliArgs: map[string]string{}}

	if r.Fs != nil {
		loader := repo.NewLoader(r.Fs)
		teams, err := loader.Teams()
		if err != nil {
			return nil, err
		}
		if teams != nil {
			layers.CommonEnv = teams.CommonEnv()
		}
		if req.ConfPath != "" && req.Mode != "" {
			cp, err := repo.ParseConfPath(req.ConfPath)
			if err != nil {
				return nil, err
			}
			r.log().Info("resolved conf identity",
				"context", cp.Context, "conf_type", cp.ConfType, "team", cp.Team)
			conf, err := loader.Conf(req.ConfPath)
			if err != nil {
				return nil, err
			}
			layers.ConfEnv = conf.ModeEnv(req.Mode)
			if teams != nil {
				layers.TeamEnv = teams.TeamEnv(cp.Team, cp.Context, req.Mode)
				layers.DefaultEnv = teams.DefaultEnv(cp.Context, req.Mode)
			}
			layers.CliArgs["APP_NAME"] = AppName(cp.ConfType, req.Mode, cp.Context, conf.Name())
			layers.CliArgs["CHRONON_CONF_PATH"] = filepath.Join(r.RepoRoot, req.ConfPath)
		}
	}

	if req.ExplicitAppName != "" {
		layers.CliArgs["APP_NAME"] = req.ExplicitAppName
	} else if req.Mode == "metadata-export" {
		layers.CliArgs["APP_NAME"] = MetadataExportAppName
	}

	if req.DriverJar != "" {
		layers.CliArgs["CHRONON_DRIVER_JAR"] = req.DriverJar
	}
	if req.OnlineJar != "" {
		layers.CliArgs["CHRONON_ONLINE_JAR"] = req.OnlineJar
	}
	if req.OnlineClass != "" {
		layers.CliArgs["CHRONON_ONLINE_CLASS"] = req.OnlineClass
	}

	delta := Merge(layers, snap)
	for _, k := range delta.Keys() {
		r.log().Info("setting env variable",
			"source", delta.Sources[k], "key", k, "value", delta.Values[k])
	}
	return delta, nil
}

func (r *Resolver) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}
