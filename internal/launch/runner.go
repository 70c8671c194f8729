// Package launch assembles and executes the downstream driver invocation for
// a validated (conf type, mode) pair.
package launch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/chronon-ai/launcher/internal/route"
)

// DriverClass is the downstream driver's entry point.
const DriverClass = "ai.chronon.spark.Driver"

// Options fully describe one launch after flag and environment resolution.
type Options struct {
	Conf     string
	ConfType route.ConfType
	Mode     route.Mode
	EndDate  string
	JarPath  string

	AppName     string
	OnlineJar   string
	OnlineClass string

	SparkSubmit          string
	SparkStreamingSubmit string
	OnlineJarFetch       string
	ListAppsCmd          string

	SubHelp   bool
	ExtraArgs string
}

// Runner launches exactly one downstream process and waits for it.
type Runner struct {
	opts Options
	exec Execer
	log  *slog.Logger
}

func NewRunner(opts Options, execer Execer) *Runner {
	return &Runner{opts: opts, exec: execer, log: slog.Default()}
}

// Run routes the launch, performs the streaming dedup check when relevant,
// and executes the resulting command, propagating its error (and exit code)
// to the caller.
func (r *Runner) Run(ctx context.Context) error {
	subcommand, err := route.Route(r.opts.ConfType, r.opts.Mode)
	if err != nil {
		return err
	}

	extraEnv, err := r.ensureOnlineJar(ctx)
	if err != nil {
		return err
	}

	baseArgs, err := route.Args(r.opts.Mode, route.ArgValues{
		ConfPath:    r.opts.Conf,
		EndDate:     r.opts.EndDate,
		OnlineJar:   r.opts.OnlineJar,
		OnlineClass: r.opts.OnlineClass,
	})
	if err != nil {
		return err
	}
	finalArgs := strings.TrimSpace(baseArgs + " " + r.opts.ExtraArgs)

	if r.opts.SubHelp || !r.opts.Mode.Spark() {
		args := []string{"-cp", r.opts.JarPath, DriverClass, subcommand}
		if r.opts.SubHelp {
			args = append(args, "--help")
		} else {
			args = append(args, strings.Fields(finalArgs)...)
		}
		return r.exec.Run(ctx, extraEnv, "java", args...)
	}

	submit := r.opts.SparkSubmit
	if r.opts.Mode == route.Streaming {
		submit = r.opts.SparkStreamingSubmit
		alreadyRunning, err := r.checkRunningStreamingApp(ctx)
		if err != nil {
			return err
		}
		if alreadyRunning {
			return nil
		}
	}

	args := append([]string{submit, "--class", DriverClass, r.opts.JarPath, subcommand},
		strings.Fields(finalArgs)...)
	return r.exec.Run(ctx, extraEnv, "bash", args...)
}

// ensureOnlineJar fetches the online jar through the configured script when
// an online mode has no usable jar on disk, exporting the resolved path to
// the child environment.
func (r *Runner) ensureOnlineJar(ctx context.Context) ([]string, error) {
	if !r.opts.Mode.Online() || r.opts.SubHelp {
		return nil, nil
	}
	if r.opts.OnlineJar != "" {
		if _, err := os.Stat(r.opts.OnlineJar); err == nil {
			return nil, nil
		}
	}
	r.log.Info("fetching online jar", "cmd", r.opts.OnlineJarFetch)
	fetch := strings.Fields(r.opts.OnlineJarFetch)
	if len(fetch) == 0 {
		return nil, fmt.Errorf("online mode %q needs --online-jar or --online-jar-fetch", r.opts.Mode)
	}
	out, err := r.exec.Output(ctx, fetch[0], fetch[1:]...)
	if err != nil {
		return nil, fmt.Errorf("fetching online jar: %w", err)
	}
	r.opts.OnlineJar = strings.TrimSpace(string(out))
	r.log.Info("downloaded online jar", "path", r.opts.OnlineJar)
	return []string{"CHRONON_ONLINE_JAR=" + r.opts.OnlineJar}, nil
}
