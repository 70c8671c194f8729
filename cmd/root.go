package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/chronon-ai/launcher/internal/artifact"
	"github.com/chronon-ai/launcher/internal/env"
	"github.com/chronon-ai/launcher/internal/launch"
	"github.com/chronon-ai/launcher/internal/repo"
	"github.com/chronon-ai/launcher/internal/route"
	"github.com/chronon-ai/launcher/internal/settings"
)

var (
	confFlag                 string
	modeFlag                 string
	dsFlag                   string
	appNameFlag              string
	repoFlag                 string
	onlineJarFlag            string
	onlineClassFlag          string
	versionFlag              string
	sparkVersionFlag         string
	sparkSubmitFlag          string
	sparkStreamingSubmitFlag string
	onlineJarFetchFlag       string
	subHelpFlag              bool
	confTypeFlag             string
	onlineArgsFlag           string
	chrononJarFlag           string
	releaseTagFlag           string
	listAppsFlag             string
)

func init() {
	f := rootCmd.Flags()
	f.StringVar(&confFlag, "conf", "", "Conf param - required for every mode except fetch")
	f.StringVar(&modeFlag, "mode", string(route.Backfill), "Run mode")
	f.StringVar(&dsFlag, "ds", "", "End date, defaults to today")
	f.StringVar(&appNameFlag, "app-name", "", "App name, defaults to "+fmt.Sprintf(env.AppNameTemplate, "{conf_type}", "{mode}", "{context}", "{name}"))
	f.StringVar(&repoFlag, "repo", "", "Path to the chronon repo")
	f.StringVar(&onlineJarFlag, "online-jar", "", "Jar containing the online KvStore & Deserializer impl, used for streaming and metadata-upload modes")
	f.StringVar(&onlineClassFlag, "online-class", "", "Class name of the online impl, used for streaming and metadata-upload modes")
	f.StringVar(&versionFlag, "version", "", "Chronon version to use")
	f.StringVar(&sparkVersionFlag, "spark-version", "", "Spark version to use for downloading the jar")
	f.StringVar(&sparkSubmitFlag, "spark-submit-path", "", "Path to spark-submit")
	f.StringVar(&sparkStreamingSubmitFlag, "spark-streaming-submit-path", "", "Path to spark-submit for streaming")
	f.StringVar(&onlineJarFetchFlag, "online-jar-fetch", "", "Path to a script that can pull the online jar, run when no file exists at --online-jar")
	f.BoolVar(&subHelpFlag, "sub-help", false, "Print the help of the underlying driver subcommand and exit")
	f.StringVar(&confTypeFlag, "conf-type", string(route.GroupBys), "Related to sub-help - no need to set unless you are not working with a conf")
	f.StringVar(&onlineArgsFlag, "online-args", "", "Basic arguments supplied to all online modes")
	f.StringVar(&chrononJarFlag, "chronon-jar", "", "Path to the chronon OS jar")
	f.StringVar(&releaseTagFlag, "release-tag", "", "Use the latest jar for a particular tag")
	f.StringVar(&listAppsFlag, "list-apps", "", "Command that lists running jobs on the scheduler")
}

var rootCmd = &cobra.Command{
	Use:   "chronon-run [-- driver args...]",
	Short: "Submit chronon jobs to the cluster driver",
	Long: "chronon-run resolves layered environment overrides, fetches the " +
		"versioned driver jar, and submits the selected job to the cluster. " +
		"Arguments after -- are passed through to the driver.",
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runLauncher,
}

func runLauncher(cmd *cobra.Command, extra []string) error {
	snap := env.CaptureSnapshot(os.Environ())
	repoPath := resolveRepoPath(snap)

	sets, err := settings.Load(filepath.Join(repoPath, settings.FileName))
	if err != nil {
		return err
	}

	mode, err := route.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	resolver := &env.Resolver{RepoRoot: repoPath}
	if repoPath != "" {
		resolver.Fs = osfs.New(repoPath)
	}
	delta, err := resolver.Resolve(env.Request{
		ConfPath:        confFlag,
		Mode:            string(mode),
		ExplicitAppName: appNameFlag,
		DriverJar:       first(chrononJarFlag, snap["CHRONON_DRIVER_JAR"]),
		OnlineJar:       first(onlineJarFlag, snap["CHRONON_ONLINE_JAR"]),
		OnlineClass:     first(onlineClassFlag, snap["CHRONON_ONLINE_CLASS"]),
	}, snap)
	if err != nil {
		return err
	}
	// The single point where resolution results reach the process env, so
	// that flag defaults below observe the overrides.
	if err := delta.Apply(os.Setenv); err != nil {
		return err
	}

	confType := route.ConfType(confTypeFlag)
	if confFlag != "" {
		cp, err := repo.ParseConfPath(confFlag)
		if err != nil {
			return err
		}
		confType = route.ConfType(cp.ConfType)
	}
	// Validate routing before anything is downloaded or launched.
	if _, err := route.Route(confType, mode); err != nil {
		return err
	}

	chrononJar := first(chrononJarFlag, os.Getenv("CHRONON_DRIVER_JAR"))
	jarPath := chrononJar
	if jarPath == "" {
		jarPath, err = downloadDriverJar(cmd, mode, sets)
		if err != nil {
			return err
		}
	}

	extraArgs := strings.Join(extra, " ")
	if mode.Online() {
		extraArgs = strings.TrimSpace(extraArgs + " " + first(onlineArgsFlag, os.Getenv("CHRONON_ONLINE_ARGS")))
	}

	runner := launch.NewRunner(launch.Options{
		Conf:        confFlag,
		ConfType:    confType,
		Mode:        mode,
		EndDate:     first(dsFlag, time.Now().Format("2006-01-02")),
		JarPath:     jarPath,
		AppName:     first(appNameFlag, os.Getenv("APP_NAME")),
		OnlineJar:   first(onlineJarFlag, os.Getenv("CHRONON_ONLINE_JAR")),
		OnlineClass: first(onlineClassFlag, os.Getenv("CHRONON_ONLINE_CLASS")),
		SparkSubmit: first(sparkSubmitFlag, sets.SparkSubmitPath,
			filepath.Join(repoPath, "scripts", "spark_submit.sh")),
		SparkStreamingSubmit: first(sparkStreamingSubmitFlag, sets.SparkStreamingSubmitPath,
			filepath.Join(repoPath, "scripts", "spark_streaming.sh")),
		OnlineJarFetch: first(onlineJarFetchFlag, sets.OnlineJarFetchPath,
			filepath.Join(repoPath, "scripts", "fetch_online_jar.py")),
		ListAppsCmd: first(listAppsFlag, sets.ListAppsCmd,
			"python3 "+filepath.Join(repoPath, "scripts", "yarn_list.py")),
		SubHelp:   subHelpFlag,
		ExtraArgs: extraArgs,
	}, launch.SystemExecer{})
	return runner.Run(cmd.Context())
}

func downloadDriverJar(cmd *cobra.Command, mode route.Mode, sets settings.Settings) (string, error) {
	sparkVersion := first(sparkVersionFlag, os.Getenv("SPARK_VERSION"), sets.SparkVersion, "2.4.0")
	scalaVersion, err := artifact.ScalaVersion(sparkVersion)
	if err != nil {
		return "", err
	}
	jarType := artifact.JarTypeUber
	if mode == route.LocalStreaming {
		jarType = artifact.JarTypeEmbedded
	}
	prefix := first(os.Getenv("CHRONON_MAVEN_MIRROR_PREFIX"), sets.MavenMirrorPrefix, artifact.DefaultURLPrefix)
	client := artifact.NewClient(prefix, jarType, scalaVersion)
	slog.Info("downloading driver jar", "base_url", client.BaseURL)
	version := first(versionFlag, os.Getenv("VERSION"), sets.Version)
	return client.FetchJar(cmd.Context(), version, jarType, scalaVersion, releaseTagFlag)
}

// resolveRepoPath picks the configuration repo: the flag, the shell
// environment, the enclosing git worktree, then the working directory.
func resolveRepoPath(snap env.Snapshot) string {
	if repoFlag != "" {
		return repoFlag
	}
	if p := snap["CHRONON_REPO_PATH"]; p != "" {
		return p
	}
	if root := gitWorktreeRoot(); root != "" {
		return root
	}
	return "."
}

// first returns its first non-empty argument.
func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Execute runs the root command, propagating the downstream driver's exit
// code when it fails.
func Execute() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
