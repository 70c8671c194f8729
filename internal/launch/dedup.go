package launch

import (
	"context"
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// AmbiguousRunningJobError reports more than one running streaming job with
// the computed app name. Submitting on top of that state is never safe; the
// duplicates need to be killed manually first.
type AmbiguousRunningJobError struct {
	AppName string
	Count   int
}

func (e *AmbiguousRunningJobError) Error() string {
	return fmt.Sprintf("found %d running apps named %q, expected at most one; kill the duplicates before resubmitting",
		e.Count, e.AppName)
}

// checkRunningStreamingApp lists the scheduler's running applications and
// reports whether a job with this run's app name already exists. One match
// means the launch is an idempotent no-op; more than one is fatal. Listing
// lines that fail to parse as JSON are skipped.
func (r *Runner) checkRunningStreamingApp(ctx context.Context) (bool, error) {
	r.log.Info("checking for a running streaming job", "app_name", r.opts.AppName)
	cmd := strings.Fields(r.opts.ListAppsCmd)
	if len(cmd) == 0 {
		return false, fmt.Errorf("streaming mode needs --list-apps")
	}
	out, err := r.exec.Output(ctx, cmd[0], cmd[1:]...)
	if err != nil {
		return false, fmt.Errorf("listing running apps: %w", err)
	}

	byName := map[string][]string{}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rec, err := oj.ParseString(line)
		if err != nil {
			r.log.Warn("skipping unparseable app listing line", "line", line, "error", err)
			continue
		}
		name, ok := jp.C("app_name").First(rec).(string)
		if !ok {
			r.log.Warn("skipping app listing line without app_name", "line", line)
			continue
		}
		name = strings.TrimSpace(name)
		byName[name] = append(byName[name], line)
	}

	matches := byName[r.opts.AppName]
	switch len(matches) {
	case 0:
		return false, nil
	case 1:
		r.log.Info("found a running app with this name, not submitting a new one",
			"app_name", r.opts.AppName, "app", matches[0])
		return true, nil
	default:
		return false, &AmbiguousRunningJobError{AppName: r.opts.AppName, Count: len(matches)}
	}
}
