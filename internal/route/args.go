package route

import "fmt"

// ArgValues carries the substitutions for a mode's argument template.
type ArgValues struct {
	ConfPath    string
	EndDate     string
	OnlineJar   string
	OnlineClass string
}

func (v ArgValues) offline() string {
	return fmt.Sprintf("--conf-path=%s --end-date=%s", v.ConfPath, v.EndDate)
}

func (v ArgValues) online() string {
	return fmt.Sprintf("--online-jar=%s --online-class=%s", v.OnlineJar, v.OnlineClass)
}

// Args renders the driver arguments a mode requires. Offline modes need the
// conf path and end date, online modes the online jar/class pair, online
// write modes both the conf path and the online pair. local-streaming runs
// the driver with the debug flag appended. The switch is exhaustive over the
// mode set; an unknown mode is an error, never an empty string.
func Args(m Mode, v ArgValues) (string, error) {
	switch m {
	case Backfill, Upload, StatsSummary, Analyze, ConsistencyMetrics,
		LogFlattener, MetadataExport, LabelJoin:
		return v.offline(), nil
	case Fetch:
		return v.online(), nil
	case Streaming, MetadataUpload:
		return fmt.Sprintf("--conf-path=%s %s", v.ConfPath, v.online()), nil
	case LocalStreaming:
		return fmt.Sprintf("--conf-path=%s %s -d", v.ConfPath, v.online()), nil
	default:
		return "", fmt.Errorf("no argument template for mode %q", m)
	}
}
