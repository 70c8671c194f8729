// Package route holds the static tables that map a configuration type and a
// run mode to the downstream driver subcommand and its required arguments.
package route

import (
	"fmt"
	"sort"
	"strings"
)

// ConfType identifies the category of a configuration artifact. The set is
// closed: a conf path always names one of these three as its second-to-last
// parent directory.
type ConfType string

const (
	GroupBys       ConfType = "group_bys"
	Joins          ConfType = "joins"
	StagingQueries ConfType = "staging_queries"
)

// Mode identifies a run flavor of the launcher.
type Mode string

const (
	Backfill           Mode = "backfill"
	Upload             Mode = "upload"
	Streaming          Mode = "streaming"
	LocalStreaming     Mode = "local-streaming"
	Fetch              Mode = "fetch"
	Analyze            Mode = "analyze"
	MetadataUpload     Mode = "metadata-upload"
	MetadataExport     Mode = "metadata-export"
	ConsistencyMetrics Mode = "consistency-metrics-compute"
	StatsSummary       Mode = "stats-summary"
	LogFlattener       Mode = "log-flattener"
	LabelJoin          Mode = "label-join"
)

// AllModes lists every legal run mode, used for CLI validation and help text.
var AllModes = []Mode{
	Backfill, Upload, Streaming, LocalStreaming, Fetch, Analyze,
	MetadataUpload, MetadataExport, ConsistencyMetrics, StatsSummary,
	LogFlattener, LabelJoin,
}

// ParseMode validates a raw mode string.
func ParseMode(s string) (Mode, error) {
	for _, m := range AllModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q, choose from %s", s, joinModes(AllModes))
}

// onlineModes require an online jar and class to reach the serving stores.
var onlineModes = map[Mode]bool{
	Streaming:      true,
	MetadataUpload: true,
	Fetch:          true,
	LocalStreaming: true,
}

// sparkModes are submitted through the spark-submit script; everything else
// invokes the driver jar directly.
var sparkModes = map[Mode]bool{
	Backfill:           true,
	Upload:             true,
	Streaming:          true,
	ConsistencyMetrics: true,
	Analyze:            true,
	StatsSummary:       true,
	LogFlattener:       true,
	MetadataExport:     true,
	LabelJoin:          true,
}

// Online reports whether the mode needs the online jar/class pair.
func (m Mode) Online() bool { return onlineModes[m] }

// Spark reports whether the mode is submitted to the cluster via spark-submit.
func (m Mode) Spark() bool { return sparkModes[m] }

// routes is the closed (conf type, mode) -> subcommand table. A pair absent
// here is illegal and must be rejected before any process is launched.
var routes = map[ConfType]map[Mode]string{
	GroupBys: {
		Upload:         "group-by-upload",
		Backfill:       "group-by-backfill",
		Streaming:      "group-by-streaming",
		LocalStreaming: "group-by-streaming",
		Fetch:          "fetch",
		Analyze:        "analyze",
		MetadataExport: "metadata-export",
	},
	Joins: {
		Backfill:           "join",
		MetadataUpload:     "metadata-upload",
		Fetch:              "fetch",
		ConsistencyMetrics: "consistency-metrics-compute",
		StatsSummary:       "stats-summary",
		Analyze:            "analyze",
		LogFlattener:       "log-flattener",
		MetadataExport:     "metadata-export",
		LabelJoin:          "label-join",
	},
	StagingQueries: {
		Backfill:       "staging-query-backfill",
		MetadataExport: "metadata-export",
	},
}

// RoutingError reports an illegal (conf type, mode) combination.
type RoutingError struct {
	ConfType ConfType
	Mode     Mode
	Valid    []Mode // legal modes for ConfType, empty if the type is unknown
}

func (e *RoutingError) Error() string {
	if len(e.Valid) == 0 {
		return fmt.Sprintf("unknown conf type %q", e.ConfType)
	}
	return fmt.Sprintf("invalid mode %q for conf type %q, choose from %s",
		e.Mode, e.ConfType, joinModes(e.Valid))
}

// Route resolves the driver subcommand for a conf type and mode. The lookup
// is two-level: unknown conf types and modes not legal for the type both fail
// with a RoutingError.
func Route(ct ConfType, m Mode) (string, error) {
	modes, ok := routes[ct]
	if !ok {
		return "", &RoutingError{ConfType: ct, Mode: m}
	}
	sub, ok := modes[m]
	if !ok {
		return "", &RoutingError{ConfType: ct, Mode: m, Valid: ValidModes(ct)}
	}
	return sub, nil
}

// ValidModes returns the legal modes for a conf type, sorted for stable error
// messages. Unknown conf types yield nil.
func ValidModes(ct ConfType) []Mode {
	modes, ok := routes[ct]
	if !ok {
		return nil
	}
	out := make([]Mode, 0, len(modes))
	for m := range modes {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func joinModes(modes []Mode) string {
	parts := make([]string, len(modes))
	for i, m := range modes {
		parts[i] = string(m)
	}
	return strings.Join(parts, ", ")
}
