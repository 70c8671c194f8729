// Package settings loads the optional launcher.hcl file at the repo root,
// providing defaults below flags and environment variables.
package settings

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// FileName is the fixed name of the settings file under the repo root.
const FileName = "launcher.hcl"

// Settings are file-level defaults for the launcher's external collaborators.
// Every field is optional; the zero value means "use the built-in default".
type Settings struct {
	SparkSubmitPath          string `hcl:"spark_submit_path,optional"`
	SparkStreamingSubmitPath string `hcl:"spark_streaming_submit_path,optional"`
	OnlineJarFetchPath       string `hcl:"online_jar_fetch_path,optional"`
	ListAppsCmd              string `hcl:"list_apps_cmd,optional"`
	MavenMirrorPrefix        string `hcl:"maven_mirror_prefix,optional"`
	Version                  string `hcl:"version,optional"`
	SparkVersion             string `hcl:"spark_version,optional"`
}

// Load reads a settings file. A missing file yields zero settings; a file
// that exists but fails to decode fails the run.
func Load(path string) (Settings, error) {
	var s Settings
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}
	if err := hclsimple.DecodeFile(path, nil, &s); err != nil {
		return Settings{}, fmt.Errorf("loading settings %s: %w", path, err)
	}
	return s, nil
}
