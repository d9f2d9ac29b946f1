package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings holds everything the harness needs to know about its
// surroundings: where topologies and results live, which binaries to
// invoke and how to reach the virtual lab. Values are layered, lowest
// precedence first: built-in defaults, eval.yaml, environment
// variables, command-line flags.
type Settings struct {
	TopologyDir string `yaml:"topology_dir"`
	ResultsDir  string `yaml:"results_dir"`
	AnalysisBin string `yaml:"analysis_bin"`
	SynthBin    string `yaml:"synth_bin"`

	// Threads is passed through to the external binaries unmodified;
	// empty means the flag is omitted entirely.
	Threads string `yaml:"threads"`

	Verbose   bool   `yaml:"verbose"`
	ServeAddr string `yaml:"serve_addr"`

	// Virtual lab service for the live case study.
	LabCmd         []string      `yaml:"lab_cmd"`
	LabReadyURL    string        `yaml:"lab_ready_url"`
	LabStartupWait time.Duration `yaml:"lab_startup_wait"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		TopologyDir:    "topology_zoo",
		ResultsDir:     "eval_results",
		AnalysisBin:    "snowcap-analysis",
		SynthBin:       "snowcap-bench",
		LabCmd:         []string{"scripts/start_lab.sh"},
		LabReadyURL:    "http://localhost:8642/health",
		LabStartupWait: 60 * time.Second,
	}
}

// LoadSettings builds the Settings from defaults, an optional YAML file
// and the environment. A missing file at the default path is not an
// error; a missing file at an explicitly requested path is.
func LoadSettings(path string, explicit bool) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if explicit {
			return s, fmt.Errorf("settings file %s: %v", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("settings file %s: %v", path, err)
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using environment variables")
	}
	s.applyEnv()
	return s, nil
}

func (s *Settings) applyEnv() {
	setString(&s.TopologyDir, "EVAL_TOPOLOGY_DIR")
	setString(&s.ResultsDir, "EVAL_RESULTS_DIR")
	setString(&s.AnalysisBin, "EVAL_ANALYSIS_BIN")
	setString(&s.SynthBin, "EVAL_SYNTH_BIN")
	setString(&s.Threads, "EVAL_THREADS")
	setString(&s.ServeAddr, "EVAL_SERVE_ADDR")
	setString(&s.LabReadyURL, "EVAL_LAB_READY_URL")
	if v := os.Getenv("EVAL_VERBOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Verbose = b
		}
	}
	if v := os.Getenv("EVAL_LAB_STARTUP_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			s.LabStartupWait = d
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
