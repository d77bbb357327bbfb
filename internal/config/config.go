package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Theme            string   `mapstructure:"theme"`
	CodeStyle        string   `mapstructure:"code_style"`
	LogFile          string   `mapstructure:"log_file"`
	Debug            bool     `mapstructure:"debug"`
	LiveReload       bool     `mapstructure:"live_reload"`
	SingleSlide      bool     `mapstructure:"single_slide"`
	Safe             bool     `mapstructure:"safe"`
	NoExtWarn        bool     `mapstructure:"no_ext_warn"`
	IgnoreExtFailure bool     `mapstructure:"ignore_ext_failure"`
	Extensions       []string `mapstructure:"extensions"`
	Threads          bool     `mapstructure:"threads"`
	PollIntervalMs   int      `mapstructure:"poll_interval_ms"`
	Shell            string   `mapstructure:"shell"`
	Output           string   `mapstructure:"output"`
	StartSlide       int      `mapstructure:"start_slide"`
}

// Output modes
const (
	OutputTUI       = "tui"
	OutputDump      = "dump"
	OutputStyles    = "styles"
	OutputBenchmark = "benchmark"
)

// C is the global config instance
var C Config

// Init initializes configuration with viper
func Init() error {
	viper.SetDefault("theme", "dark")
	viper.SetDefault("code_style", "") // empty keeps the theme's style
	viper.SetDefault("log_file", filepath.Join(os.TempDir(), "mdslides.log"))
	viper.SetDefault("debug", false)
	viper.SetDefault("live_reload", false)
	viper.SetDefault("single_slide", false)
	viper.SetDefault("safe", false)        // ignore extensions requested by the source file
	viper.SetDefault("no_ext_warn", false) // skip the extension warning prompt
	viper.SetDefault("ignore_ext_failure", false)
	viper.SetDefault("extensions", []string{}) // preloaded, always trusted
	viper.SetDefault("threads", true)          // render slides in the background
	viper.SetDefault("poll_interval_ms", 100)
	viper.SetDefault("shell", getDefaultShell())
	viper.SetDefault("output", OutputTUI)
	viper.SetDefault("start_slide", 1)

	viper.SetConfigName("mdslides")
	viper.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "mdslides"))
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("MDSLIDES")
	viper.AutomaticEnv()

	// Try to read config, but don't fail if not found or malformed
	_ = viper.ReadInConfig()

	return viper.Unmarshal(&C)
}

// GetTheme returns the selected theme name
func GetTheme() string {
	return viper.GetString("theme")
}

// GetCodeStyle returns the syntax highlighting style override
func GetCodeStyle() string {
	return viper.GetString("code_style")
}

// GetLogFile returns the log path with tilde expansion
func GetLogFile() string {
	return expandTilde(viper.GetString("log_file"))
}

// GetDebug returns whether debug logging is enabled
func GetDebug() bool {
	return viper.GetBool("debug")
}

// GetLiveReload returns whether the input file is watched for changes
func GetLiveReload() bool {
	return viper.GetBool("live_reload")
}

// GetSingleSlide returns whether the whole document renders as one slide
func GetSingleSlide() bool {
	return viper.GetBool("single_slide")
}

// GetSafe returns whether source-requested extensions are ignored
func GetSafe() bool {
	return viper.GetBool("safe")
}

// GetNoExtWarn returns whether extension warnings are suppressed
func GetNoExtWarn() bool {
	return viper.GetBool("no_ext_warn")
}

// GetIgnoreExtFailure returns whether extension load errors are ignored
func GetIgnoreExtFailure() bool {
	return viper.GetBool("ignore_ext_failure")
}

// GetExtensions returns the preloaded extension names
func GetExtensions() []string {
	return viper.GetStringSlice("extensions")
}

// GetThreads returns whether slides are pre-rendered in the background
func GetThreads() bool {
	return viper.GetBool("threads")
}

// GetPollInterval returns the background renderer queue poll interval
func GetPollInterval() time.Duration {
	ms := viper.GetInt("poll_interval_ms")
	if ms <= 0 {
		ms = 100
	}
	return time.Duration(ms) * time.Millisecond
}

// GetShell returns the shell
func GetShell() string {
	return viper.GetString("shell")
}

// GetOutput returns how the presentation is shown: tui, dump, styles or
// benchmark
func GetOutput() string {
	if o := viper.GetString("output"); o != "" {
		return o
	}
	return OutputTUI
}

// SetOutput sets the output mode at runtime
func SetOutput(mode string) {
	viper.Set("output", mode)
	C.Output = mode
}

// GetStartSlide returns the 1-based slide to start on
func GetStartSlide() int {
	return max(viper.GetInt("start_slide"), 1)
}

// SetStartSlide sets the 1-based start slide at runtime
func SetStartSlide(n int) {
	viper.Set("start_slide", n)
	C.StartSlide = n
}

// expandTilde expands ~ to the user's home directory
func expandTilde(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

func getDefaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/bash"
}
