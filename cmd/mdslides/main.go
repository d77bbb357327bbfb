package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/gubarz/mdslides/internal/config"
	"github.com/gubarz/mdslides/internal/ext"
	"github.com/gubarz/mdslides/internal/presentation"
	"github.com/gubarz/mdslides/internal/scheduler"
	"github.com/gubarz/mdslides/internal/tutorial"
	"github.com/gubarz/mdslides/internal/ui"
	"github.com/gubarz/mdslides/internal/widget"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var version = "0.1.0"

// errDeclined is returned when the user refuses the extension warnings
var errDeclined = errors.New("aborted, extension warnings were not accepted")

var extensionsCmd = &cobra.Command{
	Use:   "extensions",
	Short: "List the available extensions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range ext.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

var tutorialCmd = &cobra.Command{
	Use:   "tutorial [topic...]",
	Short: "Present the built-in tutorial",
	Long: `Present the built-in tutorial.

Topics are picked by group or topic name, separated by spaces or commas.
Partial names match, so "tab" finds the tables topic. Without topics the
whole tutorial is shown.`,
	RunE: runTutorial,
}

var rootCmd = &cobra.Command{
	Use:   "mdslides [file|-]",
	Short: "Markdown presentations in the terminal",
	Long: `Present a markdown file as slides in the terminal.

Slides are split on horizontal rules, or on headings when the document
has none. <!-- stop --> comments reveal a slide step by step. Use - or
no argument to read the presentation from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSlides,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(extensionsCmd)
	rootCmd.AddCommand(tutorialCmd)
	tutorialCmd.Flags().Bool("list", false, "List the tutorial groups and topics")

	flags := rootCmd.PersistentFlags()
	flags.StringP("theme", "t", "dark", "Theme: dark, light")
	flags.StringP("style", "s", "", "Syntax highlighting style")
	flags.Bool("debug", false, "Write a debug log")
	flags.String("log", "", "Debug log path")
	flags.Bool("live", false, "Reload the presentation when the file changes")
	flags.Bool("single", false, "Render the whole document as a single slide")
	flags.Bool("safe", false, "Ignore extensions requested by the source")
	flags.Bool("no-ext-warn", false, "Do not ask before loading extensions with warnings")
	flags.Bool("ignore-ext-failure", false, "Skip extensions that fail to load")
	flags.StringSliceP("exts", "e", nil, "Extensions to preload, comma separated")
	flags.Bool("threads", true, "Render slides in the background")

	rootCmd.Flags().Int("start", 1, "Slide to start on")
	rootCmd.Flags().Bool("dump", false, "Print every slide to stdout instead of starting the TUI")
	rootCmd.Flags().Bool("dump-styles", false, "Print the resolved styles as YAML and exit")
	rootCmd.Flags().BoolP("benchmark", "b", false, "Benchmark load and render time and exit")

	for key, flag := range map[string]string{
		"theme":              "theme",
		"code_style":         "style",
		"debug":              "debug",
		"log_file":           "log",
		"live_reload":        "live",
		"single_slide":       "single",
		"safe":               "safe",
		"no_ext_warn":        "no-ext-warn",
		"ignore_ext_failure": "ignore-ext-failure",
		"extensions":         "exts",
		"threads":            "threads",
	} {
		viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}
}

func runSlides(cmd *cobra.Command, args []string) error {
	path := presentation.Stdin
	if len(args) > 0 {
		path = args[0]
	}
	return present(cmd, path, nil)
}

func runTutorial(cmd *cobra.Command, args []string) error {
	topics, err := tutorial.Topics()
	if err != nil {
		return err
	}
	if list, _ := cmd.Flags().GetBool("list"); list {
		listTopics(cmd.OutOrStdout(), topics)
		return nil
	}

	var filters []string
	for _, arg := range args {
		filters = append(filters, strings.Split(arg, ",")...)
	}
	styles, err := config.Theme(config.GetTheme())
	if err != nil {
		return err
	}
	md, err := tutorial.Markdown(tutorial.Select(topics, filters), styles)
	if err != nil {
		return err
	}
	return present(cmd, presentation.Stdin, strings.NewReader(md))
}

func listTopics(out io.Writer, topics []tutorial.Topic) {
	group := ""
	for _, t := range topics {
		if t.Group != group {
			group = t.Group
			fmt.Fprintln(out, group)
		}
		fmt.Fprintln(out, "  "+t.Name)
	}
}

// present loads path, or stdin when path is presentation.Stdin, and shows it
// in the configured output mode. A non-nil stdin replaces os.Stdin.
func present(cmd *cobra.Command, path string, stdin io.Reader) error {
	logger, closeLog, err := config.NewLogger(config.GetDebug(), config.GetLogFile())
	if err != nil {
		return err
	}
	defer closeLog()

	// Handle output mode flags
	if b, _ := cmd.Flags().GetBool("benchmark"); b {
		config.SetOutput(config.OutputBenchmark)
	} else if d, _ := cmd.Flags().GetBool("dump-styles"); d {
		config.SetOutput(config.OutputStyles)
	} else if d, _ := cmd.Flags().GetBool("dump"); d {
		config.SetOutput(config.OutputDump)
	}
	if cmd.Flags().Changed("start") {
		start, _ := cmd.Flags().GetInt("start")
		config.SetStartSlide(start)
	}
	output := config.GetOutput()
	start := config.GetStartSlide() - 1
	logger.Debug("config loaded", "config", config.C)

	began := time.Now()
	p, err := presentation.Load(presentation.Options{
		Path:             path,
		Stdin:            stdin,
		Theme:            config.GetTheme(),
		CodeStyle:        config.GetCodeStyle(),
		Extensions:       config.GetExtensions(),
		Safe:             config.GetSafe(),
		IgnoreExtFailure: config.GetIgnoreExtFailure(),
		SingleSlide:      config.GetSingleSlide(),
		Threads:          config.GetThreads() && output == config.OutputTUI,
		PollInterval:     config.GetPollInterval(),
		StartSlide:       start,
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	defer p.Close()

	if output == config.OutputStyles {
		return dumpStyles(os.Stdout, p)
	}

	if warnings := p.Warnings(); len(warnings) > 0 && !config.GetNoExtWarn() {
		fmt.Fprintln(os.Stderr, ext.FormatWarnings(warnings))
		ok, err := ui.ConfirmTTY("Continue anyway?")
		if err != nil {
			return err
		}
		if !ok {
			return errDeclined
		}
	}

	if err := p.Start(); err != nil {
		return err
	}

	switch output {
	case config.OutputBenchmark:
		return runBenchmark(p, began)
	case config.OutputDump:
		return dumpSlides(os.Stdout, p, terminalWidth())
	}

	opts := ui.Options{Start: start, Debug: config.GetDebug()}
	if config.GetLiveReload() && path != presentation.Stdin {
		opts.Watch = p.Watch
	}
	return ui.Run(p, opts)
}

// terminalWidth returns the width of stdout, or 80 when it is not a terminal
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// dumpSlides writes every slide to out. Render errors are reported inline
// and make the dump fail once every slide was written.
func dumpSlides(out io.Writer, p *presentation.Presentation, width int) error {
	var failed int
	rule := strings.Repeat("─", width)
	for i := range p.SlideCount() {
		if i > 0 {
			fmt.Fprintln(out, rule)
		}
		w, err := p.RenderSlide(i)
		if err != nil {
			failed++
			fmt.Fprintf(out, "error rendering slide %d: %s\n", i+1, err)
			if config.GetDebug() {
				fmt.Fprintln(out, scheduler.Detail(err))
			} else {
				fmt.Fprintln(out, "rerun with --debug for a full trace")
			}
			continue
		}
		fmt.Fprintln(out, widget.String(w, width))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d slides failed to render", failed, p.SlideCount())
	}
	return nil
}

// dumpStyles writes the styles in effect, theme and front matter merged, as
// YAML
func dumpStyles(out io.Writer, p *presentation.Presentation) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(p.Styles()); err != nil {
		return fmt.Errorf("encoding styles: %w", err)
	}
	return enc.Close()
}

func runBenchmark(p *presentation.Presentation, began time.Time) error {
	loaded := time.Since(began)
	for i := range p.SlideCount() {
		if _, err := p.RenderSlide(i); err != nil {
			return fmt.Errorf("error rendering slide %d: %w", i+1, err)
		}
	}
	rendered := time.Since(began) - loaded

	// Force GC and get memory stats
	runtime.GC()
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Printf("Loaded %d slides in %v, rendered in %v\n", p.SlideCount(), loaded, rendered)
	fmt.Printf("Memory: Alloc=%dMB, TotalAlloc=%dMB, Sys=%dMB, HeapObjects=%d\n",
		m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024, m.HeapObjects)
	return nil
}

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
