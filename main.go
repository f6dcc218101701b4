// epub-translator translates the text of an EPUB book into another language.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/sg6/epub-translator/book"
	"github.com/sg6/epub-translator/config"
	"github.com/sg6/epub-translator/console"
	"github.com/sg6/epub-translator/i18n"
	"github.com/sg6/epub-translator/langs"
	"github.com/sg6/epub-translator/pipeline"
	"github.com/sg6/epub-translator/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	logger     = console.Default()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "epub-translator",
		Short: "Translate the text of EPUB books",
		Long: `epub-translator translates every paragraph of an EPUB book from one
language to another and writes <name>_translated.epub into translated_books/.

Images, styles, metadata, reading order and table of contents are copied
unchanged. Paragraphs the provider cannot translate stay in the source
language; a chapter that cannot be parsed is kept as it was.

Providers:
  google   Google Translate (no key needed)
  openai   any OpenAI-compatible chat endpoint, e.g. Gemini
           (GEMINI_API_URL, GEMINI_API_KEY, GEMINI_MODEL)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./"+config.FileName+" if present)")

	root.AddCommand(
		newTranslateCmd(),
		newLanguagesCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var open bool
	d := config.Defaults()

	cmd := &cobra.Command{
		Use:   "translate <book.epub>",
		Short: "Translate an EPUB book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, args[0], open)
		},
	}

	f := cmd.Flags()
	f.String("from", d.SourceLang, "Source language code, or \"auto\" to detect it")
	f.String("to", d.TargetLang, "Target language code")
	f.Int("batch-size", d.BatchSize, "Paragraphs per translation batch")
	f.String("output-dir", d.OutputDir, "Directory the translated book is moved into")
	f.String("provider", d.Provider, "Translation provider: google or openai")
	f.Float64("rps", d.RequestsPerSecond, "Maximum provider requests per second (0 = unlimited)")
	f.BoolP("verbose", "v", d.Verbose, "Log every batch and translated paragraph")
	f.BoolVar(&open, "open", false, "Open the output directory when done")
	return cmd
}

func runTranslate(cmd *cobra.Command, input string, open bool) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := console.New(os.Stderr, cfg.Verbose)
	for _, code := range []string{cfg.SourceLang, cfg.TargetLang} {
		if code != langs.Auto && !langs.Known(code) {
			log.Warn("%s", i18n.T("Unknown language code %q, passing it to the provider as is", code))
		}
	}
	log.Info("%s: %s, %s: %s", i18n.T("Source language"), langs.Label(cfg.SourceLang),
		i18n.T("Target language"), langs.Label(cfg.TargetLang))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s %s[reset]", i18n.T("Translating"), filepath.Base(input))),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	job := pipeline.Job{
		Input: input,
		Pipeline: pipeline.Pipeline{
			Translator: newTranslator(cfg),
			Source:     cfg.SourceLang,
			Target:     cfg.TargetLang,
			BatchSize:  cfg.BatchSize,
			Log:        log,
		},
		Exporter: pipeline.Exporter{OutputDir: cfg.OutputDir, Suffix: cfg.Suffix},
	}

	var last pipeline.Event
	for ev := range pipeline.Start(ctx, job).Events() {
		if ev.Kind == pipeline.Progress {
			bar.Set(ev.Percent)
			continue
		}
		last = ev
	}
	bar.Finish()
	fmt.Fprintln(os.Stderr)

	if last.Kind == pipeline.Failed {
		return fmt.Errorf("%s %s: %w", i18n.T("Translation failed."), stage(last.Err), last.Err)
	}

	log.Success("%s", i18n.T("Your book was translated successfully!"))
	log.Info("%s", i18n.T("Saved to %s", last.Output))
	if n := last.Stats.Failed; n > 0 {
		log.Warn("%s", i18n.N("%d paragraph kept in the source language", "%d paragraphs kept in the source language", n, n))
	}
	if n := last.Stats.Kept; n > 0 {
		log.Warn("%s", i18n.N("%d document kept unchanged", "%d documents kept unchanged", n, n))
	}

	if open {
		dir := filepath.Dir(last.Output)
		log.Info("%s", i18n.T("Opening %s", dir))
		if err := openFolder(dir); err != nil {
			log.Warn("%s", i18n.T("Could not open %s: %v", dir, err))
		}
	}
	return nil
}

func newTranslator(cfg *config.Config) translate.Translator {
	var tr translate.Translator = translate.Google{}
	if cfg.Provider == config.ProviderOpenAI {
		tr = translate.NewOpenAI(cfg.OpenAI.URL, cfg.OpenAI.Key, cfg.OpenAI.Model, cfg.OpenAI.Timeout)
	}
	return translate.Paced(tr, cfg.RequestsPerSecond)
}

// stage names the step a fatal error stopped the run at.
func stage(err error) string {
	var (
		re  *book.ReadError
		we  *book.WriteError
		rel *pipeline.RelocationError
	)
	switch {
	case errors.As(err, &re):
		return "(reading the book)"
	case errors.As(err, &we):
		return "(writing the translated book)"
	case errors.As(err, &rel):
		return "(moving the book to the output directory)"
	case errors.Is(err, context.Canceled):
		return "(interrupted)"
	}
	return "(translating)"
}

// openFolder shows dir in the platform's file browser.
func openFolder(dir string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", dir)
	case "darwin":
		cmd = exec.Command("open", dir)
	default:
		cmd = exec.Command("xdg-open", dir)
	}
	return cmd.Start()
}

// ---------------------------------------------------------------------------
// languages
// ---------------------------------------------------------------------------

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported language codes",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, code := range langs.Codes() {
				fmt.Fprintf(out, "%-6s %s\n", code, langs.Name(code))
			}
		},
	}
}

// ---------------------------------------------------------------------------
// config
// ---------------------------------------------------------------------------

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default " + config.FileName,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = config.FileName
			}
			if err := config.WriteTemplate(path); err != nil {
				return err
			}
			logger.Success("%s", i18n.T("Wrote %s", path))
			return nil
		},
	})
	return cmd
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "epub-translator version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}
