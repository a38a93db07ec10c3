package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/IgorBrzezek/YT-Audio-Video-Extractor/internal/app"
	"github.com/IgorBrzezek/YT-Audio-Video-Extractor/internal/domain"
	"github.com/IgorBrzezek/YT-Audio-Video-Extractor/internal/infrastructure"
	"github.com/IgorBrzezek/YT-Audio-Video-Extractor/pkg/logger"
)

const version = "1.0.0"

var (
	flagConfig       string
	flagFormat       string
	flagList         string
	flagOutput       string
	flagDest         string
	flagOverwrite    bool
	flagSkipExisting bool
	flagBatch        bool
	flagCookies      string
	flagLimitRate    string
	flagAddHeader    bool
	flagAddAndroid   bool
	flagMaxAttempts  int
	flagLogFile      string
	flagLogLevel     string

	exitCode int

	rootCmd = &cobra.Command{
		Use:   "ytavx [flags] [urls...]",
		Short: "Extract audio or video from YouTube using yt-dlp and ffmpeg",
		Long: `ytavx downloads remote audio/video through yt-dlp and converts it with
ffmpeg, processing single URLs or large batches with retries, overwrite
handling and clean abort behavior.

Always enclose URLs in quotes if they contain '&'.`,
		SilenceUsage: true,
		RunE:         runBatch,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.Flags().StringVarP(&flagFormat, "format", "f", string(domain.FormatAudioHighVBR),
		"Target format: audio-high, audio-fast, audio-highVBR, audio-mono, video-480, video-720, video-1080")
	rootCmd.Flags().StringVar(&flagList, "list", "", "Path to a text file with URLs, one per line")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output filename (single URL only)")
	rootCmd.Flags().StringVar(&flagDest, "dest", "", "Destination directory for output files")
	rootCmd.Flags().BoolVar(&flagOverwrite, "overwrite", false, "Overwrite existing files without asking")
	rootCmd.Flags().BoolVar(&flagSkipExisting, "skip-existing", false, "Skip existing files without asking")
	rootCmd.Flags().BoolVarP(&flagBatch, "batch", "b", false, "Silent batch mode: no console output, exit status is the error count")
	rootCmd.Flags().StringVar(&flagCookies, "cookies", "", "Use cookies from a browser (e.g. chrome, firefox)")
	rootCmd.Flags().StringVarP(&flagLimitRate, "limit-rate", "r", "", "Limit download speed (e.g. 500K, 2M)")
	rootCmd.Flags().BoolVar(&flagAddHeader, "add-header", false, "Send a browser User-Agent header")
	rootCmd.Flags().BoolVar(&flagAddAndroid, "add-android", false, "Use the android player client extractor args")
	rootCmd.Flags().IntVar(&flagMaxAttempts, "max-attempts", 0, "Fetch/convert attempts per job (default from config)")
	rootCmd.Flags().StringVar(&flagLogFile, "log", "", "Write the log to a file")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.MarkFlagsMutuallyExclusive("overwrite", "skip-existing")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ytavx %s\n", version)
		},
	})
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := app.LoadConfig(flagConfig)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)

	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	format := domain.TargetFormat(flagFormat)
	if !domain.ValidateFormat(format) {
		exitCode = 1
		return fmt.Errorf("unknown format %q", flagFormat)
	}

	requests, err := app.BuildRequests(args, flagList, flagOutput)
	if err != nil {
		exitCode = 1
		return err
	}

	if err := os.MkdirAll(cfg.Download.DestDir, 0755); err != nil {
		exitCode = 1
		return fmt.Errorf("cannot create destination directory: %w", err)
	}

	// Policy from flags; flags always win over prompting. Batch mode
	// implies overwrite so unattended runs never stall on a prompt.
	policy := domain.PolicyAskEachTime
	switch {
	case flagOverwrite || flagBatch:
		policy = domain.PolicyOverwriteAll
	case flagSkipExisting:
		policy = domain.PolicySkipAll
	}
	interactive := !flagBatch

	out := io.Writer(os.Stdout)
	if flagBatch {
		out = io.Discard
	}

	// The abort handler must be live before the first child launches.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := infrastructure.NewYTDLPFetcher(&cfg.Tools, &cfg.Network, cfg.Download.KillGrace, log)
	converter := infrastructure.NewFFmpegConverter(&cfg.Tools, cfg.Download.KillGrace, log)

	var prompter app.OverwritePrompter
	if interactive {
		prompter = app.NewConsolePrompter(os.Stdin, os.Stdout)
	}

	var history domain.HistoryStore
	if cfg.History.Enabled {
		store, err := infrastructure.NewSQLiteHistory(cfg.History.DatabasePath)
		if err != nil {
			log.Warn("history store unavailable", zap.Error(err))
		} else {
			defer store.Close()
			history = store
		}
	}

	runner := app.NewJobRunner(fetcher, converter, prompter, &cfg.Download, log)
	driver := app.NewBatchDriver(runner, fetcher, cfg, policy, interactive, history, log, out)

	summary, abortErr := driver.Run(ctx, requests, format)
	if abortErr != nil {
		log.Warn("run aborted by user")
	}
	exitCode = summary.ExitCode()
	return nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *domain.Config) {
	flags := cmd.Flags()
	if flagDest != "" {
		cfg.Download.DestDir = flagDest
	}
	if flags.Changed("max-attempts") && flagMaxAttempts > 0 {
		cfg.Download.MaxAttempts = flagMaxAttempts
	}
	if flagCookies != "" {
		cfg.Network.CookiesBrowser = flagCookies
	}
	if flagLimitRate != "" {
		cfg.Network.LimitRate = flagLimitRate
	}
	if flagAddHeader {
		cfg.Network.AddUserAgent = true
	}
	if flagAddAndroid {
		cfg.Network.AndroidClient = true
	}
	if flagLogFile != "" {
		cfg.Logging.OutputPath = flagLogFile
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if exitCode == 0 {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}
