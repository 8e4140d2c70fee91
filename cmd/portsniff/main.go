package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"portsniff/internal/scan"
)

var (
	flagIP          string
	flagConcurrency int
	flagStartPort   uint16
	flagEndPort     uint16
	flagRate        int
)

var rootCmd = &cobra.Command{
	Use:          "portsniff",
	Short:        "portsniff is a concurrent TCP connect scanner",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagIP, "ip", "", "target IP address (IPv4 or IPv6)")
	rootCmd.Flags().IntVarP(&flagConcurrency, "concurrency", "c", scan.DefaultConcurrency, "number of concurrent probes (1-100)")
	rootCmd.Flags().Uint16VarP(&flagStartPort, "start_port", "s", scan.MinPort, "first port to scan")
	rootCmd.Flags().Uint16VarP(&flagEndPort, "end_port", "e", scan.MaxPort, "last port to scan")
	rootCmd.Flags().IntVar(&flagRate, "rate", 0, "max probe launches per second (0 = unlimited)")
	cobra.CheckErr(rootCmd.MarkFlagRequired("ip"))
}

func run(ctx context.Context) error {
	target, err := scan.NewTarget(flagIP, flagStartPort, flagEndPort)
	if err != nil {
		return err
	}
	cfg := scan.NewConfig(target)
	cfg.Concurrency = flagConcurrency

	bar := newBar(target.PortCount())
	scanner, err := scan.New(cfg,
		scan.WithProgress(func() { _ = bar.Add(1) }),
		scan.WithRateLimit(flagRate),
	)
	if err != nil {
		return err
	}

	color.Cyan("--- scanning %s [ports %d-%d] ---", target.Addr, target.StartPort, target.EndPort)
	color.Cyan("--- concurrency: %d | timeout: %s ---", cfg.Concurrency, cfg.Timeout)

	start := time.Now()
	open, err := scanner.Run(ctx)
	if err != nil {
		return fmt.Errorf("scan aborted: %w", err)
	}
	_ = bar.Finish()
	fmt.Println()

	if len(open) == 0 {
		fmt.Println("No open ports found.")
	} else {
		color.Green("Open ports:")
		for _, p := range open {
			fmt.Println(p)
		}
	}
	color.Cyan("[+] scanned %d ports in %s", target.PortCount(), time.Since(start).Round(time.Millisecond))
	return nil
}

func newBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetDescription("[cyan][scanning][reset]"),
		progressbar.OptionSetVisibility(isatty.IsTerminal(os.Stdout.Fd())),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
