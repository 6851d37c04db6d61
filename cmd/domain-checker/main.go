package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/WangYihang/Domain-Checker/pkg/application"
	"github.com/WangYihang/Domain-Checker/pkg/common"
	"github.com/WangYihang/Domain-Checker/pkg/infrastructure/metrics"
	"github.com/WangYihang/Domain-Checker/pkg/interface/cli"
	"github.com/WangYihang/Domain-Checker/pkg/interface/presenter"
	"github.com/WangYihang/Domain-Checker/pkg/logger"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	// Parse command line flags
	config, err := cli.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if config.Version {
		fmt.Println(common.PV.String())
		return
	}

	os.Exit(run(config))
}

func run(config *cli.Config) int {
	logConfig := logger.Config{File: config.LogFile, Debug: config.Debug}
	if config.Dashboard {
		// the dashboard owns the terminal
		logConfig.Writer = io.Discard
	}
	cleanup, err := logger.Setup(logConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to set up logging: %v\n", err)
		return 1
	}
	defer cleanup()
	log := logger.L()

	assembler := cli.NewAssembler(config, log)

	report, err := assembler.LoadDomains()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(report.Domains) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no valid domains provided")
		return 1
	}

	dispatcher, err := assembler.AssembleDispatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	checkRun, err := assembler.AssembleRun(report.Domains)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, config.MetricsAddr, assembler.Registry()); err != nil {
				log.Error("metrics server failed", "addr", config.MetricsAddr, "error", err)
			}
		}()
	}

	// Handle interrupt signals: the first stops the run after the current
	// wave, the second exits immediately
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, stopping after the current wave...")
		checkRun.Cancel()
		<-sigChan
		os.Exit(130)
	}()

	if err := execute(ctx, config, dispatcher, checkRun); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	snapshot := checkRun.Snapshot()
	if err := assembler.WriteExports(snapshot.Results); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := presenter.WriteSummary(os.Stdout, snapshot); err != nil {
		return 1
	}
	if config.Top > 0 {
		if err := presenter.WriteValueAnalysis(os.Stdout, snapshot.Results, config.Top); err != nil {
			return 1
		}
	}
	return 0
}

// execute runs the dispatcher behind the configured presenter
func execute(ctx context.Context, config *cli.Config, dispatcher *application.Dispatcher, checkRun *application.Run) error {
	if config.Dashboard {
		dashboard := presenter.NewDashboard(checkRun.Settings(), checkRun.Cancel)
		checkRun.RegisterObserver(dashboard)

		// Run dashboard in TUI mode
		p := tea.NewProgram(dashboard, tea.WithAltScreen())

		// Run the check in background
		done := make(chan error, 1)
		go func() {
			done <- dispatcher.Execute(ctx, checkRun)
			p.Quit()
		}()

		if _, err := p.Run(); err != nil {
			checkRun.Cancel()
			<-done
			return fmt.Errorf("TUI error: %w", err)
		}
		return <-done
	}

	var bar *presenter.ProgressBar
	if !config.NoProgress {
		bar = presenter.NewProgressBar(len(checkRun.Domains()), os.Stdout)
		checkRun.RegisterObserver(bar)
	}

	err := dispatcher.Execute(ctx, checkRun)
	if bar != nil {
		bar.Wait()
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
