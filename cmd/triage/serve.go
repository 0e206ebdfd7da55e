package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Veraticus/inbox-triage/internal/certs"
	"github.com/Veraticus/inbox-triage/internal/cli"
	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/engine"
	"github.com/Veraticus/inbox-triage/internal/server"
	"github.com/Veraticus/inbox-triage/internal/settings"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var (
		input        string
		addr         string
		printSummary bool
		useTLS       bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the settings API and keep a collection classified",
		Long: `Hold a message collection in memory, classify it, and re-classify it every
time the settings change. Changes arrive over HTTP (POST /settings/{kind})
and are applied one at a time, in order; a background drain picks up any
request that arrived while another was being applied.`,
		Example: `  triage serve --input inbox.json
  curl -X POST localhost:9464/settings/preferences -d '{"detectCC":false}'
  curl localhost:9464/summary`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = appConfig.Server.Addr
			}
			if cmd.Flags().Changed("tls") {
				appConfig.Server.TLS = useTLS
			}
			return runServe(cmd, input, addr, printSummary)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "messages JSON file to keep classified")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")
	cmd.Flags().BoolVar(&printSummary, "print", false, "print a summary after every run")
	cmd.Flags().BoolVar(&useTLS, "tls", false, "serve HTTPS with a self-signed certificate (default from server.tls)")
	return cmd
}

func runServe(cmd *cobra.Command, input, addr string, printSummary bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	interrupt := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Settings server")
	ctx := interrupt.HandleInterrupts(cmd.Context())

	a, err := openApp(ctx, appConfig, reg)
	if err != nil {
		return err
	}
	defer a.Close()

	publishers := []engine.Publisher{engine.LogPublisher{}}
	if printSummary {
		publishers = append(publishers, cli.SummaryPublisher{Writer: cmd.OutOrStdout()})
	}
	resyncer := engine.NewResyncer(a.newBatch(nil), publishers...)

	if input != "" {
		msgs, err := cli.ReadMessagesFile(input)
		if err != nil {
			return common.NewUserError("Could not read messages", err)
		}
		resyncer.SetMessages(msgs)
		if _, err := resyncer.Sync(ctx, a.store.Get()); err != nil {
			common.LogError(err, "Initial publish failed", nil)
		}
	}

	unsubscribe := a.broadcaster.AddChangeListener(resyncer)
	defer unsubscribe()
	stopHook := a.broadcaster.OnAnyChange(func(snap settings.Snapshot) {
		common.LogInfo("Settings synchronized", common.Fields{
			"all_active":  snap.ActiveCategories == nil,
			"active":      len(snap.ActiveCategories),
			"preselected": len(snap.TaskPreselectedCategories),
		})
	})
	defer stopHook()

	scheduler := settings.NewScheduler(a.broadcaster, a.cfg.Sync.DrainInterval)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	var tlsConfig *tls.Config
	if a.cfg.Server.TLS {
		tlsConfig, err = certs.TLSConfig(certs.NewFileManager(a.cfg.Server.CertDir))
		if err != nil {
			return common.NewUserError("Could not prepare the TLS certificate", err)
		}
	}

	srv, err := server.New(server.Config{
		Broadcaster: a.broadcaster,
		Results:     resyncer,
		Gatherer:    reg,
		Validate: func(change settings.Change) error {
			return validateCategories(a.classifier.Registry(), change)
		},
		TLSConfig:   tlsConfig,
		Addr:        addr,
		ChangeRate:  a.cfg.Server.ChangeRate,
		ChangeBurst: a.cfg.Server.ChangeBurst,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Listening on "+srv.Addr()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to shut down: %w", err)
	}

	// Apply anything still queued before exiting.
	a.broadcaster.Drain(shutdownCtx)
	a.broadcaster.WaitNotifications()
	return <-errCh
}
