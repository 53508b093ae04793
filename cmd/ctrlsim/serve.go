package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/ctrlsim/internal/logger"
	"github.com/san-kum/ctrlsim/internal/metrics"
	"github.com/san-kum/ctrlsim/internal/server"
	"github.com/san-kum/ctrlsim/internal/sessionlog"
)

var log = logger.New("ctrlsim")

// openSessions builds the session logger from the configured sinks. The
// returned store is nil when the local store is disabled.
func openSessions() (*sessionlog.Logger, *sessionlog.BuntStore, error) {
	var sinks []sessionlog.Sink

	var store *sessionlog.BuntStore
	if path := cfg.Sessions.Path; path != "" {
		var err error
		store, err = sessionlog.OpenBunt(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open session store: %w", err)
		}
		sinks = append(sinks, store)
		log.Info("Logging sessions to %s", path)
	}

	if r := cfg.Sessions.Redis; r.Addr != "" {
		sinks = append(sinks, sessionlog.NewRedisSink(r.Addr, r.Password))
		log.Info("Logging session metrics to redis at %s", r.Addr)
	}

	if len(sinks) == 0 {
		log.Warn("Session logging disabled")
	}
	return sessionlog.New(sinks...), store, nil
}

func serve(cmd *cobra.Command, args []string) error {
	sessions, store, err := openSessions()
	if err != nil {
		return err
	}
	defer sessions.Close()

	var history server.History
	if store != nil {
		history = store
	}

	srv := server.New(server.Options{
		Addr:            cfg.Server.Addr,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		AccessLog:       logger.Writer(),
	}, sessions, history)

	return srv.Run(cmd.Context())
}

func listSessions(cmd *cobra.Command, args []string) error {
	if cfg.Sessions.Path == "" {
		return fmt.Errorf("no session store configured (sessions.path)")
	}
	store, err := sessionlog.OpenBunt(cfg.Sessions.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no sessions logged")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tGAINS\tIAE\tCREATED")
	for _, e := range entries {
		iae := 0.0
		if e.Output != nil {
			iae = e.Output.Metrics[metrics.IAEName]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%s\n", e.ID, e.System, e.Input, iae, e.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
