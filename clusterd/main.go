// Copyright 2026 The Gocluster Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command clusterd is a small HTTP server run as a cluster.  The master
// forks the workers and serves the status API; the workers share the
// service port.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gdamore/gocluster"
	"github.com/gdamore/gocluster/pidfile"
	"github.com/gdamore/gocluster/rpc"
)

const (
	name      = "clusterd"
	envDaemon = "CLUSTERD_DAEMON"
)

var (
	cfgFile    string
	listenAddr string
	statusAddr string
	pidFile    string
	logLevel   string
	daemon     bool
	killDaemon bool
)

var (
	app = cluster.NewApp(name)
	cl  = cluster.New(app, cluster.NewExecForker(), nil)
)

var rootCmd = &cobra.Command{
	Use:   name,
	Short: "Run an HTTP server across a pool of worker processes",
	Example: `  # four workers sharing port 8080
  clusterd --cluster 4 --listen :8080

  # run detached, then stop it
  clusterd --daemon --pid-file /tmp/clusterd.pid
  clusterd --kill --pid-file /tmp/clusterd.pid`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.AddFlagSet(app.Flags())
	f.StringVarP(&cfgFile, "config", "c", "", "configuration file (YAML)")
	f.StringVarP(&listenAddr, "listen", "l", "", "service address")
	f.StringVarP(&statusAddr, "status", "s", "", "status API address (master only)")
	f.StringVar(&pidFile, "pid-file", "", "pid file for daemon mode")
	f.StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	f.BoolVarP(&daemon, "daemon", "d", false, "run detached, without clustering")
	f.BoolVarP(&killDaemon, "kill", "k", false, "stop a running daemon")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*cluster.Config, error) {
	cfg := cluster.DefaultConfig()
	if cfgFile != "" {
		var err error
		if cfg, err = cluster.LoadConfig(cfgFile); err != nil {
			return nil, err
		}
	}
	f := cmd.Flags()
	if f.Changed("listen") {
		cfg.Listen = listenAddr
	}
	if f.Changed("status") {
		cfg.Status.Listen = statusAddr
	}
	if f.Changed("pid-file") {
		cfg.PIDFile = pidFile
	}
	if f.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if f.Changed("cluster") {
		cfg.Instances, _ = f.GetInt("cluster")
	} else if err := f.Set("cluster", strconv.Itoa(cfg.Instances)); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	app.SetLevel(cfg.Level())
	if cfg.Log.File != "" {
		l, closer := cluster.NewFileLogger(cfg.Log.File, cfg.Log.MaxSize, cfg.Log.MaxBackups)
		app.AddLogger(l)
		defer closer()
	}
	if err := cl.SetConfig(cfg); err != nil {
		return err
	}

	switch {
	case killDaemon:
		app.SetKillingDaemon(true)
		return stopDaemon(cfg.PIDFile)
	case daemon && os.Getenv(envDaemon) == "":
		return startDaemon()
	case daemon:
		app.SetDaemonized(true)
		lock, err := pidfile.Acquire(cfg.PIDFile)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	if err := cl.Start(); err != nil {
		return err
	}
	app.SetTitle(name)

	if cl.Mode() == cluster.ModeMaster {
		return runMaster(cfg)
	}
	return runServer(cfg)
}

// runMaster serves the status API until told to stop, then drains the
// workers.
func runMaster(cfg *cluster.Config) error {
	sup := cl.Supervisor()
	stop := make(chan struct{}, 1)
	trigger := func() {
		select {
		case stop <- struct{}{}:
		default:
		}
	}

	h := rpc.NewHandler(sup, app.LogBuffer())
	if cfg.Status.User != "" {
		h.SetAuth(cfg.Status.User, cfg.Status.PasswordHash)
	}
	h.OnShutdown(trigger)
	status := &http.Server{Addr: cfg.Status.Listen, Handler: h}
	go func() {
		err := status.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logf(name, cluster.SevError, "status server: %v", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigs {
			if sig == syscall.SIGHUP {
				restartAll(sup)
				continue
			}
			app.Logf(name, cluster.SevInfo, "received %v", sig)
			trigger()
		}
	}()

	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	status.Shutdown(ctx)
	cancel()

	r, err := cl.Stop(context.Background())
	if err != nil {
		return err
	}
	if !r.Clean() {
		return fmt.Errorf("workers %v did not exit", r.Remaining)
	}
	return nil
}

// restartAll replaces every worker in turn.
func restartAll(sup *cluster.Supervisor) {
	ws, _ := sup.Workers()
	app.Logf(name, cluster.SevInfo, "rolling restart of %d workers", len(ws))
	for _, w := range ws {
		if err := sup.Restart(w.ID); err != nil {
			app.Logf(name, cluster.SevWarn, "restart worker %d: %v", w.ID, err)
		}
	}
}

// runServer serves HTTP, in a worker or in a standalone process.
func runServer(cfg *cluster.Config) error {
	l, err := cl.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s (pid %d)\n", app.Title(), os.Getpid())
	})
	srv := &http.Server{Handler: mux}
	app.OnShutdown(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	sigs := make(chan os.Signal, 1)
	if cl.Mode() == cluster.ModeWorker {
		// The master owns the terminal's ^C; it tells us when to go.
		signal.Ignore(syscall.SIGINT)
		signal.Notify(sigs, syscall.SIGTERM)
	} else {
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	}
	go func() {
		<-sigs
		app.Shutdown()
	}()

	app.Logf(name, cluster.SevInfo, "serving on %s", l.Addr())
	if err := srv.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// startDaemon runs ourselves again, detached, and returns.
func startDaemon() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Env = append(os.Environ(), envDaemon+"=1")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	fmt.Printf("%s started (pid %d)\n", name, cmd.Process.Pid)
	return cmd.Process.Release()
}

func stopDaemon(path string) error {
	pid, err := pidfile.ReadPID(path)
	if err != nil {
		return err
	}
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("stop daemon (pid %d): %w", pid, err)
	}
	fmt.Printf("%s stopped (pid %d)\n", name, pid)
	return nil
}
