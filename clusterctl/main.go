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

// Command clusterctl talks to the status API of a cluster master.  It
// uses subcommands; with none it starts the full screen interface.
//
// The flags are
//
//	-a <address>	- the status API, default is http://127.0.0.1:8321
//	-u <user:pass>	- user name & password for basic auth
//
// Subcommands are
//
//	info            - summary of the master
//	workers         - list worker ids
//	status [<id>..] - one line per worker (or all)
//	log             - the master log
//	restart <id>    - retire a worker and fork a replacement
//	shutdown        - shut the whole cluster down
//	hash <password> - print a bcrypt hash for the status config
//	ui              - interactive interface
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/gdamore/gocluster/clusterctl/ui"
	"github.com/gdamore/gocluster/clusterctl/util"
	"github.com/gdamore/gocluster/rest"
)

var (
	addr    = "http://127.0.0.1:8321"
	auth    = ""
	logFile = ""
)

var rootCmd = &cobra.Command{
	Use:          "clusterctl",
	Short:        "Inspect and control a running cluster",
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         doUI,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&addr, "address", "a", addr, "status API address")
	f.StringVarP(&auth, "user", "u", auth, "user:pass authentication")
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	uiCmd := &cobra.Command{
		Use:   "ui",
		Short: "Interactive interface",
		Args:  cobra.NoArgs,
		RunE:  doUI,
	}
	uiCmd.Flags().StringVar(&logFile, "log", "", "debug log file")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "info",
			Short: "Show a summary of the master",
			Args:  cobra.NoArgs,
			RunE:  doInfo,
		},
		&cobra.Command{
			Use:   "workers",
			Short: "List worker ids",
			Args:  cobra.NoArgs,
			RunE:  doWorkers,
		},
		&cobra.Command{
			Use:   "status [id...]",
			Short: "Show worker status",
			RunE:  doStatus,
		},
		&cobra.Command{
			Use:   "log",
			Short: "Show the master log",
			Args:  cobra.NoArgs,
			RunE:  doLog,
		},
		&cobra.Command{
			Use:   "restart <id>",
			Short: "Restart a worker",
			Args:  cobra.ExactArgs(1),
			RunE:  doRestart,
		},
		&cobra.Command{
			Use:   "shutdown",
			Short: "Shut the cluster down",
			Args:  cobra.NoArgs,
			RunE:  doShutdown,
		},
		&cobra.Command{
			Use:   "hash <password>",
			Short: "Hash a password for the status API configuration",
			Args:  cobra.ExactArgs(1),
			RunE:  doHash,
		},
		uiCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func client() (*rest.Client, error) {
	c := rest.NewClient(nil, addr)
	if auth != "" {
		a := strings.SplitN(auth, ":", 2)
		if len(a) != 2 {
			return nil, errors.New("bad user:pass supplied")
		}
		c.SetAuth(a[0], a[1])
	}
	return c, nil
}

func workerID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("bad worker id %q", s)
	}
	return id, nil
}

func doInfo(cmd *cobra.Command, args []string) error {
	c, err := client()
	if err != nil {
		return err
	}
	i, err := c.Info()
	if err != nil {
		return err
	}
	fmt.Printf("Name:       %s\n", i.Name)
	fmt.Printf("Pid:        %d\n", i.Pid)
	fmt.Printf("Cluster:    %s\n", i.ClusterID)
	fmt.Printf("Workers:    %d/%d (%d online)\n", i.Workers, i.Instances, i.Online)
	fmt.Printf("Forks:      %d\n", i.Forks)
	fmt.Printf("Respawns:   %d\n", i.Respawns)
	fmt.Printf("Up:         %v\n", util.FormatDuration(time.Since(i.CreateTime)))
	if i.ShuttingDown {
		fmt.Printf("Status:     shutting down\n")
	}
	return nil
}

func doWorkers(cmd *cobra.Command, args []string) error {
	c, err := client()
	if err != nil {
		return err
	}
	ids, err := c.Workers()
	if err != nil {
		return err
	}
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func doStatus(cmd *cobra.Command, args []string) error {
	c, err := client()
	if err != nil {
		return err
	}
	var ids []int
	for _, a := range args {
		id, err := workerID(a)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		if ids, err = c.Workers(); err != nil {
			return err
		}
	}
	infos := make([]*rest.WorkerInfo, 0, len(ids))
	for _, id := range ids {
		info, err := c.GetWorker(id)
		if err != nil {
			log.Printf("worker %d: %v", id, err)
			continue
		}
		infos = append(infos, info)
	}
	util.SortWorkers(infos)
	for _, w := range infos {
		fmt.Printf("%6d %8d %-10s %10s %s\n", w.ID, w.Pid,
			util.Status(w), util.FormatDuration(util.Uptime(w)),
			util.Addresses(w))
	}
	return nil
}

func doLog(cmd *cobra.Command, args []string) error {
	c, err := client()
	if err != nil {
		return err
	}
	l, err := c.GetLog()
	if err != nil {
		return err
	}
	for _, r := range l.Records {
		fmt.Printf("%s %-5s %s: %s\n", r.Time.Format(time.StampMilli),
			r.Severity, r.Facility, r.Text)
	}
	return nil
}

func doRestart(cmd *cobra.Command, args []string) error {
	id, err := workerID(args[0])
	if err != nil {
		return err
	}
	c, err := client()
	if err != nil {
		return err
	}
	return c.RestartWorker(id)
}

func doShutdown(cmd *cobra.Command, args []string) error {
	c, err := client()
	if err != nil {
		return err
	}
	return c.Shutdown()
}

func doHash(cmd *cobra.Command, args []string) error {
	h, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	fmt.Println(string(h))
	return nil
}

func doUI(cmd *cobra.Command, args []string) error {
	c, err := client()
	if err != nil {
		return err
	}
	var logger *log.Logger
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		logger = log.New(f, "", log.LstdFlags)
	}
	a := ui.NewApp(c, addr)
	a.SetLogger(logger)
	a.Run()
	return nil
}

/*
   Our screen has the following appearance:

                       clusterd (pid 4242)                    Gocluster v1.0
   4 Workers  3 Online  1 Starting  0 Stopping  2 Respawns
   ____________________________________________________________________________
   worker-1       4243 online          0:10:02   0.0.0.0:8080
   worker-2       4244 online          0:10:02   0.0.0.0:8080
   worker-5       4301 starting        0:00:01   -
   ____________________________________________________________________________
   [Q] Quit [H] Help [L] Log [I] Info [R] Restart
*/
