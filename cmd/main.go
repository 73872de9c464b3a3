/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/blnkfinance/bulkdelete"
	"github.com/blnkfinance/bulkdelete/config"
	"github.com/blnkfinance/bulkdelete/internal/cache"
	redlock "github.com/blnkfinance/bulkdelete/internal/lock"
	"github.com/blnkfinance/bulkdelete/internal/notification"
	redis_db "github.com/blnkfinance/bulkdelete/internal/redis-db"
	"github.com/blnkfinance/bulkdelete/internal/scheduler"
	"github.com/blnkfinance/bulkdelete/internal/state"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// BulkDeleteCLI is the command-line application, wrapping the root Cobra command.
type BulkDeleteCLI struct {
	cmd *cobra.Command
}

// bulkDeleteInstance holds the service and the resources it was built on.
// The Redis backed parts are only set in local mode.
type bulkDeleteInstance struct {
	service *bulkdelete.BulkDelete
	cnf     *config.Configuration

	redis  *redis_db.Redis
	queue  *asynq.Client
	locker *redlock.SessionLocker
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and builds the service before any command runs.
func preRun(app *bulkDeleteInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(*configFile)
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		if err := setupService(app, cnf); err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}
		app.cnf = cnf
		return nil
	}
}

// setupService builds the deletion service. Platform mode keeps session state
// in the snap-in inputs and schedules through the platform; local mode moves
// both onto Redis and the resume queue.
func setupService(app *bulkDeleteInstance, cfg *config.Configuration) error {
	var opts []bulkdelete.Option

	if cfg.Runtime.Mode == config.ModeLocal {
		addresses := redis_db.SplitAddresses(cfg.Redis.Dns)
		rdb, err := redis_db.NewRedisClient(addresses, cfg.Redis.SkipTLSVerify)
		if err != nil {
			return fmt.Errorf("error connecting to redis: %v", err)
		}
		connOpt, err := redis_db.AsynqConnOpt(addresses[0], cfg.Redis.SkipTLSVerify)
		if err != nil {
			return fmt.Errorf("error parsing Redis URL: %v", err)
		}

		app.redis = rdb
		app.queue = asynq.NewClient(connOpt)
		app.locker = redlock.NewSessionLocker(rdb.Client(), time.Duration(cfg.Runtime.SessionLockSec)*time.Second)

		opts = append(opts,
			bulkdelete.WithStateStore(state.NewRedisStore(rdb.Client(), state.DefaultTTL)),
			bulkdelete.WithScheduler(scheduler.NewQueueScheduler(app.queue, cfg.Runtime.ResumeQueue)),
			bulkdelete.WithTagCache(cache.NewRedisCache(rdb.Client())),
		)
	}

	service, err := bulkdelete.NewBulkDelete(opts...)
	if err != nil {
		return fmt.Errorf("error creating bulk delete service: %v", err)
	}
	app.service = service
	return nil
}

// close releases the Redis backed resources of local mode.
func (app *bulkDeleteInstance) close() {
	if app.queue != nil {
		if err := app.queue.Close(); err != nil {
			logrus.WithError(err).Warn("error closing queue client")
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			logrus.WithError(err).Warn("error closing redis client")
		}
	}
}

// NewCLI creates the command-line interface with the start, workers and config commands.
func NewCLI() *BulkDeleteCLI {
	var configFile string
	b := &bulkDeleteInstance{}

	var rootCmd = &cobra.Command{
		Use:   "bulkdelete",
		Short: "Bulk delete tagged tickets, issues, opportunities, accounts and contacts",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./bulkdelete.json", "Configuration file for the bulk delete snap-in")
	rootCmd.PersistentPreRunE = preRun(b, &configFile)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(workerCommands(b))
	rootCmd.AddCommand(configCommands(b))

	return &BulkDeleteCLI{cmd: rootCmd}
}

func (w BulkDeleteCLI) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
