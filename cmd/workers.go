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
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.elastic.co/apm/module/apmlogrus/v2"

	"github.com/blnkfinance/bulkdelete"
	"github.com/blnkfinance/bulkdelete/config"
	redis_db "github.com/blnkfinance/bulkdelete/internal/redis-db"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
)

func init() {
	logrus.AddHook(&apmlogrus.Hook{})
}

// initializeQueues returns the queues the worker listens on with their priorities.
func initializeQueues(conf *config.Configuration) map[string]int {
	return map[string]int{conf.Runtime.ResumeQueue: 1}
}

func initializeWorkerServer(conf *config.Configuration, queues map[string]int) (*asynq.Server, error) {
	connOpt, err := redis_db.AsynqConnOpt(redis_db.SplitAddresses(conf.Redis.Dns)[0], conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %v", err)
	}

	return asynq.NewServer(connOpt, asynq.Config{
		Concurrency: conf.Runtime.Concurrency,
		Queues:      queues,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			logrus.WithFields(logrus.Fields{"task_type": task.Type(), "retried": retried}).WithError(err).Warn("resume task failed")
		}),
	}), nil
}

// initializeTaskHandlers registers the resume handler under the queue's task type.
func initializeTaskHandlers(b *bulkDeleteInstance, mux *asynq.ServeMux) {
	worker := bulkdelete.NewResumeWorker(b.service, b.locker)
	mux.HandleFunc(b.cnf.Runtime.ResumeQueue, worker.ProcessResumeTask)
}

// workerCommands defines the "workers" command. Workers replay the resume
// events of local mode; platform mode delivers them through the host.
func workerCommands(b *bulkDeleteInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start bulk delete resume workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			defer b.close()

			conf, err := config.Fetch()
			if err != nil {
				log.Fatal("Error fetching config:", err)
			}
			if conf.Runtime.Mode != config.ModeLocal {
				log.Fatal("workers only run in local mode, set runtime.mode to local")
			}

			shutdown, err := initializeObservability(ctx, conf)
			if err != nil {
				log.Fatal(err)
			}
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Printf("Error during shutdown: %v", err)
				}
			}()

			srv, err := initializeWorkerServer(conf, initializeQueues(conf))
			if err != nil {
				log.Fatal(err)
			}

			mux := asynq.NewServeMux()
			initializeTaskHandlers(b, mux)

			connOpt, _ := redis_db.AsynqConnOpt(redis_db.SplitAddresses(conf.Redis.Dns)[0], conf.Redis.SkipTLSVerify)
			h := asynqmon.New(asynqmon.Options{
				RootPath:     "/monitoring",
				RedisConnOpt: connOpt,
			})

			go func() {
				monitoringAddr := fmt.Sprintf(":%s", conf.Runtime.MonitoringPort)
				log.Printf("Asynqmon server listening on %s/monitoring", monitoringAddr)
				if err := http.ListenAndServe(monitoringAddr, h); err != nil {
					log.Fatalf("could not start asynqmon server: %v", err)
				}
			}()

			if err := srv.Run(mux); err != nil {
				log.Fatalf("could not run server: %v", err)
			}
		},
	}

	return cmd
}
