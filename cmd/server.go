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
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blnkfinance/bulkdelete/api"
	"github.com/blnkfinance/bulkdelete/config"
	"github.com/blnkfinance/bulkdelete/internal/metrics"
	trace "github.com/blnkfinance/bulkdelete/internal/traces"
	"github.com/caddyserver/certmagic"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

/*
newTLSServer builds an HTTPS server with certificates managed by CertMagic.
If no domain is specified, the certificate is issued for localhost.
*/
func newTLSServer(r http.Handler, conf config.ServerConfig) (*http.Server, error) {
	certmagic.DefaultACME.Agreed = true
	certmagic.DefaultACME.Email = conf.Email
	cfg := certmagic.NewDefault()
	cfg.Storage = &certmagic.FileStorage{Path: "certmagic"}

	domains := []string{conf.Domain}
	if conf.Domain == "" {
		log.Println("No domain specified, defaulting to localhost")
		domains = []string{"localhost"}
	}

	if err := cfg.ManageSync(context.Background(), domains); err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:      ":" + conf.Port,
		Handler:   r,
		TLSConfig: cfg.TLSConfig(),
	}, nil
}

func initializeTracing(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	shutdown, err := trace.SetupOTelSDK(ctx, serviceName)
	if err != nil {
		return nil, fmt.Errorf("error setting up OTel SDK: %v", err)
	}
	return shutdown, nil
}

func initializeObservability(ctx context.Context, cfg *config.Configuration) (func(context.Context) error, error) {
	metrics.Register()
	if !cfg.EnableTelemetry {
		return func(context.Context) error { return nil }, nil
	}
	return initializeTracing(ctx, cfg.ProjectName)
}

// startServer serves until SIGINT or SIGTERM, then waits for accepted async batches.
func startServer(a *api.Api, router *gin.Engine, cfg config.ServerConfig) error {
	var server *http.Server
	if cfg.SSL {
		s, err := newTLSServer(router, cfg)
		if err != nil {
			return err
		}
		server = s
	} else {
		server = &http.Server{Addr: ":" + cfg.Port, Handler: router}
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.SSL {
			log.Printf("Starting HTTPS server on %s\n", cfg.Port)
			err = server.ListenAndServeTLS("", "")
		} else {
			log.Printf("Starting server on http://localhost:%s", cfg.Port)
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	a.Wait()
	return nil
}

/*
serverCommands returns the Cobra command that starts the HTTP endpoint the
host runtime delivers snap-in events to.
*/
func serverCommands(b *bulkDeleteInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start bulk delete server",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			defer b.close()

			cfg, err := config.Fetch()
			if err != nil {
				log.Fatal(err)
			}

			shutdown, err := initializeObservability(ctx, cfg)
			if err != nil {
				log.Fatal(err)
			}
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Printf("Error during shutdown: %v", err)
				}
			}()

			a := api.NewAPI(b.service)
			if a == nil {
				log.Fatal("error creating api")
			}
			if err := startServer(a, a.Router(), cfg.Server); err != nil {
				log.Fatal(err)
			}
		},
	}

	return cmd
}
