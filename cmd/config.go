package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

// redactedConfig hides credentials before the configuration is printed.
func redactedConfig(b *bulkDeleteInstance) ([]byte, error) {
	cfg := *b.cnf
	if cfg.Platform.Token != "" {
		cfg.Platform.Token = "********"
	}
	if cfg.Server.SecretKey != "" {
		cfg.Server.SecretKey = "********"
	}
	return json.MarshalIndent(cfg, "", "    ")
}

func configCommands(b *bulkDeleteInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "config outputs your instances computed configuration",
		Run: func(cmd *cobra.Command, args []string) {
			defer b.close()

			data, err := redactedConfig(b)
			if err != nil {
				log.Fatalf("Error printing config: %v\n", err)
			}

			fmt.Println(string(data))
		},
	}
	return cmd
}
