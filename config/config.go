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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5001"

	// MaxPageLimit is the largest page a driver processes per invocation.
	MaxPageLimit = 100

	MinResumeDelaySec = 5
	MaxResumeDelaySec = 20

	ModePlatform = "platform"
	ModeLocal    = "local"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"BULKDELETE_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"BULKDELETE_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"BULKDELETE_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"BULKDELETE_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"BULKDELETE_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"BULKDELETE_SERVER_PORT"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"BULKDELETE_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"BULKDELETE_REDIS_SKIP_TLS_VERIFY"`
}

// PlatformConfig holds the fallback API endpoint and token used when an inbound
// event does not carry its own (resume tasks delivered by the local worker).
type PlatformConfig struct {
	Endpoint          string  `json:"endpoint" envconfig:"BULKDELETE_PLATFORM_ENDPOINT"`
	Token             string  `json:"token" envconfig:"BULKDELETE_PLATFORM_TOKEN"`
	TimeoutSec        int     `json:"timeout_sec" envconfig:"BULKDELETE_PLATFORM_TIMEOUT_SEC"`
	RequestsPerSecond float64 `json:"requests_per_second" envconfig:"BULKDELETE_PLATFORM_RPS"`
}

type RuntimeConfig struct {
	Mode                 string `json:"mode" envconfig:"BULKDELETE_RUNTIME_MODE"`
	PageLimit            int    `json:"page_limit" envconfig:"BULKDELETE_RUNTIME_PAGE_LIMIT"`
	Concurrency          int    `json:"concurrency" envconfig:"BULKDELETE_RUNTIME_CONCURRENCY"`
	EventType            string `json:"event_type" envconfig:"BULKDELETE_RUNTIME_EVENT_TYPE"`
	ResumeQueue          string `json:"resume_queue" envconfig:"BULKDELETE_RUNTIME_RESUME_QUEUE"`
	SelectionResumeDelay int    `json:"selection_resume_delay_sec" envconfig:"BULKDELETE_RUNTIME_SELECTION_RESUME_DELAY"`
	BatchResumeDelay     int    `json:"batch_resume_delay_sec" envconfig:"BULKDELETE_RUNTIME_BATCH_RESUME_DELAY"`
	AccountResumeDelay   int    `json:"account_resume_delay_sec" envconfig:"BULKDELETE_RUNTIME_ACCOUNT_RESUME_DELAY"`
	TagCacheTTLSec       int    `json:"tag_cache_ttl_sec" envconfig:"BULKDELETE_RUNTIME_TAG_CACHE_TTL"`
	SessionLockSec       int    `json:"session_lock_sec" envconfig:"BULKDELETE_RUNTIME_SESSION_LOCK_SEC"`
	MonitoringPort       string `json:"monitoring_port" envconfig:"BULKDELETE_RUNTIME_MONITORING_PORT"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"BULKDELETE_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"BULKDELETE_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"BULKDELETE_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url" envconfig:"BULKDELETE_SLACK_WEBHOOK_URL"`
}

type Notification struct {
	Slack SlackWebhook `json:"slack"`
}

type Configuration struct {
	ProjectName     string          `json:"project_name" envconfig:"BULKDELETE_PROJECT_NAME"`
	EnableTelemetry bool            `json:"enable_telemetry" envconfig:"BULKDELETE_ENABLE_TELEMETRY"`
	Server          ServerConfig    `json:"server"`
	Redis           RedisConfig     `json:"redis"`
	Platform        PlatformConfig  `json:"platform"`
	Runtime         RuntimeConfig   `json:"runtime"`
	Notification    Notification    `json:"notification"`
	RateLimit       RateLimitConfig `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("bulkdelete", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called bulkdelete.json with your config")
	}
	return c, nil
}

func clampDelay(name string, value, fallback int) int {
	if value == 0 {
		return fallback
	}
	if value < MinResumeDelaySec {
		log.Printf("Warning: %s below %ds. Using %ds.", name, MinResumeDelaySec, MinResumeDelaySec)
		return MinResumeDelaySec
	}
	if value > MaxResumeDelaySec {
		log.Printf("Warning: %s above %ds. Using %ds.", name, MaxResumeDelaySec, MaxResumeDelaySec)
		return MaxResumeDelaySec
	}
	return value
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Bulk Delete Snap-in"
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.Platform.Endpoint = strings.TrimRight(strings.TrimSpace(cnf.Platform.Endpoint), "/")
	cnf.Runtime.Mode = strings.ToLower(strings.TrimSpace(cnf.Runtime.Mode))

	if cnf.Runtime.Mode == "" {
		cnf.Runtime.Mode = ModePlatform
	}
	if cnf.Runtime.Mode != ModePlatform && cnf.Runtime.Mode != ModeLocal {
		return errors.New("runtime mode must be either platform or local")
	}

	if cnf.Runtime.Mode == ModeLocal && cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's required in local mode.")
		return errors.New("redis DNS is required in local mode")
	}

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Platform.TimeoutSec <= 0 {
		cnf.Platform.TimeoutSec = 30
	}

	if cnf.Runtime.PageLimit <= 0 || cnf.Runtime.PageLimit > MaxPageLimit {
		if cnf.Runtime.PageLimit > MaxPageLimit {
			log.Printf("Warning: page limit %d exceeds %d. Using %d.", cnf.Runtime.PageLimit, MaxPageLimit, MaxPageLimit)
		}
		cnf.Runtime.PageLimit = MaxPageLimit
	}
	if cnf.Runtime.Concurrency <= 0 {
		cnf.Runtime.Concurrency = cnf.Runtime.PageLimit
	}
	if cnf.Runtime.EventType == "" {
		cnf.Runtime.EventType = "scheduled_issue_creation"
	}
	if cnf.Runtime.ResumeQueue == "" {
		cnf.Runtime.ResumeQueue = "bulk_delete_resume"
	}
	if cnf.Runtime.MonitoringPort == "" {
		cnf.Runtime.MonitoringPort = "5004"
	}
	if cnf.Runtime.TagCacheTTLSec <= 0 {
		cnf.Runtime.TagCacheTTLSec = 300
	}
	if cnf.Runtime.SessionLockSec <= 0 {
		cnf.Runtime.SessionLockSec = 120
	}

	cnf.Runtime.SelectionResumeDelay = clampDelay("selection resume delay", cnf.Runtime.SelectionResumeDelay, 20)
	cnf.Runtime.BatchResumeDelay = clampDelay("batch resume delay", cnf.Runtime.BatchResumeDelay, 5)
	cnf.Runtime.AccountResumeDelay = clampDelay("account resume delay", cnf.Runtime.AccountResumeDelay, 20)

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// Defaults returns a configuration with every default applied, for tests and embedding.
func Defaults() *Configuration {
	cnf := &Configuration{}
	_ = cnf.validateAndAddDefaults()
	return cnf
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
