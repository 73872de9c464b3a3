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

package notification

import (
	"context"
	"time"

	"github.com/blnkfinance/bulkdelete/config"
	"github.com/blnkfinance/bulkdelete/internal/request"
	"github.com/sirupsen/logrus"
)

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

func slackPayload(projectName string, err error, at time.Time) slackMessage {
	return slackMessage{Blocks: []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: "Error From " + projectName + " 🐞", Emoji: true}},
		{Type: "section", Fields: []slackText{{Type: "mrkdwn", Text: "*Error:*\n" + err.Error()}}},
		{Type: "section", Fields: []slackText{{Type: "mrkdwn", Text: "*Time:*\n" + at.Format(time.RFC822)}}},
	}}
}

// SlackNotification posts the error to the configured Slack webhook.
func SlackNotification(err error) {
	conf, cErr := config.Fetch()
	if cErr != nil {
		logrus.Error(cErr)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, rErr := request.NewJSONRequest(ctx, conf.Notification.Slack.WebhookUrl, "", slackPayload(conf.ProjectName, err, time.Now()))
	if rErr != nil {
		logrus.Error(rErr)
		return
	}

	if _, rErr = request.Call(nil, req, nil); rErr != nil {
		logrus.WithError(rErr).Warn("slack notification failed")
	}
}

// NotifyError logs the error and forwards it to Slack when a webhook is configured.
// It does not block the caller.
func NotifyError(systemError error) {
	go func(systemError error) {
		logrus.Error(systemError)

		conf, err := config.Fetch()
		if err != nil {
			return
		}

		if conf.Notification.Slack.WebhookUrl != "" {
			SlackNotification(systemError)
		}
	}(systemError)
}
