package codesandbox

import (
	"sync/atomic"
	"time"

	watchman "github.com/renderedtext/go-watchman"
	"github.com/semaphoreci/clidriver/pkg/conversation"
	log "github.com/sirupsen/logrus"
)

var metricsEnabled atomic.Bool

// ConfigureMetrics sends conversation metrics to a statsd server.
// Nothing is sent if host is empty.
func ConfigureMetrics(host, port, prefix string) error {
	if host == "" {
		return nil
	}

	err := watchman.Configure(host, port, prefix)
	if err != nil {
		return err
	}

	metricsEnabled.Store(true)
	return nil
}

func submitResult(result conversation.Result, startedAt time.Time) {
	if !metricsEnabled.Load() {
		return
	}

	tags := []string{result.Name, string(result.State)}
	if result.Reason != conversation.ReasonNone {
		tags = append(tags, string(result.Reason))
	}

	err := watchman.SubmitWithTags("conversation.finished", tags, 1)
	if err != nil {
		log.Errorf("Error submiting metrics: %v", err)
	}

	duration := int(time.Since(startedAt).Milliseconds())
	err = watchman.SubmitWithTags("conversation.duration", []string{result.Name}, duration)
	if err != nil {
		log.Errorf("Error submiting metrics: %v", err)
	}
}
