package messaging

import (
	"fmt"
	"strings"

	"github.com/sdwijaya/herald/internal/pkg/config"
)

// NewFromConfig builds a Messaging client for the configured driver.
//
// Supported drivers are kafka, nats and nsq.
func NewFromConfig(cfg config.Config) (Messaging, error) {
	driver := strings.ToLower(cfg.GetString("messaging.driver"))

	switch driver {
	case "kafka":
		return NewKafka(KafkaConfig{
			Brokers:  cfg.GetArray("messaging.kafka.brokers"),
			ClientID: cfg.GetString("messaging.kafka.client_id"),
		})
	case "nats":
		return NewNATS(NATSConfig{
			URL:  cfg.GetString("messaging.nats.url"),
			Name: cfg.GetString("messaging.nats.name"),
		})
	case "nsq":
		return NewNSQ(NSQConfig{
			NSQDAddress:       cfg.GetString("messaging.nsq.nsqd_address"),
			LookupdAddresses:  cfg.GetArray("messaging.nsq.lookupd_addresses"),
			MaxRequeueAttempt: cfg.GetInt("messaging.nsq.max_requeue_attempts"),
		})
	default:
		return nil, fmt.Errorf("messaging: unsupported driver %q", driver)
	}
}
