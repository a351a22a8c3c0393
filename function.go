package flowlogs_relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"

	"logicmonitor.com/gcp-flowlogs-relay/config"
	"logicmonitor.com/gcp-flowlogs-relay/flow_logs"
	"logicmonitor.com/gcp-flowlogs-relay/lm_client"
	"logicmonitor.com/gcp-flowlogs-relay/logger"
)

var (
	relay     *Relay
	relayOnce sync.Once
	appLogger = logger.NewLogger("flowlogs-relay")
)

func init() {
	functions.CloudEvent("HandleFlowLogEvent", HandleFlowLogEvent)
}

// logSender is the slice of lm_client.Client the relay depends on.
type logSender interface {
	SendToIngestAPI(ctx context.Context, payloads []map[string]any) (bool, error)
	SendToWebhook(ctx context.Context, payload map[string]any) (bool, error)
}

// Relay forwards decoded flow log events to LogicMonitor in the configured
// transport mode.
type Relay struct {
	cfg    *config.Config
	sender logSender
	log    logger.Logger
}

func NewRelay(cfg *config.Config, sender logSender) *Relay {
	return &Relay{cfg: cfg, sender: sender, log: appLogger}
}

// HandleFlowLogEvent is the registered CloudEvent entry point. Configuration
// and the HTTP client are resolved once on the first invocation and reused
// for the lifetime of the process; invalid configuration is fatal.
func HandleFlowLogEvent(ctx context.Context, e event.Event) error {
	relayOnce.Do(func() {
		var secrets config.SecretSource
		if source := config.NewSecretManagerSource(ctx); source != nil {
			secrets = source
		}
		cfg, err := config.Load(ctx, secrets)
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Invalid configuration: %v", err))
		}
		relay = NewRelay(cfg, lm_client.NewClient(cfg))
	})
	return relay.Handle(ctx, e)
}

// Handle relays a single event. The returned error doubles as the redelivery
// signal: only a dispatch failure at the transport level comes back non-nil.
// Malformed messages are logged and acknowledged, and so is any unexpected
// failure, so a poison message cannot loop forever.
func (r *Relay) Handle(ctx context.Context, e event.Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error(fmt.Sprintf("Unexpected panic processing flow log, acknowledging event: %v", rec))
			err = nil
		}
	}()

	entry, perr := flow_logs.ParsePubSubMessage(e.Data())
	var record *flow_logs.FlowRecord
	if perr == nil {
		record, perr = entry.FlowRecord()
	}
	if perr != nil {
		var malformed *flow_logs.MalformedMessageError
		if errors.As(perr, &malformed) {
			r.log.Warn(fmt.Sprintf("Skipping malformed message: %v", perr))
			return nil
		}
		r.log.Error(fmt.Sprintf("Unexpected error decoding event, acknowledging: %v", perr))
		return nil
	}

	resourceID := flow_logs.ExtractResourceID(record)
	metadata := flow_logs.ExtractMetadata(record)

	var (
		accepted bool
		sendErr  error
		endpoint string
	)
	if r.cfg.UseWebhook {
		endpoint = "webhook"
		accepted, sendErr = r.sender.SendToWebhook(ctx, flow_logs.WebhookPayload(record, entry))
	} else {
		endpoint = "ingest_api"
		payload := flow_logs.IngestAPIPayload(record, resourceID, metadata)
		accepted, sendErr = r.sender.SendToIngestAPI(ctx, []map[string]any{payload})
	}
	if sendErr != nil {
		r.log.Error(fmt.Sprintf("LM endpoint request failed, will retry: %v", sendErr))
		return sendErr
	}

	r.log.Info(fmt.Sprintf("Processed flow log: %s -> %s, bytes=%s, endpoint=%s, success=%t",
		stringOr(metadata[flow_logs.SrcIPKey]),
		stringOr(metadata[flow_logs.DestIPKey]),
		stringOr(metadata[flow_logs.BytesSentKey]),
		endpoint, accepted))
	return nil
}

func stringOr(value any) string {
	if value == nil {
		return "?"
	}
	return fmt.Sprintf("%v", value)
}
