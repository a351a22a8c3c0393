package flow_logs

import (
	"encoding/base64"
	"encoding/json"
)

// pubSubEnvelope mirrors the Eventarc delivery shape:
// {"message": {"data": "<base64 LogEntry JSON>"}, "subscription": "..."}.
// Pointer fields keep "missing" distinguishable from "empty".
type pubSubEnvelope struct {
	Message *struct {
		Data *string `json:"data"`
	} `json:"message"`
}

// ParsePubSubMessage extracts and decodes the Cloud Logging LogEntry from the
// data of a Pub/Sub CloudEvent. Every failure is a MalformedMessageError:
// these events will never parse and must be acknowledged, unlike dispatch
// failures whose retry policy differs.
func ParsePubSubMessage(data []byte) (*LogEntry, error) {
	if len(data) == 0 {
		return nil, &MalformedMessageError{Message: "event missing 'data' field"}
	}

	var envelope pubSubEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &MalformedMessageError{Message: "event data is not valid JSON", Cause: err}
	}
	if envelope.Message == nil {
		return nil, &MalformedMessageError{Message: "event missing 'data.message' field"}
	}
	if envelope.Message.Data == nil || *envelope.Message.Data == "" {
		return nil, &MalformedMessageError{Message: "Pub/Sub message missing 'data' field"}
	}

	decoded, err := base64.StdEncoding.DecodeString(*envelope.Message.Data)
	if err != nil {
		return nil, &MalformedMessageError{Message: "failed to base64 decode Pub/Sub message data", Cause: err}
	}

	var entry LogEntry
	if err := json.Unmarshal(decoded, &entry); err != nil {
		return nil, &MalformedMessageError{Message: "decoded data is not valid JSON", Cause: err}
	}
	return &entry, nil
}

// FlowRecord extracts the VPC flow payload from the log entry. A missing or
// empty jsonPayload carries no routable signal and is rejected the same way
// as a record that never decodes.
func (e *LogEntry) FlowRecord() (*FlowRecord, error) {
	if len(e.JSONPayload) == 0 || string(e.JSONPayload) == "null" {
		return nil, &MalformedMessageError{Message: "log entry missing 'jsonPayload' field"}
	}

	var record FlowRecord
	if err := json.Unmarshal(e.JSONPayload, &record); err != nil {
		return nil, &MalformedMessageError{Message: "'jsonPayload' is not a flow record", Cause: err}
	}
	if err := json.Unmarshal(e.JSONPayload, &record.blocks); err != nil {
		return nil, &MalformedMessageError{Message: "'jsonPayload' is not a JSON object", Cause: err}
	}
	if len(record.blocks) == 0 {
		return nil, &MalformedMessageError{Message: "log entry has empty 'jsonPayload'"}
	}

	record.raw = e.JSONPayload
	return &record, nil
}
