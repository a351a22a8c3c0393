package flow_logs

import (
	"fmt"
	"strconv"
)

// ExtractResourceID picks the device a flow is attributed to. Source wins
// over destination when both carry a VM name: source-attributed traffic is
// primary. Returns nil for deviceless logs (e.g. external-to-external).
func ExtractResourceID(record *FlowRecord) ResourceID {
	if record.SrcInstance != nil && record.SrcInstance.VMName != "" {
		return ResourceID{HostnameResourceKey: record.SrcInstance.VMName}
	}
	if record.DestInstance != nil && record.DestInstance.VMName != "" {
		return ResourceID{HostnameResourceKey: record.DestInstance.VMName}
	}
	return nil
}

// ExtractMetadata flattens the enrichment fields the ingest API understands
// into one flat key-value set. Absent fields are omitted entirely, never
// emitted as null or empty. Only the source-side instance and VPC blocks feed
// metadata, mirroring the resource-id priority.
func ExtractMetadata(record *FlowRecord) map[string]any {
	metadata := make(map[string]any)

	if conn := record.Connection; conn != nil {
		if conn.SrcIP != "" {
			metadata[SrcIPKey] = conn.SrcIP
		}
		if conn.DestIP != "" {
			metadata[DestIPKey] = conn.DestIP
		}
		if conn.SrcPort != nil {
			metadata[SrcPortKey] = *conn.SrcPort
		}
		if conn.DestPort != nil {
			metadata[DestPortKey] = *conn.DestPort
		}
		if conn.Protocol != nil {
			metadata[ProtocolKey] = *conn.Protocol
		}
	}

	if record.BytesSent != "" {
		metadata[BytesSentKey] = record.BytesSent
	}
	if record.PacketsSent != "" {
		metadata[PacketsSentKey] = record.PacketsSent
	}
	if record.Reporter != "" {
		metadata[ReporterKey] = record.Reporter
	}

	if inst := record.SrcInstance; inst != nil {
		if inst.VMName != "" {
			metadata[VMNameKey] = inst.VMName
		}
		if inst.ProjectID != "" {
			metadata[ProjectIDKey] = inst.ProjectID
		}
	}

	if vpc := record.SrcVPC; vpc != nil {
		if vpc.VPCName != "" {
			metadata[VPCNameKey] = vpc.VPCName
		}
		if vpc.SubnetworkName != "" {
			metadata[SubnetNameKey] = vpc.SubnetworkName
		}
	}

	return metadata
}

// Summary renders the fixed-format line downstream searches key on. Missing
// fields become "?" so positions never shift.
func Summary(record *FlowRecord) string {
	srcIP, destIP := missingField, missingField
	srcPort, destPort, protocol := missingField, missingField, missingField
	bytesSent := missingField

	if conn := record.Connection; conn != nil {
		if conn.SrcIP != "" {
			srcIP = conn.SrcIP
		}
		if conn.DestIP != "" {
			destIP = conn.DestIP
		}
		if conn.SrcPort != nil {
			srcPort = strconv.FormatInt(*conn.SrcPort, 10)
		}
		if conn.DestPort != nil {
			destPort = strconv.FormatInt(*conn.DestPort, 10)
		}
		if conn.Protocol != nil {
			protocol = strconv.FormatInt(*conn.Protocol, 10)
		}
	}
	if record.BytesSent != "" {
		bytesSent = record.BytesSent
	}

	return fmt.Sprintf("VPC Flow: %s:%s -> %s:%s proto=%s bytes=%s",
		srcIP, srcPort, destIP, destPort, protocol, bytesSent)
}

// IngestAPIPayload shapes one element of the JSON array the ingest API
// expects: msg, the optional device mapping, and the metadata merged at the
// top level. The mapping key is omitted entirely for deviceless logs.
func IngestAPIPayload(record *FlowRecord, resourceID ResourceID, metadata map[string]any) map[string]any {
	payload := map[string]any{MsgKey: Summary(record)}
	if resourceID != nil {
		payload[ResourceIDKey] = resourceID
	}
	for key, value := range metadata {
		payload[key] = value
	}
	return payload
}

// WebhookPayload shapes the single denormalized object for the webhook
// endpoint: a summary, convenience top-level copies of the common fields, and
// the original sub-objects re-attached verbatim. The duplication is
// intentional, serving both direct field access and JSON path extraction in
// the Webhook LogSource.
func WebhookPayload(record *FlowRecord, entry *LogEntry) map[string]any {
	payload := map[string]any{MessageKey: Summary(record)}

	if entry != nil && entry.Timestamp != "" {
		payload[TimestampKey] = entry.Timestamp
	}

	if conn := record.Connection; conn != nil {
		if conn.SrcIP != "" {
			payload[SrcIPKey] = conn.SrcIP
		}
		if conn.DestIP != "" {
			payload[DestIPKey] = conn.DestIP
		}
		if conn.SrcPort != nil {
			payload[SrcPortKey] = *conn.SrcPort
		}
		if conn.DestPort != nil {
			payload[DestPortKey] = *conn.DestPort
		}
		if conn.Protocol != nil {
			payload[ProtocolKey] = *conn.Protocol
		}
	}

	if record.BytesSent != "" {
		payload[BytesSentKey] = record.BytesSent
	}
	if record.PacketsSent != "" {
		payload[PacketsSentKey] = record.PacketsSent
	}
	if record.Reporter != "" {
		payload[ReporterKey] = record.Reporter
	}
	if record.StartTime != "" {
		payload[StartTimeKey] = record.StartTime
	}
	if record.EndTime != "" {
		payload[EndTimeKey] = record.EndTime
	}
	if record.RTTMsec != nil {
		payload[RTTMsecKey] = *record.RTTMsec
	}

	for _, key := range webhookNestedKeys {
		if block, ok := record.blocks[key]; ok {
			payload[key] = block
		}
	}

	return payload
}
