package flow_logs

import "encoding/json"

// LogEntry is the Cloud Logging record decoded from the Pub/Sub message body.
// JSONPayload keeps the raw bytes; the flow record is extracted on demand.
type LogEntry struct {
	InsertID    string          `json:"insertId,omitempty"`
	LogName     string          `json:"logName,omitempty"`
	Timestamp   string          `json:"timestamp,omitempty"`
	Severity    string          `json:"severity,omitempty"`
	Resource    json.RawMessage `json:"resource,omitempty"`
	JSONPayload json.RawMessage `json:"jsonPayload,omitempty"`
}

// Connection identifies the 5-tuple of a flow. Ports and protocol are
// pointers so an absent field stays distinguishable from zero.
type Connection struct {
	SrcIP    string `json:"src_ip,omitempty"`
	DestIP   string `json:"dest_ip,omitempty"`
	SrcPort  *int64 `json:"src_port,omitempty"`
	DestPort *int64 `json:"dest_port,omitempty"`
	Protocol *int64 `json:"protocol,omitempty"`
}

// Instance describes the GCE VM on one side of a flow.
type Instance struct {
	ProjectID string `json:"project_id,omitempty"`
	Region    string `json:"region,omitempty"`
	VMName    string `json:"vm_name,omitempty"`
	Zone      string `json:"zone,omitempty"`
}

// VPC describes the network on one side of a flow.
type VPC struct {
	ProjectID      string `json:"project_id,omitempty"`
	SubnetworkName string `json:"subnetwork_name,omitempty"`
	VPCName        string `json:"vpc_name,omitempty"`
}

// FlowRecord is one VPC flow, the jsonPayload of a LogEntry. Traffic counters
// stay decimal strings: Cloud Logging encodes 64-bit counters as strings to
// avoid precision loss, and they are forwarded unchanged.
//
// Only the fields the transformations read are typed. Every sub-object,
// typed or not, is also retained verbatim in blocks so the webhook payload
// can re-attach it byte for byte.
type FlowRecord struct {
	Connection   *Connection `json:"connection,omitempty"`
	BytesSent    string      `json:"bytes_sent,omitempty"`
	PacketsSent  string      `json:"packets_sent,omitempty"`
	Reporter     string      `json:"reporter,omitempty"`
	StartTime    string      `json:"start_time,omitempty"`
	EndTime      string      `json:"end_time,omitempty"`
	RTTMsec      *int64      `json:"rtt_msec,omitempty"`
	SrcInstance  *Instance   `json:"src_instance,omitempty"`
	DestInstance *Instance   `json:"dest_instance,omitempty"`
	SrcVPC       *VPC        `json:"src_vpc,omitempty"`

	raw    json.RawMessage
	blocks map[string]json.RawMessage
}

// Raw returns the flow record exactly as it arrived inside the LogEntry.
func (r *FlowRecord) Raw() json.RawMessage {
	return r.raw
}

// ResourceID maps a flow to a monitored device, e.g.
// {"system.hostname": "web-frontend-01"}. A nil ResourceID means the log is
// deviceless.
type ResourceID map[string]string
