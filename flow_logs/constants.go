package flow_logs

// Flow record field keys (wire names as emitted by VPC Flow Logs, reused for
// metadata keys and webhook payload keys)
const (
	ConnectionKey  = "connection"
	SrcIPKey       = "src_ip"
	DestIPKey      = "dest_ip"
	SrcPortKey     = "src_port"
	DestPortKey    = "dest_port"
	ProtocolKey    = "protocol"
	BytesSentKey   = "bytes_sent"
	PacketsSentKey = "packets_sent"
	ReporterKey    = "reporter"
	StartTimeKey   = "start_time"
	EndTimeKey     = "end_time"
	RTTMsecKey     = "rtt_msec"
	VMNameKey      = "vm_name"
	ProjectIDKey   = "project_id"
	VPCNameKey     = "vpc_name"
	SubnetNameKey  = "subnet_name"
)

// Payload keys specific to the LogicMonitor endpoints
const (
	MsgKey        = "msg"            // ingest API summary field
	MessageKey    = "message"        // webhook summary field
	TimestampKey  = "timestamp"      // webhook copy of the LogEntry timestamp
	ResourceIDKey = "_lm.resourceId" // ingest API device mapping field

	// HostnameResourceKey is the LM resource property a flow is attributed to
	HostnameResourceKey = "system.hostname"
)

// missingField substitutes absent values in the summary line so field
// positions never shift for downstream search
const missingField = "?"

// webhookNestedKeys is the allowlist of sub-objects re-attached verbatim to
// the webhook payload, so the Webhook LogSource can extract any field by JSON
// path even when no flat copy exists.
var webhookNestedKeys = []string{
	"connection",
	"src_instance",
	"dest_instance",
	"src_vpc",
	"dest_vpc",
	"src_gke_details",
	"dest_gke_details",
	"src_location",
	"dest_location",
	"src_google_service",
	"dest_google_service",
}
