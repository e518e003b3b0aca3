package internaldefs

import (
	"github.com/halcyon-dev/authtrail"
)

// CounterDef binds one engine metric to its exported name and help text.
type CounterDef struct {
	ID   authtrail.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: authtrail.MetricProfileSynced, Name: "authtrail_profile_synced_total", Help: "Successful application-user syncs."},
	{ID: authtrail.MetricProfileSyncFailed, Name: "authtrail_profile_sync_failed_total", Help: "Update triggers whose sync failed."},
	{ID: authtrail.MetricAuditRecorded, Name: "authtrail_audit_recorded_total", Help: "Audit entries written or routed through the mutation runner."},
	{ID: authtrail.MetricAuditWriteFailed, Name: "authtrail_audit_write_failed_total", Help: "Failed audit writes."},
	{ID: authtrail.MetricAccountsDeleted, Name: "authtrail_accounts_deleted_total", Help: "Completed account deletion runs."},
	{ID: authtrail.MetricCounterMutations, Name: "authtrail_counter_mutations_total", Help: "Authenticated counter mutations."},
}

// MirrorDroppedName is the exported name of the audit mirror drop
// counter, which lives on the dispatcher rather than in the metric set.
const MirrorDroppedName = "authtrail_audit_mirror_dropped_total"

// MirrorDroppedHelp documents the mirror drop counter.
const MirrorDroppedHelp = "Mirrored audit documents dropped due to dispatcher backpressure."
