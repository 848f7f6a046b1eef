package model

// ExportMode selects what an export file contains.
type ExportMode string

const (
	// ExportDeleteOnly lists only the listings being removed.
	ExportDeleteOnly ExportMode = "delete"
	// ExportSurvivors re-uploads the remaining inventory for full-state sync tools.
	ExportSurvivors ExportMode = "survivors"
)

// ModeFor maps a group's sync flag to an export mode.
func ModeFor(syncMode bool) ExportMode {
	if syncMode {
		return ExportSurvivors
	}
	return ExportDeleteOnly
}

// GroupConfig is the persisted export configuration of a supplier group.
type GroupConfig struct {
	ExportTool string `json:"export_tool"`
	SyncMode   bool   `json:"sync_mode"`
}

// QueueGroup is the set of queued listings for one supplier.
type QueueGroup struct {
	SupplierName string
	ExportTool   string
	Listings     []Listing
	SyncMode     bool
}

// Mode returns the export mode implied by the group's sync flag.
func (g QueueGroup) Mode() ExportMode {
	return ModeFor(g.SyncMode)
}
