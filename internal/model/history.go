package model

import "time"

// AuditRecord is one exported listing written to the deletion history.
type AuditRecord struct {
	ExportedAt   time.Time  `json:"exported_at"`
	ID           string     `json:"id"`
	BatchID      string     `json:"batch_id"`
	User         string     `json:"user"`
	ListingID    string     `json:"listing_id"`
	Title        string     `json:"title"`
	SKU          string     `json:"sku"`
	SupplierName string     `json:"supplier_name"`
	TargetTool   string     `json:"target_tool"`
	ExportMode   ExportMode `json:"export_mode"`
}

// CreditBalance is the scan quota reported by the billing collaborator.
type CreditBalance struct {
	Plan             string `json:"plan"`
	AvailableCredits int    `json:"available_credits"`
	UsedCredits      int    `json:"used_credits"`
}
