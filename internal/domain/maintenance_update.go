package domain

// MaintenanceUpdate is one entry in a maintenance's history: a snapshot of
// the maintenance as it was at one save.
type MaintenanceUpdate struct {
	MaintenanceUpdateID string `json:"maintenanceUpdateID"`
	MaintenanceRecord
}

// NewMaintenanceUpdate snapshots m as the history entry id.
//
// The ID belongs to one save event, not to the maintenance's contents: two
// saves with identical fields are still two entries, while retrying the
// insert of one save with the same id writes it only once.
func NewMaintenanceUpdate(id string, m *Maintenance) MaintenanceUpdate {
	return MaintenanceUpdate{
		MaintenanceUpdateID: id,
		MaintenanceRecord:   m.Record(),
	}
}
