package types

import "time"

// Export is the snapshot document written to object storage.
type Export struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Settings    map[string]string `json:"settings"`
	Users       []User            `json:"users"`
	Entries     []Entry           `json:"entries"`
	Progress    Progress          `json:"progress"`
}

// ExportResult describes where an export was written.
type ExportResult struct {
	Key     string `json:"key"`
	Bucket  string `json:"bucket"`
	Entries int    `json:"entries"`
}
