package domain

import (
	"strings"
	"time"
)

type ReportStatus string

const (
	StatusContacted  ReportStatus = "Contacted"
	StatusInterested ReportStatus = "Interested"
	StatusFollowUp   ReportStatus = "Follow-up"
	StatusClosedWon  ReportStatus = "Closed Won"
	StatusClosedLost ReportStatus = "Closed Lost"

	// StatusOther is only valid in requests. The stored status is the
	// custom label the marketer typed.
	StatusOther ReportStatus = "Other"
)

var StandardStatuses = []ReportStatus{
	StatusContacted,
	StatusInterested,
	StatusFollowUp,
	StatusClosedWon,
	StatusClosedLost,
}

func (s ReportStatus) IsStandard() bool {
	for _, std := range StandardStatuses {
		if s == std {
			return true
		}
	}
	return false
}

type SyncState string

const (
	SyncStateLocal  SyncState = "local"
	SyncStateSynced SyncState = "synced"
)

const (
	MaxImages = 5

	// ServerIDPrefix marks local IDs synthesized for records first seen on
	// the server. The suffix is the server's report ID.
	ServerIDPrefix = "server_"

	DateLayout = "2006-01-02"
)

type Report struct {
	ID        string  `json:"id"`
	ServerID  *string `json:"serverId"`
	ProductID string  `json:"productId"`

	ClientName      string `json:"clientName"`
	ClientAddress   string `json:"clientAddress,omitempty"`
	Town            string `json:"town,omitempty"`
	LocalGovernment string `json:"localGovernment,omitempty"`
	State           string `json:"state,omitempty"`
	Community       string `json:"community,omitempty"`
	NearestLandmark string `json:"nearestLandmark,omitempty"`
	Latitude        string `json:"latitude,omitempty"`
	Longitude       string `json:"longitude,omitempty"`
	ContactPerson   string `json:"contactPerson,omitempty"`
	ContactPhone    string `json:"contactPhone,omitempty"`
	VisitDate       string `json:"visitDate"`
	ServiceType     string `json:"serviceType,omitempty"`

	Status ReportStatus `json:"status"`
	Notes  string       `json:"notes"`
	Images []string     `json:"images,omitempty"`

	SyncState SyncState `json:"syncState,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Report) HasServerID() bool {
	return r.ServerID != nil && *r.ServerID != ""
}

// RemoteID returns the identifier to use against the remote service: the
// recorded server ID, or the one embedded in a synthesized local ID.
func (r *Report) RemoteID() (string, bool) {
	if r.HasServerID() {
		return *r.ServerID, true
	}
	if id, ok := strings.CutPrefix(r.ID, ServerIDPrefix); ok && id != "" {
		return id, true
	}
	return "", false
}

func (r *Report) IsServerSynthesized() bool {
	return strings.HasPrefix(r.ID, ServerIDPrefix)
}

// MarkSynced records the server identity on the report.
func (r *Report) MarkSynced(serverID string) {
	id := serverID
	r.ServerID = &id
	r.SyncState = SyncStateSynced
}

func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	if r.ServerID != nil {
		id := *r.ServerID
		c.ServerID = &id
	}
	if r.Images != nil {
		c.Images = append([]string(nil), r.Images...)
	}
	return &c
}

type CreateReportRequest struct {
	ClientName      string       `json:"clientName" validate:"required" label:"Client Name"`
	ContactPerson   string       `json:"contactPerson" validate:"required" label:"Contact Person"`
	ContactPhone    string       `json:"contactPhone" validate:"required,phone" label:"Contact Phone"`
	VisitDate       string       `json:"visitDate" validate:"required,datetime=2006-01-02" label:"Visit Date"`
	Status          ReportStatus `json:"status" validate:"omitempty,reportstatus" label:"Status"`
	CustomStatus    string       `json:"customStatus" validate:"required_if=Status Other" label:"Custom Status"`
	State           string       `json:"state" validate:"required" label:"State"`
	LocalGovernment string       `json:"localGovernment" validate:"required" label:"Local Government Area"`
	ClientAddress   string       `json:"clientAddress"`
	Town            string       `json:"town"`
	Community       string       `json:"community"`
	NearestLandmark string       `json:"nearestLandmark"`
	Latitude        string       `json:"latitude" validate:"omitempty,lat" label:"Latitude"`
	Longitude       string       `json:"longitude" validate:"omitempty,lng" label:"Longitude"`
	ServiceType     string       `json:"serviceType"`
	Notes           string       `json:"notes"`
	Images          []string     `json:"images" validate:"max=5" label:"Images"`
}

// ResolvedStatus is the status to store: the custom label for "Other",
// Contacted when nothing was chosen.
func (req *CreateReportRequest) ResolvedStatus() ReportStatus {
	switch {
	case req.Status == StatusOther:
		return ReportStatus(strings.TrimSpace(req.CustomStatus))
	case req.Status == "":
		return StatusContacted
	default:
		return req.Status
	}
}

// UpdateReportRequest carries only the fields being changed.
type UpdateReportRequest struct {
	ClientName      *string       `json:"clientName" validate:"omitempty,min=1" label:"Client Name"`
	ClientAddress   *string       `json:"clientAddress"`
	Town            *string       `json:"town"`
	LocalGovernment *string       `json:"localGovernment"`
	State           *string       `json:"state"`
	Community       *string       `json:"community"`
	NearestLandmark *string       `json:"nearestLandmark"`
	Latitude        *string       `json:"latitude" validate:"omitempty,lat" label:"Latitude"`
	Longitude       *string       `json:"longitude" validate:"omitempty,lng" label:"Longitude"`
	ContactPerson   *string       `json:"contactPerson"`
	ContactPhone    *string       `json:"contactPhone" validate:"omitempty,phone" label:"Contact Phone"`
	VisitDate       *string       `json:"visitDate" validate:"omitempty,datetime=2006-01-02" label:"Visit Date"`
	ServiceType     *string       `json:"serviceType"`
	Status          *ReportStatus `json:"status" validate:"omitempty,min=1" label:"Status"`
	Notes           *string       `json:"notes"`
	Images          []string      `json:"images" validate:"omitempty,max=5" label:"Images"`
}

// Apply copies the set fields onto r. It does not touch timestamps.
func (u *UpdateReportRequest) Apply(r *Report) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&r.ClientName, u.ClientName)
	set(&r.ClientAddress, u.ClientAddress)
	set(&r.Town, u.Town)
	set(&r.LocalGovernment, u.LocalGovernment)
	set(&r.State, u.State)
	set(&r.Community, u.Community)
	set(&r.NearestLandmark, u.NearestLandmark)
	set(&r.Latitude, u.Latitude)
	set(&r.Longitude, u.Longitude)
	set(&r.ContactPerson, u.ContactPerson)
	set(&r.ContactPhone, u.ContactPhone)
	set(&r.VisitDate, u.VisitDate)
	set(&r.ServiceType, u.ServiceType)
	set(&r.Notes, u.Notes)
	if u.Status != nil {
		r.Status = ReportStatus(strings.TrimSpace(string(*u.Status)))
	}
	if u.Images != nil {
		r.Images = append([]string(nil), u.Images...)
	}
}

type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

type ReportFilter struct {
	Status ReportStatus
	Query  string
	Sort   SortOrder
}

// ReportResult is what a lifecycle operation hands back to the UI. Synced
// distinguishes "synced" from "saved locally, will sync later".
type ReportResult struct {
	Report       *Report `json:"report,omitempty"`
	Synced       bool    `json:"synced"`
	RemoteError  string  `json:"remoteError,omitempty"`
	AuthRequired bool    `json:"authRequired,omitempty"`
}

type MergeStats struct {
	Matched  int `json:"matched"`
	Linked   int `json:"linked"`
	Added    int `json:"added"`
	Unsynced int `json:"unsynced"`
	Dropped  int `json:"dropped"`
}

// SyncResult always carries the reports the UI should show: the merged
// sequence on success, the unchanged local one on failure.
type SyncResult struct {
	Reports      []*Report  `json:"reports"`
	Synced       bool       `json:"synced"`
	Error        string     `json:"error,omitempty"`
	AuthRequired bool       `json:"authRequired,omitempty"`
	Stats        MergeStats `json:"stats"`
	SyncedAt     time.Time  `json:"syncedAt"`
}
