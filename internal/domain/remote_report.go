package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RemoteID accepts the server's report ID as either a JSON string or number.
type RemoteID string

func (id *RemoteID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RemoteID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = RemoteID(n.String())
	return nil
}

func (id RemoteID) String() string { return string(id) }

// RemoteReport is the server's view of a report. The server has no notion
// of status or notes.
type RemoteReport struct {
	ReportID        RemoteID `json:"reportId"`
	MarketerID      RemoteID `json:"marketerId,omitempty"`
	ProductID       RemoteID `json:"productId,omitempty"`
	SchoolName      string   `json:"schoolName"`
	SchoolAddress   string   `json:"schoolAddress,omitempty"`
	Town            string   `json:"town,omitempty"`
	LocalGovernment string   `json:"localGovernment,omitempty"`
	State           string   `json:"state,omitempty"`
	Community       string   `json:"community,omitempty"`
	NearestBusStop  string   `json:"nearestBusStop,omitempty"`
	Benchmark       string   `json:"benchmark,omitempty"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	ContactPerson   string   `json:"contactPerson,omitempty"`
	ContactPhone    string   `json:"contactPhone,omitempty"`
	ReportDate      string   `json:"reportDate"`
	ImageURL        *string  `json:"imageUrl"`
	CreatedAt       string   `json:"createdAt,omitempty"`
	UpdatedAt       string   `json:"updatedAt,omitempty"`
}

// ReportPayload is the body of POST /api/Report and PUT /api/Report/{id}.
type ReportPayload struct {
	ReportID        string   `json:"reportId,omitempty"`
	MarketerID      string   `json:"marketerId,omitempty"`
	ProductID       string   `json:"productId,omitempty"`
	SchoolName      string   `json:"schoolName"`
	SchoolAddress   string   `json:"schoolAddress"`
	Town            string   `json:"town"`
	LocalGovernment string   `json:"localGovernment"`
	State           string   `json:"state"`
	Community       string   `json:"community"`
	NearestBusStop  string   `json:"nearestBusStop"`
	Benchmark       string   `json:"benchmark"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	ContactPerson   string   `json:"contactPerson"`
	ContactPhone    string   `json:"contactPhone"`
	ReportDate      string   `json:"reportDate"`
	ImageURL        *string  `json:"imageUrl"`
}

// MatchKey is the heuristic identity used when no shared ID exists.
type MatchKey struct {
	Name  string
	Phone string
	Date  string
}

func (r *Report) MatchKey() MatchKey {
	return MatchKey{
		Name:  strings.TrimSpace(r.ClientName),
		Phone: strings.TrimSpace(r.ContactPhone),
		Date:  DateOnly(r.VisitDate),
	}
}

func (r *RemoteReport) MatchKey() MatchKey {
	return MatchKey{
		Name:  strings.TrimSpace(r.SchoolName),
		Phone: strings.TrimSpace(r.ContactPhone),
		Date:  DateOnly(r.ReportDate),
	}
}

// FromRemote maps a server record to a fresh local report. Every optional
// field has a defined default: empty strings, Contacted status, no notes, and
// createdAt/updatedAt falling back to now.
func FromRemote(rr RemoteReport, productID string, now time.Time) *Report {
	id := rr.ReportID.String()
	report := &Report{
		ID:        ServerIDPrefix + id,
		ProductID: productID,
		Status:    StatusContacted,
		Notes:     "",
		CreatedAt: ParseTimestamp(rr.CreatedAt, now),
	}
	report.UpdatedAt = ParseTimestamp(rr.UpdatedAt, report.CreatedAt)
	applyRemoteFields(report, rr)
	if rr.ImageURL != nil && strings.TrimSpace(*rr.ImageURL) != "" {
		report.Images = []string{strings.TrimSpace(*rr.ImageURL)}
	}
	report.MarkSynced(id)
	return report
}

// OverlayRemote copies the server's descriptive fields onto r, keeping the
// local-only ones. It reports whether any descriptive field changed.
func OverlayRemote(r *Report, rr RemoteReport) bool {
	before := descriptiveFields(r)
	applyRemoteFields(r, rr)
	if len(r.Images) == 0 && rr.ImageURL != nil && strings.TrimSpace(*rr.ImageURL) != "" {
		r.Images = []string{strings.TrimSpace(*rr.ImageURL)}
	}
	changed := before != descriptiveFields(r)
	r.MarkSynced(rr.ReportID.String())
	return changed
}

type descriptive struct {
	clientName, clientAddress, town, localGovernment, state, community string
	nearestLandmark, latitude, longitude, contactPerson, contactPhone  string
	visitDate, serviceType                                             string
	images                                                             int
}

func descriptiveFields(r *Report) descriptive {
	return descriptive{
		clientName:      r.ClientName,
		clientAddress:   r.ClientAddress,
		town:            r.Town,
		localGovernment: r.LocalGovernment,
		state:           r.State,
		community:       r.Community,
		nearestLandmark: r.NearestLandmark,
		latitude:        r.Latitude,
		longitude:       r.Longitude,
		contactPerson:   r.ContactPerson,
		contactPhone:    r.ContactPhone,
		visitDate:       r.VisitDate,
		serviceType:     r.ServiceType,
		images:          len(r.Images),
	}
}

// applyRemoteFields overwrites a local field only when the server has a value.
func applyRemoteFields(r *Report, rr RemoteReport) {
	take := func(dst *string, src string) {
		if v := strings.TrimSpace(src); v != "" {
			*dst = v
		}
	}
	take(&r.ClientName, rr.SchoolName)
	take(&r.ClientAddress, rr.SchoolAddress)
	take(&r.Town, rr.Town)
	take(&r.LocalGovernment, rr.LocalGovernment)
	take(&r.State, rr.State)
	take(&r.Community, rr.Community)
	take(&r.NearestLandmark, rr.NearestBusStop)
	take(&r.ServiceType, rr.Benchmark)
	take(&r.ContactPerson, rr.ContactPerson)
	take(&r.ContactPhone, rr.ContactPhone)
	take(&r.VisitDate, DateOnly(rr.ReportDate))
	if rr.Latitude != nil {
		r.Latitude = decimal.NewFromFloat(*rr.Latitude).String()
	}
	if rr.Longitude != nil {
		r.Longitude = decimal.NewFromFloat(*rr.Longitude).String()
	}
}

// ToPayload maps a local report to the server's request shape.
func ToPayload(r *Report, marketerID string) ReportPayload {
	p := ReportPayload{
		MarketerID:      marketerID,
		ProductID:       r.ProductID,
		SchoolName:      r.ClientName,
		SchoolAddress:   r.ClientAddress,
		Town:            r.Town,
		LocalGovernment: r.LocalGovernment,
		State:           r.State,
		Community:       r.Community,
		NearestBusStop:  r.NearestLandmark,
		Benchmark:       r.ServiceType,
		Latitude:        coordinate(r.Latitude),
		Longitude:       coordinate(r.Longitude),
		ContactPerson:   r.ContactPerson,
		ContactPhone:    r.ContactPhone,
		ReportDate:      r.VisitDate,
	}
	if len(r.Images) > 0 {
		img := r.Images[0]
		p.ImageURL = &img
	}
	return p
}

func coordinate(s string) *float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// DateOnly reduces a date or timestamp string to YYYY-MM-DD. Unparseable
// input is returned trimmed.
func DateOnly(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= len(DateLayout) {
		if _, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			return s[:len(DateLayout)]
		}
	}
	return s
}

// ParseTimestamp accepts RFC 3339 with or without a zone. The server sends
// zone-less timestamps, which are read as UTC.
func ParseTimestamp(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return fallback
}
