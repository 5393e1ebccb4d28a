package service

import (
	"strings"
	"time"

	"fieldsync/internal/domain"
)

// Reconcile merges the server's records for one product into the local
// sequence. It does not mutate its inputs and never fails.
//
// Remote-derived records come first, in server order, followed by local-only
// records in their original order. Local records that carry a server
// identity the server no longer lists are dropped.
func Reconcile(local []*domain.Report, remote []domain.RemoteReport, productID string, now time.Time) ([]*domain.Report, domain.MergeStats) {
	var stats domain.MergeStats
	now = now.UTC()

	byRemoteID := make(map[string]int, len(local))
	byLocalID := make(map[string]int, len(local))
	claimed := make([]bool, len(local))
	dropped := make([]bool, len(local))
	for i, r := range local {
		if r == nil {
			dropped[i] = true
			continue
		}
		id, ok := remoteIdentity(r)
		if !ok {
			if _, dup := byLocalID[r.ID]; !dup {
				byLocalID[r.ID] = i
			}
			continue
		}
		if _, dup := byRemoteID[id]; dup {
			dropped[i] = true
			stats.Dropped++
			continue
		}
		byRemoteID[id] = i
	}

	merged := make([]*domain.Report, 0, len(remote)+len(local))
	seen := make(map[string]bool, len(remote))

	for _, rr := range remote {
		id := strings.TrimSpace(rr.ReportID.String())
		if id == "" || seen[id] {
			continue
		}
		if pid := rr.ProductID.String(); productID != "" && pid != "" && pid != productID {
			continue
		}
		seen[id] = true
		rr.ReportID = domain.RemoteID(id)

		idx, ok := byRemoteID[id]
		if ok {
			stats.Matched++
		} else if idx, ok = byLocalID[id]; ok && !claimed[idx] {
			stats.Linked++
		} else if idx = heuristicMatch(local, claimed, dropped, rr); idx >= 0 {
			ok = true
			stats.Linked++
		} else {
			ok = false
		}

		if !ok {
			merged = append(merged, domain.FromRemote(rr, productID, now))
			stats.Added++
			continue
		}

		claimed[idx] = true
		m := local[idx].Clone()
		if m.ProductID == "" {
			m.ProductID = productID
		}
		if domain.OverlayRemote(m, rr) {
			m.UpdatedAt = domain.ParseTimestamp(rr.UpdatedAt, now)
		}
		m.CreatedAt = domain.ParseTimestamp(rr.CreatedAt, m.CreatedAt)
		merged = append(merged, m)
	}

	for i, r := range local {
		if claimed[i] || dropped[i] {
			continue
		}
		if _, hasRemote := remoteIdentity(r); hasRemote {
			stats.Dropped++
			continue
		}
		merged = append(merged, r.Clone())
		stats.Unsynced++
	}

	return uniqueByLocalID(merged), stats
}

// remoteIdentity is the server id a local record is known by. A serverId
// equal to the record's own local id was never confirmed by the server and
// does not count.
func remoteIdentity(r *domain.Report) (string, bool) {
	id, ok := r.RemoteID()
	if !ok || id == r.ID {
		return "", false
	}
	return id, true
}

// heuristicMatch finds the first unclaimed local record without a server
// identity whose name, phone and visit date equal the remote record's.
func heuristicMatch(local []*domain.Report, claimed, dropped []bool, rr domain.RemoteReport) int {
	key := rr.MatchKey()
	for i, r := range local {
		if claimed[i] || dropped[i] {
			continue
		}
		if _, hasRemote := remoteIdentity(r); hasRemote {
			continue
		}
		if r.MatchKey() == key {
			return i
		}
	}
	return -1
}

func uniqueByLocalID(reports []*domain.Report) []*domain.Report {
	seen := make(map[string]bool, len(reports))
	out := reports[:0]
	for _, r := range reports {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}
