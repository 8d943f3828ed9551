package integrity

import (
	"strconv"

	"github.com/samber/lo"

	"github.com/jhoicas/Inalterable-api/internal/application/dto"
	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
)

// ReportToResponse convierte el reporte al JSON estable del API y de la CLI.
func ReportToResponse(r chain.Report) dto.IntegrityReportResponse {
	out := dto.IntegrityReportResponse{
		Status:      string(r.Status),
		CompanyID:   r.CompanyID,
		CheckedAt:   r.CheckedAt,
		RecordCount: r.RecordCount,
	}
	if len(r.Versions) > 0 {
		out.Versions = lo.MapEntries(r.Versions, func(v, n int) (string, int) {
			return "v" + strconv.Itoa(v), n
		})
	}
	switch r.Status {
	case chain.StatusVerified:
		out.FirstName, out.FirstDate, out.FirstHash = r.FirstName, r.FirstDate, r.FirstHash
		out.LastName, out.LastDate, out.LastHash = r.LastName, r.LastDate, r.LastHash
	case chain.StatusCorrupted:
		out.FirstBadName = r.FirstBadName
		out.FirstBadID = r.FirstBadID
		out.FirstBadSequence = r.FirstBadSeq
	}
	return out
}
