package chain

import "time"

// Verify recorre los registros de una empresa en orden de secuencia y recalcula cada hash.
//
// Para cada registro prueba las versiones desde la 1 hasta la máxima de su clase; la primera
// que coincida lo valida y el cursor de hash avanza. Si ninguna coincide, o si la secuencia no es
// la siguiente esperada, reporta CORRUPTED en ese registro y se detiene. Nunca modifica registros.
func (r *Registry) Verify(companyID string, records []SealedRecord, dateField string, now time.Time) Report {
	report := Report{CompanyID: companyID, CheckedAt: now}
	if len(records) == 0 {
		report.Status = StatusNoRecord
		return report
	}

	prevHash := ""
	versions := make(map[int]int)
	for i, sr := range records {
		if sr.Seal.Sequence != int64(i)+1 {
			return corrupted(report, sr)
		}
		version, ok := r.MatchVersion(prevHash, sr)
		if !ok {
			return corrupted(report, sr)
		}
		versions[version]++
		prevHash = sr.Seal.Hash
	}

	first, last := records[0], records[len(records)-1]
	report.Status = StatusVerified
	report.FirstName = first.Record.DisplayName()
	report.FirstDate = displayDate(first.Record, dateField)
	report.FirstHash = first.Seal.Hash
	report.LastName = last.Record.DisplayName()
	report.LastDate = displayDate(last.Record, dateField)
	report.LastHash = last.Seal.Hash
	report.RecordCount = len(records)
	report.Versions = versions
	return report
}

// MatchVersion busca la primera versión v en 1..V_max(clase) tal que
// H_v(prevHash, canonical_v(registro)) coincide con el hash guardado.
// Un error de canonicalización en una versión cuenta como no coincidencia.
func (r *Registry) MatchVersion(prevHash string, sr SealedRecord) (int, bool) {
	if sr.Record == nil {
		return 0, false
	}
	maxVersion, err := r.CurrentVersion(sr.Record.ClassTag())
	if err != nil {
		return 0, false
	}
	for version := 1; version <= maxVersion; version++ {
		computed, err := r.HashRecord(prevHash, sr.Record, version)
		if err != nil {
			continue
		}
		if computed == sr.Seal.Hash {
			return version, true
		}
	}
	return 0, false
}

func corrupted(report Report, sr SealedRecord) Report {
	report.Status = StatusCorrupted
	report.FirstBadSeq = sr.Seal.Sequence
	if sr.Record != nil {
		report.FirstBadName = sr.Record.DisplayName()
		report.FirstBadID = sr.Record.RecordID()
	}
	return report
}

func displayDate(rec HashableRecord, dateField string) string {
	if dateField == "" {
		return ""
	}
	v, ok := rec.Field(dateField)
	if !ok {
		return ""
	}
	t, ok := v.Time()
	if !ok {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

// NotChecked es el reporte de una corrida en seco: no se calcula nada.
func NotChecked(companyID string, now time.Time) Report {
	return Report{Status: StatusNotChecked, CompanyID: companyID, CheckedAt: now}
}
