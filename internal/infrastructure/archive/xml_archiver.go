// Package archive produce la versión archivable del reporte de integridad: un XML en forma
// canónica (C14N) y su huella SHA-256, para conservarlo junto a los libros.
package archive

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/Inalterable-api/internal/application/integrity"
	"github.com/jhoicas/Inalterable-api/internal/domain/chain"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
)

// Namespace del documento de reporte.
const Namespace = "urn:inalterable:integrity-report:1"

var _ integrity.ReportArchiver = (*XMLArchiver)(nil)

// XMLArchiver implementa integrity.ReportArchiver con etree + c14n.
type XMLArchiver struct{}

// NewXMLArchiver construye el archivador.
func NewXMLArchiver() *XMLArchiver { return &XMLArchiver{} }

// Archive arma el XML del reporte, lo canonicaliza y devuelve los bytes canónicos con su SHA-256 (hex).
func (a *XMLArchiver) Archive(report chain.Report, company *entity.Company) ([]byte, string, error) {
	doc := etree.NewDocument()
	root := doc.CreateElement("IntegrityReport")
	root.CreateAttr("xmlns", Namespace)
	root.CreateAttr("status", string(report.Status))

	c := root.CreateElement("Company")
	c.CreateAttr("id", report.CompanyID)
	if company != nil {
		c.CreateAttr("nit", company.NIT)
		c.SetText(company.Name)
	}
	root.CreateElement("CheckedAt").SetText(report.CheckedAt.UTC().Format(time.RFC3339))
	root.CreateElement("RecordCount").SetText(strconv.Itoa(report.RecordCount))

	if len(report.Versions) > 0 {
		versions := root.CreateElement("Versions")
		keys := make([]int, 0, len(report.Versions))
		for v := range report.Versions {
			keys = append(keys, v)
		}
		sort.Ints(keys)
		for _, v := range keys {
			el := versions.CreateElement("Version")
			el.CreateAttr("number", strconv.Itoa(v))
			el.CreateAttr("records", strconv.Itoa(report.Versions[v]))
		}
	}

	switch report.Status {
	case chain.StatusVerified:
		addRecord(root, "First", report.FirstName, report.FirstDate, report.FirstHash)
		addRecord(root, "Last", report.LastName, report.LastDate, report.LastHash)
	case chain.StatusCorrupted:
		bad := root.CreateElement("FirstCorrupted")
		bad.CreateAttr("id", strconv.FormatInt(report.FirstBadID, 10))
		bad.CreateAttr("sequence", strconv.FormatInt(report.FirstBadSeq, 10))
		bad.CreateElement("Name").SetText(report.FirstBadName)
	}

	raw, err := doc.WriteToBytes()
	if err != nil {
		return nil, "", fmt.Errorf("archive: serializar XML: %w", err)
	}
	canonical, err := canonicalizeXML(raw)
	if err != nil {
		return nil, "", fmt.Errorf("archive: canonicalizar XML: %w", err)
	}
	return canonical, digest(canonical), nil
}

// VerifyDigest canonicaliza de nuevo el documento y compara su SHA-256 con la huella archivada.
func VerifyDigest(doc []byte, expected string) (bool, error) {
	canonical, err := canonicalizeXML(doc)
	if err != nil {
		return false, fmt.Errorf("archive: canonicalizar XML: %w", err)
	}
	return digest(canonical) == expected, nil
}

func addRecord(parent *etree.Element, tag, name, date, hash string) {
	el := parent.CreateElement(tag)
	el.CreateElement("Name").SetText(name)
	if date != "" {
		el.CreateElement("Date").SetText(date)
	}
	el.CreateElement("Hash").SetText(hash)
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
