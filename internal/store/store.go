// Package store reads and writes the CSV artifacts the commands share:
// the per-CA domain exports, the id lookup table, and the combined
// report that joins both CAs with nameserver data.
package store

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/certops/dcvkit/internal/errors"
)

// File names written under the data directory.
const (
	LookupFile   = "domain_id_lookup.csv"
	CombinedFile = "combined_domains.csv"
)

// Record is one row of a per-CA domain export.
type Record struct {
	ID         int
	Name       string
	Active     bool
	Method     string
	Expiration string
}

// LookupRow maps a domain name to its id at one CA.
type LookupRow struct {
	ID     int
	Domain string
	CA     string
}

// CombinedRecord is one row of the combined report. Value holds the
// record name or verification value to publish; Token holds the value
// it points at (the CNAME target or TXT token).
type CombinedRecord struct {
	CA         string
	Record
	NSProvider string
	Value      string
	Token      string
}

// Store reads and writes CSV artifacts under one data directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// DomainsFile returns the per-CA export path, e.g. digicert_domains.csv.
func (s *Store) DomainsFile(ca string) string {
	return filepath.Join(s.dir, strings.ToLower(ca)+"_domains.csv")
}

// WriteDomains writes a per-CA domain export.
func (s *Store) WriteDomains(ca string, records []Record) error {
	rows := [][]string{{"id", "name", "active", "dcv_method", "Expiration"}}
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.ID), r.Name, strconv.FormatBool(r.Active), r.Method, r.Expiration,
		})
	}
	return s.writeCSV(s.DomainsFile(ca), rows)
}

// ReadDomains reads a per-CA domain export.
func (s *Store) ReadDomains(ca string) ([]Record, error) {
	rows, err := s.readCSV(s.DomainsFile(ca))
	if err != nil {
		return nil, err
	}

	var records []Record
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 5 {
			return nil, errors.Wrap(errors.ErrCodeStore,
				fmt.Sprintf("%s row %d has %d columns, want 5", s.DomainsFile(ca), i+1, len(row)), nil)
		}
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore,
				fmt.Sprintf("%s row %d has a bad id", s.DomainsFile(ca), i+1), err)
		}
		active, _ := strconv.ParseBool(row[2])
		records = append(records, Record{
			ID: id, Name: row[1], Active: active, Method: row[3], Expiration: row[4],
		})
	}
	return records, nil
}

// WriteLookup writes the domain-to-id lookup table.
func (s *Store) WriteLookup(rows []LookupRow) error {
	out := [][]string{{"id", "domain", "CA"}}
	for _, r := range rows {
		out = append(out, []string{strconv.Itoa(r.ID), r.Domain, r.CA})
	}
	return s.writeCSV(filepath.Join(s.dir, LookupFile), out)
}

// ReadLookup reads the domain-to-id lookup table.
func (s *Store) ReadLookup() ([]LookupRow, error) {
	rows, err := s.readCSV(filepath.Join(s.dir, LookupFile))
	if err != nil {
		return nil, err
	}

	var out []LookupRow
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 3 {
			return nil, errors.Wrap(errors.ErrCodeStore,
				fmt.Sprintf("%s row %d has %d columns, want 3", LookupFile, i+1, len(row)), nil)
		}
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore,
				fmt.Sprintf("%s row %d has a bad id", LookupFile, i+1), err)
		}
		out = append(out, LookupRow{ID: id, Domain: row[1], CA: row[2]})
	}
	return out, nil
}

// FindDomain returns every lookup row matching a domain name. Most
// domains appear once, but a domain registered at both CAs yields two
// rows.
func (s *Store) FindDomain(domain string) ([]LookupRow, error) {
	rows, err := s.ReadLookup()
	if err != nil {
		return nil, err
	}

	var matches []LookupRow
	for _, r := range rows {
		if strings.EqualFold(r.Domain, domain) {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return nil, errors.NotFound(domain)
	}
	return matches, nil
}

// WriteCombined writes the combined report.
func (s *Store) WriteCombined(records []CombinedRecord) error {
	rows := [][]string{{"provider", "id", "name", "active", "dcv_method", "Expiration", "ns_provider", "Value", "token"}}
	for _, r := range records {
		rows = append(rows, []string{
			r.CA, strconv.Itoa(r.ID), r.Name, strconv.FormatBool(r.Active),
			r.Method, r.Expiration, r.NSProvider, r.Value, r.Token,
		})
	}
	return s.writeCSV(filepath.Join(s.dir, CombinedFile), rows)
}

// ReadCombined reads the combined report.
func (s *Store) ReadCombined() ([]CombinedRecord, error) {
	rows, err := s.readCSV(filepath.Join(s.dir, CombinedFile))
	if err != nil {
		return nil, err
	}

	var out []CombinedRecord
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 7 {
			return nil, errors.Wrap(errors.ErrCodeStore,
				fmt.Sprintf("%s row %d has %d columns, want at least 7", CombinedFile, i+1, len(row)), nil)
		}
		id, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore,
				fmt.Sprintf("%s row %d has a bad id", CombinedFile, i+1), err)
		}
		active, _ := strconv.ParseBool(row[3])
		rec := CombinedRecord{
			CA: row[0],
			Record: Record{
				ID: id, Name: row[2], Active: active, Method: row[4], Expiration: row[5],
			},
			NSProvider: row[6],
		}
		if len(row) > 7 {
			rec.Value = row[7]
		}
		if len(row) > 8 {
			rec.Token = row[8]
		}
		out = append(out, rec)
	}
	return out, nil
}

// RemoveArtifacts deletes the per-CA exports, the lookup table and the
// combined report. Missing files are fine; sync calls this before
// refetching so a failed run never leaves a stale mix.
func (s *Store) RemoveArtifacts(cas ...string) error {
	paths := []string{
		filepath.Join(s.dir, LookupFile),
		filepath.Join(s.dir, CombinedFile),
	}
	for _, ca := range cas {
		paths = append(paths, s.DomainsFile(ca))
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

// ReadDomainList reads a plain text file of domain names, one per line.
// Blank lines and lines starting with # are skipped.
func ReadDomainList(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeStore, path, errors.ErrInputMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open domain list: %w", err)
	}
	defer f.Close()

	var domains []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, strings.ToLower(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read domain list: %w", err)
	}
	return domains, nil
}

func (s *Store) writeCSV(path string, rows [][]string) error {
	// Write via a temp file so a crash mid-write never truncates the
	// previous export.
	tmp, err := os.CreateTemp(s.dir, ".csv-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func (s *Store) readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeStore, path, errors.ErrInputMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, fmt.Sprintf("failed to parse %s", path), err)
	}
	return rows, nil
}
