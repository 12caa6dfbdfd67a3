// Package ingest implements the pipeline orchestrator: the single-threaded
// per-file algorithm that parses raw dump bytes into rows, normalizes and
// classifies each field, deduplicates addresses and credentials against
// storage, and persists a fixed-order event log plus canonical indices.
package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jeleniel/breachcorpus/pkg/adapter"
	"github.com/jeleniel/breachcorpus/pkg/anomaly"
	"github.com/jeleniel/breachcorpus/pkg/collab"
	"github.com/jeleniel/breachcorpus/pkg/detect"
	"github.com/jeleniel/breachcorpus/pkg/hashutil"
	"github.com/jeleniel/breachcorpus/pkg/normalize"
	"github.com/jeleniel/breachcorpus/pkg/rainbow"
	"github.com/jeleniel/breachcorpus/pkg/riskscore"
	"github.com/jeleniel/breachcorpus/pkg/store"
)

// Logger is the subset of internal/obs.Logger the pipeline needs, kept as
// a narrow interface so this package never imports internal/.
type Logger interface {
	Info(event string, fields map[string]interface{})
	Warn(event string, fields map[string]interface{})
	Error(event string, fields map[string]interface{})
}

type noopLogger struct{}

func (noopLogger) Info(string, map[string]interface{})  {}
func (noopLogger) Warn(string, map[string]interface{})  {}
func (noopLogger) Error(string, map[string]interface{}) {}

// Config controls which optional enrichments an ingest run performs.
type Config struct {
	EnableEmbeddings          bool
	EnableHIBP                bool
	VectorSimilarityThreshold float64
	EnableAnomalyDetection    bool
	EmailSubstitutions        normalize.SuffixRules

	// EnableWeakPasswordCheck consults RainbowTable for plaintext
	// credentials and flags already-hashed credentials with a
	// recognizably weak digest shape (unsalted MD5/SHA1/SHA256/SHA512).
	EnableWeakPasswordCheck bool
	RainbowTable            *rainbow.Table

	// EnablePIIDetection runs detect.DetectPII over every normalized
	// field, passing the header column name along where available;
	// detection itself looks only at the value.
	EnablePIIDetection bool

	// EnableRiskScoring computes a composite risk score per row using
	// RiskEngine, folding in the weak-password/weak-hash, breach-count,
	// and PII signals gathered for that row. The anomaly count is passed
	// as zero and the new-credential-since-breach flag as false.
	EnableRiskScoring bool
	RiskEngine        *riskscore.Engine

	// Enricher is an optional post-normalization hook; unexercised by
	// default, matching the original pipeline's enricher hook that
	// reimplementations may expose but need not call.
	Enricher func(row []string) []string
}

// DefaultConfig matches the source pipeline's defaults: embeddings and
// HIBP enabled, 0.85 similarity threshold.
func DefaultConfig() Config {
	return Config{
		EnableEmbeddings:          true,
		EnableHIBP:                true,
		VectorSimilarityThreshold: 0.85,
	}
}

// Pipeline wires an adapter, storage handle, and optional collaborators
// into one ingest run.
type Pipeline struct {
	Adapter      adapter.Adapter
	Store        *store.Store
	Config       Config
	Embedder     collab.Embedder
	BreachLookup collab.BreachLookup
	Logger       Logger
}

// New builds a Pipeline with DefaultConfig and no collaborators.
func New(a adapter.Adapter, s *store.Store) *Pipeline {
	return &Pipeline{Adapter: a, Store: s, Config: DefaultConfig(), Logger: noopLogger{}}
}

// Result summarizes one ingest run for the caller.
type Result struct {
	FileID         string
	RowsProcessed  int
	RowsMalformed  int
	RowsDuplicate  int
	NewAddresses   int
	NewCredentials int
}

// Run executes the full ingest algorithm over data, the raw bytes of one
// file. Adapter parse failures and storage I/O failures abort the run;
// malformed individual rows and collaborator failures are logged and
// swallowed.
func (p *Pipeline) Run(ctx context.Context, data []byte) (*Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	fileMD5 := hashutil.MD5Hex(data)
	fileSHA256 := hashutil.SHA256Hex(data)
	fileID := fileSHA256

	if _, err := p.persistEvent(ctx, "__file_hash__", []string{fileMD5, fileSHA256}, fileID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageIO, err)
	}

	rows, err := p.Adapter.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAdapterParse, err)
	}

	result := &Result{FileID: fileID}
	if len(rows) == 0 {
		return result, nil
	}

	var header []string
	var expectedColumns int
	hasExpectedColumns := false
	if rowHasAlphabeticField(rows[0]) {
		header = rows[0]
		expectedColumns = len(header)
		hasExpectedColumns = true
	}

	seenCombinations := make(map[string]bool)

	for idx, row := range rows {
		if idx == 0 && header != nil {
			continue
		}

		norm := normalize.Row(row)

		if hasExpectedColumns && len(norm) != expectedColumns {
			raw := strings.Join(row, ",")
			if _, err := p.persistEvent(ctx, "__malformed_row__", []string{strconv.Itoa(idx), raw}, fileID); err != nil {
				return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
			}
			result.RowsMalformed++
			continue
		}

		addrHashes, addrPlaintexts, addrCanonical, credHashes, credValues, hasHashedCredentials := extractAddressCredentials(norm, header, p.Config.EmailSubstitutions)

		if hasHashedCredentials && len(credHashes) > 0 && len(addrHashes) == 0 {
			ev := []string{"row_skipped", "cred_count:" + strconv.Itoa(len(credHashes))}
			if _, err := p.persistEvent(ctx, "__hashed_credentials_only__", ev, fileID); err != nil {
				return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
			}
			continue
		}

		now := time.Now().UTC()

		breachCount := 0
		weakPassword := false
		weakHashDetected := false

		if p.Config.EnableWeakPasswordCheck && p.Config.RainbowTable != nil {
			for i, v := range credValues {
				if hashutil.IsCredentialHash(v) {
					if _, weak, _ := hashutil.FingerprintHashShape(v); weak {
						weakHashDetected = true
						if _, err := p.persistEvent(ctx, "__weak_hash__", []string{credHashes[i]}, fileID); err != nil {
							return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
						}
					}
					continue
				}
				if _, ok := p.Config.RainbowTable.GetWeakPasswordForHash(hashutil.SHA256Hex([]byte(strings.ToLower(v)))); ok {
					weakPassword = true
					if _, err := p.persistEvent(ctx, "__weak_password__", []string{credHashes[i]}, fileID); err != nil {
						return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
					}
				}
			}
		}

		var rowPII []detect.PiiType
		if p.Config.EnablePIIDetection {
			for i, v := range norm {
				colName := ""
				if header != nil && i < len(header) {
					colName = header[i]
				}
				if types := detect.DetectPII(v, colName); len(types) > 0 {
					rowPII = append(rowPII, types...)
					names := make([]string, len(types))
					for j, t := range types {
						names[j] = string(t)
					}
					if _, err := p.persistEvent(ctx, "__pii_detected__", []string{colName, strings.Join(names, ",")}, fileID); err != nil {
						return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
					}
				}
			}
		}

		for i, addrHash := range addrHashes {
			plaintext := addrPlaintexts[i]
			canonicalForm := addrCanonical[i]

			addrSeen, err := p.Store.AddressExists(ctx, addrHash)
			if err != nil {
				return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
			}

			if !addrSeen {
				if _, err := p.persistEvent(ctx, "__new_address__", []string{addrHash}, fileID); err != nil {
					return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
				}
				if _, err := p.persistEvent(ctx, "__address_hash__", []string{addrHash}, fileID); err != nil {
					return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
				}

				if _, err := p.Store.UpsertCanonicalAddress(ctx, store.CanonicalAddress{
					CanonicalHash:  addrHash,
					AddressText:    plaintext,
					NormalizedForm: canonicalForm,
					CreatedAt:      now,
				}); err != nil {
					return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
				}
				result.NewAddresses++

				if p.Config.EnableEmbeddings && p.Embedder != nil && canonicalForm != "" {
					p.enrichWithEmbedding(ctx, addrHash, canonicalForm, logger)
				}
				if p.Config.EnableHIBP && p.BreachLookup != nil && canonicalForm != "" {
					breachCount += p.enrichWithBreaches(ctx, addrHash, canonicalForm, logger)
				}
			}

			for _, credHash := range credHashes {
				contains, err := p.Store.ContainsHash(ctx, credHash)
				if err != nil {
					return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
				}
				if !contains {
					if _, err := p.persistEvent(ctx, "__credential_hash__", []string{credHash}, fileID); err != nil {
						return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
					}
				}

				created, err := p.Store.RecordAddressCredential(ctx, addrHash, credHash, now)
				if err != nil {
					return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
				}
				if created {
					if addrSeen {
						if _, err := p.persistEvent(ctx, "__known_address_new_credential__", []string{addrHash, credHash}, fileID); err != nil {
							return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
						}
					}
					if _, err := p.persistEvent(ctx, "__addr_cred__", []string{addrHash, credHash}, fileID); err != nil {
						return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
					}
					result.NewCredentials++
				}
			}
		}

		if p.Config.EnableRiskScoring && p.Config.RiskEngine != nil {
			subject := first(addrHashes)
			if subject == "" {
				subject = first(credHashes)
			}
			if subject != "" {
				score := p.Config.RiskEngine.Score(weakPassword, weakHashDetected, breachCount, false, rowPII, 0)
				p.persistAnomaly(ctx, fileID, subject, &anomaly.Score{
					AnomalyType: anomaly.Type("composite_risk_score"),
					RiskScore:   score.Value,
					Explanation: score.Explanation,
				}, now, logger)
			}
		}

		enriched := append([]string{}, norm...)
		if p.Config.Enricher != nil {
			enriched = p.Config.Enricher(enriched)
		}
		rowJoined := strings.Join(norm, "|")
		rowHash := hashutil.SHA256Hex([]byte(rowJoined))

		for _, h := range addrHashes {
			enriched = append(enriched, "addr_sha256:"+h)
		}
		for _, h := range credHashes {
			enriched = append(enriched, "cred_sha256:"+h)
		}

		duplicate, err := p.Store.ContainsHash(ctx, rowHash)
		if err != nil {
			return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
		}
		if duplicate {
			dupRow := []string{"__duplicate_row__", rowHash, "file_id:" + fileID}
			if _, err := p.persistEventWithHashes(ctx, "__duplicate_row__", dupRow, fileID, "", "", rowHash); err != nil {
				return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
			}
			result.RowsDuplicate++
		} else {
			enriched = append(enriched, "row_hash:"+rowHash, "file_id:"+fileID)
			if _, err := p.persistEventWithHashes(ctx, "__data_row__", enriched, fileID, first(addrHashes), first(credHashes), rowHash); err != nil {
				return result, fmt.Errorf("%w: %v", ErrStorageIO, err)
			}
		}
		result.RowsProcessed++

		if p.Config.EnableAnomalyDetection {
			p.detectAnomalies(ctx, fileID, norm, seenCombinations, logger)
		}
	}

	return result, nil
}

func (p *Pipeline) enrichWithEmbedding(ctx context.Context, addrHash, plaintextEmail string, logger Logger) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	vec32, err := p.Embedder.Embed(cctx, plaintextEmail)
	if err != nil {
		logger.Warn("embedding_collaborator_failed", map[string]interface{}{"address_hash": addrHash, "error": err.Error()})
		return
	}

	vec := make([]float64, len(vec32))
	for i, v := range vec32 {
		vec[i] = float64(v)
	}

	if err := p.Store.UpdateAddressEmbedding(ctx, addrHash, vec); err != nil {
		logger.Warn("update_address_embedding_failed", map[string]interface{}{"address_hash": addrHash, "error": err.Error()})
		return
	}

	if len(vec) > 0 {
		if _, err := p.Store.FindSimilarAddresses(ctx, vec, 5, p.Config.VectorSimilarityThreshold); err != nil {
			logger.Warn("find_similar_addresses_failed", map[string]interface{}{"address_hash": addrHash, "error": err.Error()})
		}
	}
}

func (p *Pipeline) enrichWithBreaches(ctx context.Context, addrHash, plaintextEmail string, logger Logger) int {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	breaches, err := p.BreachLookup.Lookup(cctx, plaintextEmail)
	if err != nil {
		logger.Warn("breach_collaborator_failed", map[string]interface{}{"address_hash": addrHash, "error": err.Error()})
		return 0
	}

	now := time.Now().UTC()
	for _, b := range breaches {
		rec := store.AddressBreach{
			CanonicalHash: addrHash,
			BreachName:    b.BreachName,
			Title:         b.Title,
			Domain:        b.Domain,
			Date:          b.Date,
			PwnCount:      b.PwnCount,
			Description:   b.Description,
			Flags:         b.Flags,
			CreatedAt:     now,
		}
		if _, err := p.Store.UpsertAddressBreach(ctx, rec); err != nil {
			logger.Warn("insert_address_breach_failed", map[string]interface{}{"address_hash": addrHash, "breach": b.BreachName, "error": err.Error()})
		}
	}
	return len(breaches)
}

func (p *Pipeline) detectAnomalies(ctx context.Context, fileID string, norm []string, seenCombinations map[string]bool, logger Logger) {
	now := time.Now().UTC()

	if len(norm) > 0 {
		combination := strings.Join(norm, "|")
		if score := anomaly.DetectUnseenCombination(norm, seenCombinations); score != nil {
			p.persistAnomaly(ctx, fileID, hashutil.SHA256Hex([]byte(combination)), score, now, logger)
		}
		seenCombinations[combination] = true
	}

	for _, v := range norm {
		if score := anomaly.DetectUnusualPasswordFormat(v); score != nil {
			p.persistAnomaly(ctx, fileID, hashutil.SHA256Hex([]byte(v)), score, now, logger)
		}
	}
}

func (p *Pipeline) persistAnomaly(ctx context.Context, fileID, subjectHash string, score *anomaly.Score, now time.Time, logger Logger) {
	rec := store.AnomalyScore{
		FileID:      fileID,
		SubjectHash: subjectHash,
		AnomalyType: string(score.AnomalyType),
		RiskScore:   float64(score.RiskScore),
		CreatedAt:   now,
	}
	if _, err := p.Store.UpsertAnomalyScore(ctx, rec); err != nil {
		logger.Warn("upsert_anomaly_score_failed", map[string]interface{}{"file_id": fileID, "error": err.Error()})
	}
}

func (p *Pipeline) persistEvent(ctx context.Context, eventType string, fields []string, fileID string) (int64, error) {
	row := append([]string{eventType}, fields...)
	row = append(row, "file_id:"+fileID)
	return p.persistEventWithHashes(ctx, eventType, row, fileID, "", "", "")
}

func (p *Pipeline) persistEventWithHashes(ctx context.Context, eventType string, row []string, fileID, addressHash, credentialHash, rowHash string) (int64, error) {
	fieldsJSON := encodeFields(row)
	return p.Store.InsertNormalizedRow(ctx, store.NormalizedRow{
		EventType:      eventType,
		AddressHash:    addressHash,
		CredentialHash: credentialHash,
		RowHash:        rowHash,
		FileID:         fileID,
		FieldsJSON:     fieldsJSON,
		CreatedAt:      time.Now().UTC(),
	})
}

func rowHasAlphabeticField(row []string) bool {
	for _, cell := range row {
		for _, r := range cell {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				return true
			}
		}
	}
	return false
}

// extractAddressCredentials splits a normalized row into address and
// credential cells. addrHashes/addrCanonical are derived from the
// email-canonicalized form of each address cell (normalize.Email, per
// rules); addrPlaintexts carries the original first-seen field-normalized
// value for address_text, which is never itself hashed or deduped against.
func extractAddressCredentials(norm []string, header []string, rules normalize.SuffixRules) (addrHashes, addrPlaintexts, addrCanonical, credHashes, credValues []string, hasHashedCredentials bool) {
	addAddress := func(val string) {
		canonical := normalize.Email(val, rules)
		addrHashes = append(addrHashes, hashutil.SHA256Hex([]byte(canonical)))
		addrPlaintexts = append(addrPlaintexts, val)
		addrCanonical = append(addrCanonical, canonical)
	}

	if header != nil {
		for i, colName := range header {
			if i >= len(norm) {
				continue
			}
			lname := strings.ToLower(colName)
			val := norm[i]

			if containsAny(lname, "mail", "email", "addr", "address") {
				addAddress(val)
			}
			if containsAny(lname, "pass", "pwd", "password", "credential", "secret") {
				if hashutil.IsCredentialHash(val) {
					hasHashedCredentials = true
				}
				credHashes = append(credHashes, hashutil.SHA256Hex([]byte(val)))
				credValues = append(credValues, val)
			}
		}
		return
	}

	for _, val := range norm {
		if strings.Contains(val, "@") {
			addAddress(val)
		}
		if strings.Contains(val, ":") || strings.Contains(strings.ToLower(val), "pass") {
			if hashutil.IsCredentialHash(val) {
				hasHashedCredentials = true
			}
			credHashes = append(credHashes, hashutil.SHA256Hex([]byte(val)))
			credValues = append(credValues, val)
		}
	}
	return
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

func encodeFields(row []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range row {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(f))
	}
	b.WriteByte(']')
	return b.String()
}
