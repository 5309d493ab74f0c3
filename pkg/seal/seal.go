// Package seal builds sealed bid records: encrypt the submitted bytes,
// fingerprint the ciphertext, mint a submitter identity and stamp the seal
// time. Plaintext never leaves this package and is never persisted or logged.
package seal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/procurex/tenderseal/pkg/crypto"
	"github.com/procurex/tenderseal/pkg/ledger"
)

// Sealer produces SealedRecords from raw bid bytes.
type Sealer struct {
	cipher *crypto.Cipher
	log    *slog.Logger
	tracer trace.Tracer
	sealed metric.Int64Counter
}

// NewSealer creates a Sealer around the given cipher.
func NewSealer(c *crypto.Cipher, log *slog.Logger) *Sealer {
	if log == nil {
		log = slog.Default()
	}
	meter := otel.Meter("tenderseal/seal")
	sealed, _ := meter.Int64Counter("tenderseal.seal.operations",
		metric.WithDescription("Completed seal operations, by key material"))

	return &Sealer{
		cipher: c,
		log:    log,
		tracer: otel.Tracer("tenderseal/seal"),
		sealed: sealed,
	}
}

// Seal encrypts raw, fingerprints the ciphertext and assembles the record
// entirely in memory. It does not persist anything: a failure here leaves
// zero footprint, and the append decision belongs to the caller.
//
// The fingerprint is computed over the encrypted payload, so two seals of
// identical plaintext diverge with their IVs. Anyone holding the ciphertext
// can recompute it without the key.
func (s *Sealer) Seal(ctx context.Context, tenderID string, raw []byte) (ledger.SealedRecord, error) {
	keyMaterial := "configured"
	if s.cipher.DevFallback() {
		keyMaterial = "dev-fallback"
	}

	ctx, span := s.tracer.Start(ctx, "seal.Seal", trace.WithAttributes(
		attribute.String("tender.id", tenderID),
		attribute.String("key_material", keyMaterial),
	))
	defer span.End()

	ciphertext, iv, err := s.cipher.Encrypt(raw)
	if err != nil {
		s.log.Error("seal failed", "op", "encrypt", "tenderId", tenderID, "error", err)
		return ledger.SealedRecord{}, err
	}

	record := ledger.SealedRecord{
		TenderID:             tenderID,
		ContentFingerprint:   crypto.DigestStrong(ciphertext),
		CreatedAt:            time.Now().UTC(),
		SubmitterID:          uuid.NewString(),
		Status:               ledger.StatusSealed,
		EncryptedPayload:     ciphertext,
		InitializationVector: iv,
	}

	s.sealed.Add(ctx, 1, metric.WithAttributes(attribute.String("key_material", keyMaterial)))
	s.log.Info("bid sealed",
		"tenderId", tenderID,
		"submitterId", record.SubmitterID,
		"fingerprint", record.ContentFingerprint,
		"key_material", keyMaterial,
	)
	return record, nil
}
