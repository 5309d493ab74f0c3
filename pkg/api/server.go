package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/procurex/tenderseal/pkg/governance"
	"github.com/procurex/tenderseal/pkg/ledger"
	"github.com/procurex/tenderseal/pkg/query"
	"github.com/procurex/tenderseal/pkg/seal"
)

// Version is the API version reported on the root route.
const Version = "1.0"

// maxBidSize caps uploaded bid documents at 32 MiB.
const maxBidSize = 32 << 20

// Server wires the sealed-bid operations to their HTTP routes.
type Server struct {
	sealer   *seal.Sealer
	ledger   ledger.Ledger
	recorder *governance.Recorder
	query    *query.Service
	log      *slog.Logger
}

// NewServer creates the HTTP boundary over the core components.
func NewServer(sealer *seal.Sealer, l ledger.Ledger, recorder *governance.Recorder, q *query.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{sealer: sealer, ledger: l, recorder: recorder, query: q, log: log}
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/", s.handleRoot)
	mux.HandleFunc("POST /api/seal-bid", s.handleSealBid)
	mux.HandleFunc("POST /api/tender-update", s.handleTenderUpdate)
	mux.HandleFunc("GET /api/audit-log", s.handleAuditLog)
	return mux
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/" {
		WriteError(w, r, http.StatusNotFound, "Not Found", "unknown route")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Tenderseal API",
		"version": Version,
	})
}

// sealBidResponse mirrors the external wire contract for sealed bids.
type sealBidResponse struct {
	Success  bool   `json:"success"`
	BidHash  string `json:"bidHash"`
	Message  string `json:"message"`
	BidderID string `json:"bidderId"`
}

func (s *Server) handleSealBid(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBidSize)
	if err := r.ParseMultipartForm(maxBidSize); err != nil {
		WriteError(w, r, http.StatusBadRequest, "Invalid Request", "expected multipart form with file and tender_id")
		return
	}

	tenderID := r.FormValue("tender_id")
	if tenderID == "" {
		WriteError(w, r, http.StatusBadRequest, "Invalid Request", "tender_id is required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "Invalid Request", "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "Invalid Request", "could not read uploaded file")
		return
	}

	record, err := s.sealer.Seal(r.Context(), tenderID, content)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "Seal Failed",
			fmt.Sprintf("seal operation failed for tender %s", tenderID))
		return
	}

	if err := s.ledger.Append(r.Context(), record); err != nil {
		s.log.Error("audit append failed", "op", "sealBid", "tenderId", tenderID, "error", err)
		WriteError(w, r, http.StatusInternalServerError, "Persistence Failure",
			fmt.Sprintf("audit append failed for tender %s", tenderID))
		return
	}

	writeJSON(w, http.StatusOK, sealBidResponse{
		Success:  true,
		BidHash:  record.ContentFingerprint,
		Message:  "Bid sealed successfully with AES-256 encryption",
		BidderID: record.SubmitterID,
	})
}

// tenderUpdateRequest is a fixed-shape decode target: unknown fields on
// ingress are dropped here, never merged into the domain type.
type tenderUpdateRequest struct {
	TenderID      string `json:"tenderId"`
	UpdateContent string `json:"updateContent"`
	UpdatedBy     string `json:"updatedBy"`
}

type tenderUpdateResponse struct {
	Success    bool   `json:"success"`
	UpdateHash string `json:"updateHash"`
	Timestamp  string `json:"timestamp"`
}

func (s *Server) handleTenderUpdate(w http.ResponseWriter, r *http.Request) {
	var req tenderUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if req.TenderID == "" {
		WriteError(w, r, http.StatusBadRequest, "Invalid Request", "tenderId is required")
		return
	}

	update, err := s.recorder.RecordUpdate(r.Context(), req.TenderID, req.UpdateContent, req.UpdatedBy)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "Persistence Failure",
			fmt.Sprintf("update append failed for tender %s", req.TenderID))
		return
	}

	writeJSON(w, http.StatusOK, tenderUpdateResponse{
		Success:    true,
		UpdateHash: update.UpdateHash,
		Timestamp:  update.Timestamp.Format(time.RFC3339Nano),
	})
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	entries, err := s.query.GetAuditTrail(r.Context(), limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "Persistence Failure", "audit log read failed")
		return
	}
	if entries == nil {
		entries = []ledger.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
