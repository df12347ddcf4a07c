package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/service"
	"estatehub-backend/internal/utils"

	"github.com/gorilla/mux"
)

// Workflow is the command surface the HTTP layer drives. *engine.Engine
// satisfies it.
type Workflow interface {
	RegisterAccount(ctx context.Context, role domain.Role, name, email string) (*domain.Person, error)
	Me(ctx context.Context) (*domain.Person, *domain.Estate, error)
	CreateEstate(ctx context.Context, name, address string) (*domain.Estate, error)
	CreateUnit(ctx context.Context, estateID, label string, bedroomCount int32, kind string) (*domain.Unit, error)

	RequestAccess(ctx context.Context, estateRef string) (*domain.Person, error)
	ListVacantUnits(ctx context.Context, estateID string) ([]domain.Unit, error)
	ListPendingRequests(ctx context.Context, estateID string) ([]domain.AccessRequest, error)
	ApproveAndAssign(ctx context.Context, tenantID, unitID string) (*domain.Person, *domain.Unit, error)
	DeclineRequest(ctx context.Context, tenantID string) (*domain.Person, error)
	VacateUnit(ctx context.Context, unitID string) (*domain.Unit, *domain.Person, error)
	SetUnitMaintenance(ctx context.Context, unitID string, underMaintenance bool) (*domain.Unit, error)

	SubmitPayment(ctx context.Context, amountCents int64, proof service.Artifact) (*domain.Payment, error)
	DecidePayment(ctx context.Context, paymentID string, decision domain.PaymentDecision) (*domain.Payment, error)
	ListPayments(ctx context.Context, estateID string, status *domain.PaymentStatus) ([]domain.Payment, error)
	OutstandingBalance(ctx context.Context, tenantID string) (int64, error)
	IssueInvoice(ctx context.Context, tenantID string, amountCents int64, description string, dueDate time.Time) (*domain.Invoice, error)
	ListOverdueInvoices(ctx context.Context, asOf time.Time) ([]domain.Invoice, error)

	FileTicket(ctx context.Context, in service.TicketInput, attachments []service.Artifact) (*domain.Ticket, error)
	AdvanceStatus(ctx context.Context, ticketID string, next domain.TicketStatus) (*domain.Ticket, error)
	ListTickets(ctx context.Context, estateID string, status *domain.TicketStatus) ([]domain.Ticket, error)
}

type Handler struct {
	workflow  Workflow
	maxUpload int64
}

func NewHandler(workflow Workflow, maxUpload int64) *Handler {
	return &Handler{workflow: workflow, maxUpload: maxUpload}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// --- accounts ---

type registerRequest struct {
	Role  domain.Role `json:"role"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
}

func (h *Handler) RegisterAccount(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	person, err := h.workflow.RegisterAccount(r.Context(), req.Role, req.Name, req.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, person)
}

type meResponse struct {
	Person *domain.Person `json:"person"`
	Estate *domain.Estate `json:"estate,omitempty"`
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	person, estate, err := h.workflow.Me(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, meResponse{Person: person, Estate: estate})
}

// --- estates & units ---

type createEstateRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (h *Handler) CreateEstate(w http.ResponseWriter, r *http.Request) {
	var req createEstateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	estate, err := h.workflow.CreateEstate(r.Context(), req.Name, req.Address)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, estate)
}

type createUnitRequest struct {
	Label        string `json:"label"`
	BedroomCount int32  `json:"bedroom_count"`
	Kind         string `json:"kind"`
}

func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req createUnitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	unit, err := h.workflow.CreateUnit(r.Context(), mux.Vars(r)["estateId"], req.Label, req.BedroomCount, req.Kind)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, unit)
}

func (h *Handler) ListVacantUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.workflow.ListVacantUnits(r.Context(), mux.Vars(r)["estateId"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, units)
}

type occupancyResponse struct {
	Unit   *domain.Unit   `json:"unit"`
	Person *domain.Person `json:"person"`
}

func (h *Handler) VacateUnit(w http.ResponseWriter, r *http.Request) {
	unit, person, err := h.workflow.VacateUnit(r.Context(), mux.Vars(r)["unitId"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, occupancyResponse{Unit: unit, Person: person})
}

type maintenanceRequest struct {
	UnderMaintenance bool `json:"under_maintenance"`
}

func (h *Handler) SetUnitMaintenance(w http.ResponseWriter, r *http.Request) {
	var req maintenanceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	unit, err := h.workflow.SetUnitMaintenance(r.Context(), mux.Vars(r)["unitId"], req.UnderMaintenance)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, unit)
}

// --- access requests ---

type accessRequest struct {
	// EstateRef is an estate ID or its join code.
	EstateRef string `json:"estate_ref"`
}

func (h *Handler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	var req accessRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	person, err := h.workflow.RequestAccess(r.Context(), req.EstateRef)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, person)
}

func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.workflow.ListPendingRequests(r.Context(), mux.Vars(r)["estateId"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reqs)
}

type approveRequest struct {
	UnitID string `json:"unit_id"`
}

func (h *Handler) ApproveAndAssign(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	person, unit, err := h.workflow.ApproveAndAssign(r.Context(), mux.Vars(r)["tenantId"], req.UnitID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, occupancyResponse{Unit: unit, Person: person})
}

func (h *Handler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	person, err := h.workflow.DeclineRequest(r.Context(), mux.Vars(r)["tenantId"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, person)
}

// --- payments & invoices ---

// SubmitPayment takes a multipart form with amount_cents and a proof file.
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	if err := h.parseMultipart(w, r); err != nil {
		respondError(w, r, err)
		return
	}
	amount, err := strconv.ParseInt(r.FormValue("amount_cents"), 10, 64)
	if err != nil {
		respondError(w, r, domain.ErrInvalidAmount)
		return
	}

	var proof service.Artifact
	if files := r.MultipartForm.File["proof"]; len(files) > 0 {
		proof, err = readArtifact(files[0])
		if err != nil {
			respondError(w, r, err)
			return
		}
	}

	payment, err := h.workflow.SubmitPayment(r.Context(), amount, proof)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, payment)
}

type decisionRequest struct {
	Decision domain.PaymentDecision `json:"decision"`
}

func (h *Handler) DecidePayment(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	payment, err := h.workflow.DecidePayment(r.Context(), mux.Vars(r)["paymentId"], req.Decision)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, payment)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	var status *domain.PaymentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.PaymentStatus(raw)
		if !s.Valid() {
			respondError(w, r, fmt.Errorf("%w: unknown payment status %q", domain.ErrInvalidInput, raw))
			return
		}
		status = &s
	}
	payments, err := h.workflow.ListPayments(r.Context(), mux.Vars(r)["estateId"], status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, payments)
}

type balanceResponse struct {
	TenantID         string `json:"tenant_id"`
	OutstandingCents int64  `json:"outstanding_cents"`
}

func (h *Handler) OutstandingBalance(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]
	cents, err := h.workflow.OutstandingBalance(r.Context(), tenantID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, balanceResponse{TenantID: tenantID, OutstandingCents: cents})
}

type invoiceRequest struct {
	TenantID    string `json:"tenant_id"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"` // YYYY-MM-DD
}

func (h *Handler) IssueInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	due, err := utils.ParseDate(req.DueDate)
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: due_date: %v", domain.ErrInvalidInput, err))
		return
	}
	invoice, err := h.workflow.IssueInvoice(r.Context(), req.TenantID, req.AmountCents, req.Description, due)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, invoice)
}

func (h *Handler) ListOverdueInvoices(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		t, err := utils.ParseDate(raw)
		if err != nil {
			respondError(w, r, fmt.Errorf("%w: as_of: %v", domain.ErrInvalidInput, err))
			return
		}
		asOf = t
	}
	invoices, err := h.workflow.ListOverdueInvoices(r.Context(), asOf)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, invoices)
}

// --- tickets ---

// FileTicket takes a multipart form with category, priority, description and
// any number of attachments files.
func (h *Handler) FileTicket(w http.ResponseWriter, r *http.Request) {
	if err := h.parseMultipart(w, r); err != nil {
		respondError(w, r, err)
		return
	}
	in := service.TicketInput{
		Category:    r.FormValue("category"),
		Priority:    domain.TicketPriority(r.FormValue("priority")),
		Description: r.FormValue("description"),
	}

	files := r.MultipartForm.File["attachments"]
	if len(files) > maxFilesPerRequest {
		respondError(w, r, fmt.Errorf("%w: at most %d attachments", domain.ErrInvalidInput, maxFilesPerRequest))
		return
	}
	var attachments []service.Artifact
	for _, fh := range files {
		a, err := readArtifact(fh)
		if err != nil {
			respondError(w, r, err)
			return
		}
		attachments = append(attachments, a)
	}

	ticket, err := h.workflow.FileTicket(r.Context(), in, attachments)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, ticket)
}

type ticketStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

func (h *Handler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	var req ticketStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	ticket, err := h.workflow.AdvanceStatus(r.Context(), mux.Vars(r)["ticketId"], req.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	var status *domain.TicketStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.TicketStatus(raw)
		if !s.Valid() {
			respondError(w, r, fmt.Errorf("%w: unknown ticket status %q", domain.ErrInvalidInput, raw))
			return
		}
		status = &s
	}
	tickets, err := h.workflow.ListTickets(r.Context(), mux.Vars(r)["estateId"], status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tickets)
}

// --- multipart ---

const (
	maxFilesPerRequest = 5
	formOverhead       = 64 << 10
)

// parseMultipart bounds the whole body; the per-file limit is enforced by the
// artifact store.
func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	limit := h.maxUpload*maxFilesPerRequest + formOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request exceeds %d bytes", domain.ErrInvalidInput, limit)
		}
		return fmt.Errorf("%w: expected multipart form: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func readArtifact(fh *multipart.FileHeader) (service.Artifact, error) {
	f, err := fh.Open()
	if err != nil {
		return service.Artifact{}, fmt.Errorf("%w: cannot read %s", domain.ErrInvalidInput, fh.Filename)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return service.Artifact{}, fmt.Errorf("%w: cannot read %s", domain.ErrInvalidInput, fh.Filename)
	}
	return service.Artifact{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
