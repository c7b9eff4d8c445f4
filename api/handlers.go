package api

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shubhamku044/cross-chain-rebase-token/models"
)

type rateResponse struct {
	Rate string `json:"rate"`
}

type setRateRequest struct {
	Rate string `json:"rate"`
}

func (s *Server) handleGetGlobalRate(w http.ResponseWriter, r *http.Request) {
	rate, err := s.rates.GetGlobalRate(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rateResponse{Rate: rate.String()})
}

func (s *Server) handleSetGlobalRate(w http.ResponseWriter, r *http.Request) {
	var req setRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, err)
		return
	}

	rate, ok := new(big.Int).SetString(req.Rate, 10)
	if !ok || rate.Sign() < 0 {
		respondBadRequest(w, fmt.Errorf("invalid rate %q", req.Rate))
		return
	}

	if err := s.rates.SetGlobalRate(r.Context(), caller(r), rate); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rateResponse{Rate: rate.String()})
}

type rateChangeResponse struct {
	OldRate   string    `json:"old_rate"`
	NewRate   string    `json:"new_rate"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

func (s *Server) handleRateHistory(w http.ResponseWriter, r *http.Request) {
	changes, err := s.rates.GetRateHistory(r.Context(), queryLimit(r))
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]rateChangeResponse, 0, len(changes))
	for _, c := range changes {
		out = append(out, rateChangeResponse{
			OldRate:   c.OldRate.String(),
			NewRate:   c.NewRate.String(),
			ChangedBy: c.ChangedBy,
			ChangedAt: c.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

type mintRequest struct {
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Rate      string `json:"rate,omitempty"`      // omitted: freeze the current global rate
	Reference string `json:"reference,omitempty"` // optional UUID for reconciliation
}

type accountResponse struct {
	Address       string    `json:"address"`
	Principal     string    `json:"principal"`
	Rate          string    `json:"rate"`
	LastSettledAt time.Time `json:"last_settled_at"`
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		Address:       a.Address,
		Principal:     a.Principal.String(),
		Rate:          a.Rate.String(),
		LastSettledAt: a.LastSettledAt,
	}
}

func parseReference(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	ref, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid reference %q: %w", s, err)
	}
	return &ref, nil
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	var rate *big.Int
	if req.Rate != "" {
		var ok bool
		if rate, ok = new(big.Int).SetString(req.Rate, 10); !ok || rate.Sign() < 0 {
			respondBadRequest(w, fmt.Errorf("invalid rate %q", req.Rate))
			return
		}
	}

	reference, err := parseReference(req.Reference)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	account, err := s.ledger.Mint(r.Context(), caller(r), req.To, amount, rate, reference)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toAccountResponse(account))
}

type burnRequest struct {
	From      string `json:"from"`
	Amount    string `json:"amount"`
	Reference string `json:"reference,omitempty"`
}

type burnResponse struct {
	Burned string `json:"burned"`
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	var req burnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	reference, err := parseReference(req.Reference)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	burned, err := s.ledger.Burn(r.Context(), caller(r), req.From, amount, reference)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, burnResponse{Burned: burned.String()})
}

type transferRequest struct {
	Sender    string `json:"sender,omitempty"` // transfer-from only
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

type transferResponse struct {
	Amount             string `json:"amount"`
	SenderPrincipal    string `json:"sender_principal"`
	RecipientPrincipal string `json:"recipient_principal"`
	RateInherited      bool   `json:"rate_inherited"`
}

func toTransferResponse(result *models.TransferResult) transferResponse {
	return transferResponse{
		Amount:             result.Amount.String(),
		SenderPrincipal:    result.SenderPrincipal.String(),
		RecipientPrincipal: result.RecipientPrincipal.String(),
		RateInherited:      result.RateInherited,
	}
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	result, err := s.ledger.Transfer(r.Context(), caller(r), req.Recipient, amount)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransferResponse(result))
}

func (s *Server) handleTransferFrom(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	result, err := s.ledger.TransferFrom(r.Context(), caller(r), req.Sender, req.Recipient, amount)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransferResponse(result))
}

type approveRequest struct {
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	if err := s.ledger.Approve(r.Context(), caller(r), req.Spender, amount); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"allowance": amount.String()})
}

func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	spender := r.URL.Query().Get("spender")
	if owner == "" || spender == "" {
		respondBadRequest(w, fmt.Errorf("owner and spender query parameters are required"))
		return
	}

	allowance, err := s.ledger.Allowance(r.Context(), owner, spender)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"allowance": allowance.String()})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	account, err := s.ledger.GetAccount(r.Context(), address)
	if err != nil {
		respondError(w, err)
		return
	}
	if account == nil {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "account not found"})
		return
	}

	balance, err := s.ledger.BalanceOf(r.Context(), address)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := struct {
		accountResponse
		Balance string `json:"balance"`
	}{toAccountResponse(account), balance.String()}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.ledger.BalanceOf(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

func (s *Server) handlePrincipal(w http.ResponseWriter, r *http.Request) {
	principal, err := s.ledger.PrincipalBalanceOf(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"principal": principal.String()})
}

func (s *Server) handleAccountRate(w http.ResponseWriter, r *http.Request) {
	rate, err := s.rates.GetAccountRate(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rateResponse{Rate: rate.String()})
}

type entryResponse struct {
	ID              int64          `json:"id"`
	PrincipalBefore string         `json:"principal_before"`
	PrincipalAfter  string         `json:"principal_after"`
	ChangeAmount    string         `json:"change_amount"`
	EntryType       string         `json:"entry_type"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Reference       *uuid.UUID     `json:"reference,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ledger.EntriesFor(r.Context(), chi.URLParam(r, "address"), queryLimit(r))
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:              e.ID,
			PrincipalBefore: e.PrincipalBefore.String(),
			PrincipalAfter:  e.PrincipalAfter.String(),
			ChangeAmount:    e.ChangeAmount.String(),
			EntryType:       string(e.EntryType),
			Metadata:        e.Metadata,
			Reference:       e.Reference,
			CreatedAt:       e.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

type grantRoleRequest struct {
	Account string `json:"account"`
}

func (s *Server) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	var req grantRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, err)
		return
	}

	if err := s.roles.GrantRole(r.Context(), caller(r), req.Account); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"account": req.Account, "role": string(models.RoleMintAndBurn)})
}

func (s *Server) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	if err := s.roles.RevokeRole(r.Context(), caller(r), account); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type roleGrantResponse struct {
	Account   string    `json:"account"`
	Role      string    `json:"role"`
	GrantedBy string    `json:"granted_by"`
	GrantedAt time.Time `json:"granted_at"`
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	grants, err := s.roles.RoleHolders(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]roleGrantResponse, 0, len(grants))
	for _, g := range grants {
		out = append(out, roleGrantResponse{
			Account:   g.Address,
			Role:      string(g.Role),
			GrantedBy: g.GrantedBy,
			GrantedAt: g.GrantedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func queryLimit(r *http.Request) int {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return limit
}
