package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/lazypower/legacy/internal/engine"
	"github.com/lazypower/legacy/internal/store"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	id := principalFrom(r.Context())

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	// The body is optional; name and email may come from the token.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Email == "" {
		req.Email = claimsFrom(r.Context()).Email
	}

	p, err := s.engine.Register(id, req.Name, req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    p.ID,
		"name":  p.Name,
		"email": p.Email,
	})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type settingsJSON struct {
	ThresholdDays       int        `json:"threshold_days"`
	ThresholdSet        bool       `json:"threshold_set"`
	BeneficiaryName     string     `json:"beneficiary_name"`
	BeneficiaryContact  string     `json:"beneficiary_contact"`
	BeneficiaryRelation string     `json:"beneficiary_relation"`
	Notified            bool       `json:"notified"`
	NotifiedAt          *time.Time `json:"notified_at,omitempty"`
	LastActiveAt        *time.Time `json:"last_active_at,omitempty"`
	DaysInactive        int        `json:"days_inactive"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Status(principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsJSON{
		ThresholdDays:       st.ThresholdDays,
		ThresholdSet:        st.ThresholdSet,
		BeneficiaryName:     st.BeneficiaryName,
		BeneficiaryContact:  st.BeneficiaryContact,
		BeneficiaryRelation: st.BeneficiaryRelation,
		Notified:            st.Notified,
		NotifiedAt:          st.NotifiedAt,
		LastActiveAt:        st.LastActiveAt,
		DaysInactive:        st.DaysInactive,
	})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ThresholdDays       *int   `json:"threshold_days"`
		BeneficiaryName     string `json:"beneficiary_name"`
		BeneficiaryContact  string `json:"beneficiary_contact"`
		BeneficiaryRelation string `json:"beneficiary_relation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	settings := store.Settings{
		ThresholdDays:       engine.DefaultThresholdDays,
		BeneficiaryName:     req.BeneficiaryName,
		BeneficiaryContact:  req.BeneficiaryContact,
		BeneficiaryRelation: req.BeneficiaryRelation,
	}
	if req.ThresholdDays != nil {
		settings.ThresholdDays = *req.ThresholdDays
	}

	id := principalFrom(r.Context())
	if err := s.engine.UpdateSettings(id, settings); err != nil {
		s.writeError(w, err)
		return
	}
	s.handleGetSettings(w, r)
}

func (s *Server) handleDeliveries(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	ds, err := s.engine.Deliveries(principalFrom(r.Context()), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	type deliveryJSON struct {
		ID        string    `json:"id"`
		CycleID   string    `json:"cycle_id"`
		Role      string    `json:"role"`
		Recipient string    `json:"recipient"`
		Subject   string    `json:"subject"`
		Status    string    `json:"status"`
		Error     string    `json:"error,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]deliveryJSON, len(ds))
	for i, d := range ds {
		out[i] = deliveryJSON{
			ID:        d.ID,
			CycleID:   d.CycleID,
			Role:      d.Role,
			Recipient: d.Recipient,
			Subject:   d.Subject,
			Status:    d.Status,
			Error:     d.Error,
			CreatedAt: time.UnixMilli(d.CreatedAt).UTC(),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(out),
		"deliveries": out,
	})
}
