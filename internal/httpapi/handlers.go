package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
)

func (a *API) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := a.service.ListItems(r.Context(), parseBoolParam(r.URL.Query().Get("include_inactive")))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := a.service.GetItem(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

func (a *API) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req domain.ItemCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	item, err := a.service.CreateItem(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"item": item})
}

func (a *API) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req domain.ItemUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	item, err := a.service.UpdateItem(r.Context(), chi.URLParam(r, "code"), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

func (a *API) handleIncreaseStock(w http.ResponseWriter, r *http.Request) {
	var req domain.StockAdjustmentRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	item, err := a.service.IncreaseStock(r.Context(), chi.URLParam(r, "code"), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

func (a *API) handleDecreaseStock(w http.ResponseWriter, r *http.Request) {
	var req domain.StockAdjustmentRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	item, err := a.service.DecreaseStock(r.Context(), chi.URLParam(r, "code"), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

func (a *API) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := a.service.ListMembers(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (a *API) handleGetMember(w http.ResponseWriter, r *http.Request) {
	member, err := a.service.GetMember(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"member": member})
}

func (a *API) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req domain.MemberCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	member, err := a.service.CreateMember(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"member": member})
}

func (a *API) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var req domain.MemberUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	member, err := a.service.UpdateMember(r.Context(), chi.URLParam(r, "code"), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"member": member})
}

func (a *API) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	sale, err := a.service.CreateSale(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"sale": sale})
}

func (a *API) handleListSales(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := parseTimeParam(query.Get("from"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	to, err := parseTimeParam(query.Get("to"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	filter := domain.SaleFilter{
		From:  from,
		To:    to,
		Limit: parsePositiveLimit(query.Get("limit"), 50, 500),
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := parseSaleStatus(raw)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		filter.Status = &status
	}

	sales, err := a.service.ListSales(r.Context(), filter)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

// parseSaleStatus accepts the stored numeric value or its name.
func parseSaleStatus(raw string) (domain.SaleStatus, error) {
	switch strings.ToLower(raw) {
	case "paid":
		return domain.SaleStatusPaid, nil
	case "cancelled":
		return domain.SaleStatusCancelled, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || !domain.SaleStatus(n).Valid() {
		return 0, store.Invalid("Invalid sale status")
	}
	return domain.SaleStatus(n), nil
}

func (a *API) handleGetSale(w http.ResponseWriter, r *http.Request) {
	sale, err := a.service.GetSale(r.Context(), chi.URLParam(r, "invoice"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
}

func (a *API) handleUpdateSale(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	sale, err := a.service.UpdateSale(r.Context(), chi.URLParam(r, "invoice"), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
}

func (a *API) handleCancelSale(w http.ResponseWriter, r *http.Request) {
	sale, err := a.service.CancelSale(r.Context(), chi.URLParam(r, "invoice"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cancelled": true, "sale": sale})
}

func (a *API) handleRestoreSale(w http.ResponseWriter, r *http.Request) {
	sale, err := a.service.RestoreSale(r.Context(), chi.URLParam(r, "invoice"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"restored": true, "sale": sale})
}

func (a *API) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	purchases, err := a.service.ListPurchases(r.Context(),
		parseBoolParam(query.Get("include_inactive")),
		parsePositiveLimit(query.Get("limit"), 50, 500),
	)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchases": purchases})
}

func (a *API) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	purchase, err := a.service.CreatePurchase(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"purchase": purchase})
}

func (a *API) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := a.service.GetPurchase(r.Context(), chi.URLParam(r, "invoice"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchase": purchase})
}

func (a *API) handleDeactivatePurchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := a.service.DeactivatePurchase(r.Context(), chi.URLParam(r, "invoice"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deactivated": true, "purchase": purchase})
}

func (a *API) handleRestorePurchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := a.service.RestorePurchase(r.Context(), chi.URLParam(r, "invoice"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"restored": true, "purchase": purchase})
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := parseTimeParam(query.Get("from"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	to, err := parseTimeParam(query.Get("to"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	limit := parsePositiveLimit(query.Get("limit"), 100, 500)

	logs, err := a.service.ListAuditLogs(r.Context(), from, to, limit)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}
