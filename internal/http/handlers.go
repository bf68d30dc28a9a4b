package http

import (
	"net/http"
	"strings"

	"carteira/internal/core"
	"carteira/internal/log"
	"carteira/internal/services"
)

const maxInstallments = 48

func handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Categories())
}

// handleListTransactions lists every transaction, or one month's when
// year or month is given.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		txs []core.Transaction
		err error
	)
	if q.Has("year") || q.Has("month") {
		month, perr := parseMonth(q, s.now())
		if perr != nil {
			writeError(w, r, perr)
			return
		}
		txs, err = s.svc.Transactions.ListMonth(r.Context(), month)
	} else {
		txs, err = s.svc.Transactions.List(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.svc.Transactions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		writeError(w, r, err)
		return
	}

	if req.Installments > 1 {
		if req.Installments > maxInstallments {
			writeError(w, r, badRequest("installments must be between 2 and %d", maxInstallments))
			return
		}
		rows, err := s.svc.Transactions.CreateInstallmentPurchase(r.Context(), tx, req.Installments)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rows)
		return
	}

	created, err := s.svc.Transactions.Create(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+created.ID).
		Data(created).
		Write(w)
}

// handleUpdateTransaction replaces the editable fields of a transaction.
// Installment and manual-bill markers are kept from the stored row.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Installments != 0 {
		writeError(w, r, badRequest("installments cannot be changed on update"))
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		writeError(w, r, err)
		return
	}
	existing, err := s.svc.Transactions.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx.ID = id
	tx.Installment = existing.Installment
	tx.IsManualBill = existing.IsManualBill

	updated, err := s.svc.Transactions.Update(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Transactions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleManualBills(w http.ResponseWriter, r *http.Request) {
	var req manualBillsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	bills, err := req.toBills()
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Transactions.AddManualBills(r.Context(), bills)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

type accountsResponse struct {
	Accounts     []core.BalanceAccount `json:"accounts"`
	TotalBalance string                `json:"totalBalance"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.svc.Accounts.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []core.BalanceAccount{}
	}
	writeJSON(w, http.StatusOK, accountsResponse{
		Accounts:     accounts,
		TotalBalance: services.TotalBalance(accounts).StringFixed(2),
	})
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	acc, err := req.toAccount()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.svc.Accounts.Create(r.Context(), acc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleSetBalance stores a manual balance; it freezes automatic
// recomputation of the account for a while.
func (s *Server) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	balance, err := req.Balance.Signed()
	if err != nil {
		writeError(w, r, err)
		return
	}
	acc, err := s.svc.Accounts.SetManualBalance(r.Context(), r.PathValue("id"), balance)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	balance, err := s.svc.Accounts.Recompute(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).DebugContext(r.Context(), "Account recomputed",
		log.FieldAccountID, id, log.FieldBalance, balance.String())
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "balance": balance.StringFixed(2)})
}

func (s *Server) handleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	var (
		methods []core.PaymentMethod
		err     error
	)
	if strings.EqualFold(r.URL.Query().Get("type"), string(core.Credit)) {
		methods, err = s.svc.PaymentMethods.CreditCards(r.Context())
	} else {
		methods, err = s.svc.PaymentMethods.List(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if methods == nil {
		methods = []core.PaymentMethod{}
	}
	writeJSON(w, http.StatusOK, methods)
}

func (s *Server) handleCreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	pm, err := req.toPaymentMethod()
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.PaymentMethods.Save(r.Context(), pm)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleSetDefaultPaymentMethod(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.PaymentMethods.SetDefault(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.svc.Dashboard.Dashboard(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
