// Package http serves the JSON API over the finance services.
//
// This file decodes and validates request bodies into domain values.
package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"carteira/internal/core"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// requestError is a malformed request; it maps to 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a single JSON object from the body, rejecting unknown
// fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return badRequest("request body too large")
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		default:
			return badRequest("invalid JSON: %v", err)
		}
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// amountInput accepts an amount as a JSON number or string. Strings may
// use a comma as decimal separator.
type amountInput string

func (a *amountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a number or string")
	}
	*a = amountInput(n.String())
	return nil
}

// Positive parses a strictly positive amount rounded to cents.
func (a amountInput) Positive() (decimal.Decimal, error) {
	return core.ParseAmount(string(a))
}

// Signed parses any amount, negatives and zero included, rounded to cents.
func (a amountInput) Signed() (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(string(a)), ",", ".")
	if s == "" {
		return decimal.Zero, core.ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, core.ErrInvalidAmount
	}
	return core.RoundCents(d), nil
}

type transactionRequest struct {
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Amount          amountInput `json:"amount"`
	Date            string      `json:"date"`
	CategoryID      string      `json:"categoryId"`
	PaymentMethodID string      `json:"paymentMethodId"`
	AccountID       string      `json:"accountId"`
	Type            string      `json:"type"`
	Frequency       string      `json:"frequency"`
	// Installments above 1 splits the amount into a monthly series (create only).
	Installments int `json:"installments"`
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	amount, err := req.Amount.Positive()
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	freq := core.Frequency(strings.TrimSpace(req.Frequency))
	if freq == "" {
		freq = core.Variable
	}
	if freq != core.Fixed && freq != core.Variable {
		return core.Transaction{}, badRequest("invalid frequency %q", req.Frequency)
	}
	return core.Transaction{
		Title:           sanitizeInput(req.Title),
		Description:     sanitizeInput(req.Description),
		Amount:          amount,
		Date:            date,
		CategoryID:      strings.TrimSpace(req.CategoryID),
		PaymentMethodID: strings.TrimSpace(req.PaymentMethodID),
		AccountID:       strings.TrimSpace(req.AccountID),
		Type:            core.TransactionType(strings.TrimSpace(req.Type)),
		Frequency:       freq,
	}, nil
}

type manualBillsRequest struct {
	Bills []struct {
		PaymentMethodID string      `json:"paymentMethodId"`
		Amount          amountInput `json:"amount"`
		Year            int         `json:"year"`
		Month           int         `json:"month"`
	} `json:"bills"`
}

func (req manualBillsRequest) toBills() ([]core.ManualBill, error) {
	bills := make([]core.ManualBill, 0, len(req.Bills))
	for i, b := range req.Bills {
		amount, err := b.Amount.Signed()
		if err != nil {
			return nil, badRequest("bill %d: invalid amount", i)
		}
		bills = append(bills, core.ManualBill{
			ID:        strings.TrimSpace(b.PaymentMethodID),
			Amount:    amount,
			Reference: core.MonthRef{Year: b.Year, Month: time.Month(b.Month)},
		})
	}
	return bills, nil
}

type balanceRequest struct {
	Balance amountInput `json:"balance"`
}

type accountRequest struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Balance amountInput `json:"balance"`
	Color   string      `json:"color"`
	Icon    string      `json:"icon"`
}

func (req accountRequest) toAccount() (core.BalanceAccount, error) {
	balance := decimal.Zero
	if req.Balance != "" {
		b, err := req.Balance.Signed()
		if err != nil {
			return core.BalanceAccount{}, err
		}
		balance = b
	}
	acc := core.BalanceAccount{
		Name:    sanitizeInput(req.Name),
		Type:    core.AccountType(strings.TrimSpace(req.Type)),
		Balance: balance,
		Color:   strings.TrimSpace(req.Color),
		Icon:    strings.TrimSpace(req.Icon),
	}
	switch acc.Type {
	case "", core.CashAccount, core.BankAccount, core.VoucherAccount, core.InvestmentAccount:
	default:
		return core.BalanceAccount{}, badRequest("invalid account type %q", req.Type)
	}
	return acc, nil
}

type paymentMethodRequest struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Color       string      `json:"color"`
	LastDigits  string      `json:"lastDigits"`
	DueDate     int         `json:"dueDate"`
	CreditLimit amountInput `json:"creditLimit"`
}

func (req paymentMethodRequest) toPaymentMethod() (core.PaymentMethod, error) {
	limit := decimal.Zero
	if req.CreditLimit != "" {
		l, err := req.CreditLimit.Signed()
		if err != nil {
			return core.PaymentMethod{}, err
		}
		limit = l
	}
	pm := core.PaymentMethod{
		Name:        sanitizeInput(req.Name),
		Type:        core.PaymentMethodType(strings.TrimSpace(req.Type)),
		Color:       strings.TrimSpace(req.Color),
		LastDigits:  strings.TrimSpace(req.LastDigits),
		DueDate:     req.DueDate,
		CreditLimit: limit,
	}
	if pm.Type == "" {
		pm.Type = core.Other
	}
	return pm, nil
}
