package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Fixed    Frequency = "fixed"
	Variable Frequency = "variable"
)

const (
	Credit   PaymentMethodType = "credit"
	Debit    PaymentMethodType = "debit"
	Pix      PaymentMethodType = "pix"
	Digital  PaymentMethodType = "digital"
	Food     PaymentMethodType = "food"
	Cash     PaymentMethodType = "money"
	Transfer PaymentMethodType = "transfer"
	Other    PaymentMethodType = "other"
)

const (
	CashAccount       AccountType = "cash"
	BankAccount       AccountType = "bank"
	VoucherAccount    AccountType = "voucher"
	InvestmentAccount AccountType = "investment"
)

// ManualBillCategory is the category given to synthesized manual-bill transactions.
const ManualBillCategory = "bank"

// ManualBillTitlePrefix prefixes the title of every manual-bill transaction.
// Older rows carry only the prefix, without the isManualBill flag.
const ManualBillTitlePrefix = "Fatura manual: "

type (
	TransactionType   string
	Frequency         string
	PaymentMethodType string
	AccountType       string

	// Installment is one row of an installment series. Amount on the owning
	// transaction is always the per-installment amount.
	Installment struct {
		Current        int             `json:"current"`
		Total          int             `json:"total"`
		OriginalAmount decimal.Decimal `json:"originalAmount"`
		StartDate      time.Time       `json:"startDate"`
		// PurchaseGroupID links every row of one purchase. Empty on legacy rows.
		PurchaseGroupID string `json:"purchaseGroupId"`
	}

	Transaction struct {
		ID              string          `json:"id"`
		Title           string          `json:"title"`
		Description     string          `json:"description,omitempty"`
		Amount          decimal.Decimal `json:"amount"`
		Date            time.Time       `json:"date"`
		CategoryID      string          `json:"categoryId"`
		PaymentMethodID string          `json:"paymentMethodId"`        // empty when not set
		AccountID       string          `json:"accountId"`              // empty when not set
		Type            TransactionType `json:"type"`
		Frequency       Frequency       `json:"frequency"`
		Installment     *Installment    `json:"installment,omitempty"`
		IsManualBill    bool            `json:"isManualBill,omitempty"`
	}

	PaymentMethod struct {
		ID          string            `json:"id"`
		Name        string            `json:"name"`
		Type        PaymentMethodType `json:"type"`
		Color       string            `json:"color,omitempty"`
		LastDigits  string            `json:"lastDigits,omitempty"`
		DueDate     int               `json:"dueDate,omitempty"`    // day of month, 0 when unset
		CreditLimit decimal.Decimal   `json:"creditLimit"`
		IsDefault   bool              `json:"isDefault"`
	}

	BalanceAccount struct {
		ID           string          `json:"id"`
		Name         string          `json:"name"`
		Balance      decimal.Decimal `json:"balance"`
		Type         AccountType     `json:"type"`
		Color        string          `json:"color,omitempty"`
		Icon         string          `json:"icon,omitempty"`
		ManualUpdate bool            `json:"manualUpdate"`
		LastUpdate   time.Time       `json:"lastUpdate"`
	}

	// ManualBill is an input DTO; it is persisted as a Transaction.
	ManualBill struct {
		ID        string          `json:"id"`        // payment method id
		Amount    decimal.Decimal `json:"amount"`
		Reference MonthRef        `json:"reference"`
	}

	CategorySummary struct {
		CategoryID string          `json:"categoryId"`
		Amount     decimal.Decimal `json:"amount"`
		Count      int             `json:"count"`
		Percentage float64         `json:"percentage"`
	}

	FinancialSummary struct {
		MonthlyIncome       decimal.Decimal   `json:"monthlyIncome"`
		MonthlyExpenses     decimal.Decimal   `json:"monthlyExpenses"`
		FixedExpenses       decimal.Decimal   `json:"fixedExpenses"`
		VariableExpenses    decimal.Decimal   `json:"variableExpenses"`
		FoodVoucherExpenses decimal.Decimal   `json:"foodVoucherExpenses"`
		CategorySummaries   []CategorySummary `json:"categorySummaries"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyTitle         = errors.New("empty title")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidInstallment = errors.New("invalid installment")
	ErrInvalidDueDate     = errors.New("invalid due date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrEmptyName          = errors.New("empty name")
	ErrTitleTooLong       = errors.New("title too long (max 200 characters)")
	ErrMissingID          = errors.New("missing id")
)

// NewDate returns midnight UTC of the given day.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DisplayTitle returns the title, falling back to the description.
func (t Transaction) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Description
}

// HasInstallment reports whether the transaction is part of an installment series.
func (t Transaction) HasInstallment() bool {
	return t.Installment != nil
}

// IsLegacyManualBill recognises manual bills written before the flag existed.
func (t Transaction) IsLegacyManualBill() bool {
	return strings.Contains(t.Title, strings.TrimSpace(ManualBillTitlePrefix))
}

func (t Transaction) Validate() error {
	if t.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.DisplayTitle()) == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return ErrTitleTooLong
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	switch t.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	if t.Installment != nil {
		if err := t.Installment.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (i Installment) Validate() error {
	if i.Current < 1 || i.Total < i.Current {
		return ErrInvalidInstallment
	}
	if i.OriginalAmount.Sign() < 0 {
		return ErrInvalidInstallment
	}
	return nil
}

// IsCredit reports whether installment and limit logic applies to the method.
func (p PaymentMethod) IsCredit() bool {
	return p.Type == Credit
}

func (p PaymentMethod) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("payment method: %w", ErrEmptyName)
	}
	if p.DueDate < 0 || p.DueDate > 31 {
		return ErrInvalidDueDate
	}
	if p.CreditLimit.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (b ManualBill) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("manual bill payment method: %w", ErrMissingID)
	}
	if b.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return b.Reference.Validate()
}

// PaymentMethodResolver resolves a payment method id to a record. It never
// fails: unknown ids resolve to a fallback record of type Other.
type PaymentMethodResolver interface {
	Resolve(id string) PaymentMethod
}
