package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"carteira/internal/core"
	"carteira/internal/docstore"

	"github.com/shopspring/decimal"
)

// Document field names, shared with older clients.
const (
	fieldTitle           = "title"
	fieldDescription     = "description"
	fieldAmount          = "amount"
	fieldDate            = "date"
	fieldCategoryID      = "categoryId"
	fieldPaymentMethodID = "paymentMethodId"
	fieldAccountID       = "accountId"
	fieldType            = "type"
	fieldFrequency       = "frequency"
	fieldInstallment     = "installment"
	fieldIsManualBill    = "isManualBill"

	fieldCurrent         = "current"
	fieldTotal           = "total"
	fieldOriginalAmount  = "originalAmount"
	fieldStartDate       = "startDate"
	fieldPurchaseGroupID = "purchaseGroupId"

	fieldName        = "name"
	fieldColor       = "color"
	fieldLastDigits  = "lastDigits"
	fieldDueDate     = "dueDate"
	fieldCreditLimit = "creditLimit"
	fieldIsDefault   = "isDefault"

	FieldBalance      = "balance"
	FieldManualUpdate = "manualUpdate"
	FieldLastUpdate   = "lastUpdate"
	fieldIcon         = "icon"
)

// EncodeTransaction returns the full field set of tx. Absent optional values
// are written as deletes so a merge write replaces the previous content.
func EncodeTransaction(tx core.Transaction) docstore.Fields {
	f := docstore.Fields{
		fieldTitle:           tx.Title,
		fieldDescription:     optionalString(tx.Description),
		fieldAmount:          tx.Amount.StringFixed(2),
		fieldDate:            docstore.TimestampOf(tx.Date),
		fieldCategoryID:      tx.CategoryID,
		fieldPaymentMethodID: nullableID(tx.PaymentMethodID),
		fieldAccountID:       nullableID(tx.AccountID),
		fieldType:            string(tx.Type),
		fieldFrequency:       string(tx.Frequency),
		fieldIsManualBill:    tx.IsManualBill,
		fieldInstallment:     docstore.DeleteField,
	}
	if in := tx.Installment; in != nil {
		inst := docstore.Fields{
			fieldCurrent:         int64(in.Current),
			fieldTotal:           int64(in.Total),
			fieldOriginalAmount:  in.OriginalAmount.StringFixed(2),
			fieldStartDate:       docstore.TimestampOf(in.StartDate),
			fieldPurchaseGroupID: optionalString(in.PurchaseGroupID),
		}
		f[fieldInstallment] = inst
	}
	return f
}

// DecodeTransaction is tolerant of legacy documents: numbers stored as
// floats, dates stored as strings and missing optional fields.
func DecodeTransaction(doc docstore.Document) (core.Transaction, error) {
	f := doc.Fields
	amount, err := decimalField(f, fieldAmount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := timeField(f, fieldDate)
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		ID:              doc.ID,
		Title:           stringField(f, fieldTitle),
		Description:     stringField(f, fieldDescription),
		Amount:          amount,
		Date:            date,
		CategoryID:      stringField(f, fieldCategoryID),
		PaymentMethodID: stringField(f, fieldPaymentMethodID),
		AccountID:       stringField(f, fieldAccountID),
		Type:            core.TransactionType(stringField(f, fieldType)),
		Frequency:       core.Frequency(stringField(f, fieldFrequency)),
		IsManualBill:    boolField(f, fieldIsManualBill),
	}
	if raw, ok := f[fieldInstallment].(docstore.Fields); ok {
		in, err := decodeInstallment(raw)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("installment: %w", err)
		}
		tx.Installment = &in
	}
	return tx, nil
}

func decodeInstallment(f docstore.Fields) (core.Installment, error) {
	// A missing originalAmount stays zero; billing falls back to the row amount.
	original, err := decimalField(f, fieldOriginalAmount)
	if err != nil {
		return core.Installment{}, err
	}
	start, err := timeField(f, fieldStartDate)
	if err != nil {
		return core.Installment{}, err
	}
	return core.Installment{
		Current:         intField(f, fieldCurrent),
		Total:           intField(f, fieldTotal),
		OriginalAmount:  original,
		StartDate:       start,
		PurchaseGroupID: stringField(f, fieldPurchaseGroupID),
	}, nil
}

func EncodePaymentMethod(pm core.PaymentMethod) docstore.Fields {
	f := docstore.Fields{
		fieldName:       pm.Name,
		fieldType:       string(pm.Type),
		fieldColor:      pm.Color,
		fieldLastDigits: optionalString(pm.LastDigits),
		fieldIsDefault:  pm.IsDefault,
		fieldDueDate:    docstore.DeleteField,
	}
	if pm.DueDate > 0 {
		f[fieldDueDate] = int64(pm.DueDate)
	}
	if pm.IsCredit() || !pm.CreditLimit.IsZero() {
		f[fieldCreditLimit] = pm.CreditLimit.StringFixed(2)
	}
	return f
}

func DecodePaymentMethod(doc docstore.Document) (core.PaymentMethod, error) {
	f := doc.Fields
	limit, err := decimalField(f, fieldCreditLimit)
	if err != nil {
		return core.PaymentMethod{}, err
	}
	pmType := core.PaymentMethodType(stringField(f, fieldType))
	if pmType == "" {
		pmType = core.Other
	}
	return core.PaymentMethod{
		ID:          doc.ID,
		Name:        stringField(f, fieldName),
		Type:        pmType,
		Color:       stringField(f, fieldColor),
		LastDigits:  stringField(f, fieldLastDigits),
		DueDate:     intField(f, fieldDueDate),
		CreditLimit: limit,
		IsDefault:   boolField(f, fieldIsDefault),
	}, nil
}

func EncodeAccount(acc core.BalanceAccount) docstore.Fields {
	return docstore.Fields{
		fieldName:         acc.Name,
		FieldBalance:      acc.Balance.StringFixed(2),
		fieldType:         string(acc.Type),
		fieldColor:        optionalString(acc.Color),
		fieldIcon:         optionalString(acc.Icon),
		FieldManualUpdate: acc.ManualUpdate,
		FieldLastUpdate:   docstore.TimestampOf(acc.LastUpdate),
	}
}

func DecodeAccount(doc docstore.Document) (core.BalanceAccount, error) {
	f := doc.Fields
	balance, err := decimalField(f, FieldBalance)
	if err != nil {
		return core.BalanceAccount{}, err
	}
	last, err := timeField(f, FieldLastUpdate)
	if err != nil {
		return core.BalanceAccount{}, err
	}
	return core.BalanceAccount{
		ID:           doc.ID,
		Name:         stringField(f, fieldName),
		Balance:      balance,
		Type:         core.AccountType(stringField(f, fieldType)),
		Color:        stringField(f, fieldColor),
		Icon:         stringField(f, fieldIcon),
		ManualUpdate: boolField(f, FieldManualUpdate),
		LastUpdate:   last,
	}, nil
}

// BalanceFields is the partial write the reconciler issues against an account.
func BalanceFields(balance decimal.Decimal, at time.Time) docstore.Fields {
	return docstore.Fields{
		FieldBalance:    balance.StringFixed(2),
		FieldLastUpdate: docstore.TimestampOf(at),
	}
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func optionalString(s string) any {
	if s == "" {
		return docstore.DeleteField
	}
	return s
}

func stringField(f docstore.Fields, key string) string {
	s, _ := f[key].(string)
	return s
}

func boolField(f docstore.Fields, key string) bool {
	b, _ := f[key].(bool)
	return b
}

func intField(f docstore.Fields, key string) int {
	switch v := f[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

// decimalField reads an amount stored as a string or a number. Missing or
// null values decode as zero.
func decimalField(f docstore.Fields, key string) (decimal.Decimal, error) {
	switch v := f[key].(type) {
	case nil:
		return decimal.Zero, nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("field %s: %w", key, err)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("field %s: %w", key, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("field %s: unsupported amount type %T", key, v)
	}
}

// timeField converts store-native timestamps at the boundary. Missing
// values decode as the zero time.
func timeField(f docstore.Fields, key string) (time.Time, error) {
	switch v := f[key].(type) {
	case nil:
		return time.Time{}, nil
	case docstore.Timestamp:
		return v.ToDate(), nil
	case time.Time:
		return v.UTC(), nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("field %s: %w", key, err)
		}
		return t.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("field %s: unsupported date type %T", key, v)
	}
}
