package services

import (
	"carteira/internal/core"
)

// UnknownPaymentMethodName labels ids that resolve to nothing.
const UnknownPaymentMethodName = "Desconhecido"

var builtinPaymentMethods = []core.PaymentMethod{
	{ID: "credit_card", Name: "Cartão de Crédito", Type: core.Credit, Color: "#8A05BE"},
	{ID: "debit_card", Name: "Cartão de Débito", Type: core.Debit, Color: "#1E88E5"},
	{ID: "pix", Name: "Pix", Type: core.Pix, Color: "#32BCAD"},
	{ID: "money", Name: "Dinheiro", Type: core.Cash, Color: "#43A047"},
	{ID: "food_voucher", Name: "Vale Alimentação", Type: core.Food, Color: "#FB8C00"},
	{ID: "transfer", Name: "Transferência", Type: core.Transfer, Color: "#5E35B1"},
	{ID: "digital_wallet", Name: "Carteira Digital", Type: core.Digital, Color: "#00ACC1"},
}

// BuiltinPaymentMethods returns the static catalog available to every user.
func BuiltinPaymentMethods() []core.PaymentMethod {
	return append([]core.PaymentMethod(nil), builtinPaymentMethods...)
}

// PaymentMethodResolver looks ids up in the user's own methods first and
// the static catalog second.
type PaymentMethodResolver struct {
	methods map[string]core.PaymentMethod
}

func NewPaymentMethodResolver(userMethods []core.PaymentMethod) *PaymentMethodResolver {
	m := make(map[string]core.PaymentMethod, len(builtinPaymentMethods)+len(userMethods))
	for _, pm := range builtinPaymentMethods {
		m[pm.ID] = pm
	}
	for _, pm := range userMethods {
		m[pm.ID] = pm
	}
	return &PaymentMethodResolver{methods: m}
}

// Resolve never fails: unknown or empty ids yield an Other-type record.
func (r *PaymentMethodResolver) Resolve(id string) core.PaymentMethod {
	if pm, ok := r.methods[id]; ok {
		return pm
	}
	return core.PaymentMethod{ID: id, Name: UnknownPaymentMethodName, Type: core.Other}
}

var _ core.PaymentMethodResolver = (*PaymentMethodResolver)(nil)
