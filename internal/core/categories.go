package core

// Category is an entry of the static category catalog.
type Category struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Type TransactionType `json:"type"`
}

// UnknownCategoryID is reported for ids missing from the catalog.
const UnknownCategoryID = "unknown"

var categories = []Category{
	{ID: "salary", Name: "Salário", Type: Income},
	{ID: "bonus", Name: "Bônus", Type: Income},
	{ID: "investment", Name: "Investimentos", Type: Income},
	{ID: "refund", Name: "Reembolso", Type: Income},
	{ID: "other_income", Name: "Outras receitas", Type: Income},
	{ID: "food", Name: "Alimentação", Type: Expense},
	{ID: "market", Name: "Mercado", Type: Expense},
	{ID: "transport", Name: "Transporte", Type: Expense},
	{ID: "housing", Name: "Moradia", Type: Expense},
	{ID: "health", Name: "Saúde", Type: Expense},
	{ID: "education", Name: "Educação", Type: Expense},
	{ID: "leisure", Name: "Lazer", Type: Expense},
	{ID: "shopping", Name: "Compras", Type: Expense},
	{ID: "subscriptions", Name: "Assinaturas", Type: Expense},
	{ID: ManualBillCategory, Name: "Banco", Type: Expense},
	{ID: "other", Name: "Outros", Type: Expense},
}

var categoryIndex = func() map[string]Category {
	idx := make(map[string]Category, len(categories))
	for _, c := range categories {
		idx[c.ID] = c
	}
	return idx
}()

// balanceIncomeCategories are the income categories that move account balances.
var balanceIncomeCategories = map[string]struct{}{
	"salary":     {},
	"bonus":      {},
	"investment": {},
	"refund":     {},
}

// LookupCategory resolves a category id, returning an "unknown" record when absent.
func LookupCategory(id string) Category {
	if c, ok := categoryIndex[id]; ok {
		return c
	}
	return Category{ID: UnknownCategoryID, Name: "Desconhecida"}
}

// Categories returns a copy of the catalog.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// IsBalanceIncomeCategory reports whether income in this category credits an account.
func IsBalanceIncomeCategory(id string) bool {
	_, ok := balanceIncomeCategories[id]
	return ok
}
