package docstore

import (
	"fmt"
	"strings"
)

const (
	TransactionsCollection   = "transactions"
	AccountsCollection       = "bankAccounts"
	PaymentMethodsCollection = "paymentMethods"
)

// UserPaths builds paths inside one user's namespace.
type UserPaths struct {
	UserID string
}

func ForUser(userID string) UserPaths {
	return UserPaths{UserID: userID}
}

func (p UserPaths) Collection(name string) string {
	return "users/" + p.UserID + "/" + name
}

func (p UserPaths) Doc(collection, id string) string {
	return p.Collection(collection) + "/" + id
}

func (p UserPaths) Transactions() string        { return p.Collection(TransactionsCollection) }
func (p UserPaths) Transaction(id string) string { return p.Doc(TransactionsCollection, id) }
func (p UserPaths) Accounts() string            { return p.Collection(AccountsCollection) }
func (p UserPaths) Account(id string) string    { return p.Doc(AccountsCollection, id) }
func (p UserPaths) PaymentMethods() string      { return p.Collection(PaymentMethodsCollection) }
func (p UserPaths) PaymentMethod(id string) string {
	return p.Doc(PaymentMethodsCollection, id)
}

// SplitPath separates a document path into its collection path and id.
// Paths alternate collection and document segments, so a document path has
// an even number of non-empty segments.
func SplitPath(path string) (collection, id string, err error) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) < 2 || len(segs)%2 != 0 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, s := range segs {
		if s == "" {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return strings.Join(segs[:len(segs)-1], "/"), segs[len(segs)-1], nil
}

// ValidateCollection checks that path names a collection (odd segment count).
func ValidateCollection(path string) error {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs)%2 != 1 {
		return fmt.Errorf("%w: %q is not a collection", ErrInvalidPath, path)
	}
	for _, s := range segs {
		if s == "" {
			return fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return nil
}

// LastSegment returns the final segment of a path, e.g. the collection name.
func LastSegment(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
