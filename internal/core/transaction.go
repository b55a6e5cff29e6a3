package core

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the ISO calendar date form used for tx_date.
const DateLayout = "2006-01-02"

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

type (
	TxType string

	// Transaction is an immutable ledger entry. Values are only produced by
	// the ledger after validation; copy it freely.
	Transaction struct {
		ID       string
		Date     string // YYYY-MM-DD
		Type     TxType
		Category string
		Amount   float64
		Note     string
	}

	// Optional marks a field as provided or not, so an empty string can mean
	// "clear" while an absent value means "keep".
	Optional[T any] struct {
		value T
		set   bool
	}

	// TransactionPatch lists the fields an update may replace.
	TransactionPatch struct {
		Date     Optional[string]
		Type     Optional[string]
		Category Optional[string]
		Amount   Optional[float64]
		Note     Optional[string]
	}
)

// Some returns a provided Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an Optional that is not provided.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it was provided.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// OrElse returns the value if provided, def otherwise.
func (o Optional[T]) OrElse(def T) T {
	if o.set {
		return o.value
	}
	return def
}

// ParseTxType lowercases and trims s and checks it names a known type.
func ParseTxType(s string) (TxType, error) {
	t := TxType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", invalid("tx_type", ErrInvalidType)
	}
	return t, nil
}

// IsValid reports whether t is income or expense.
func (t TxType) IsValid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

func (t TxType) String() string {
	return string(t)
}

// Month returns the month key (YYYY-MM) of the transaction date.
func (t Transaction) Month() string {
	return MonthKey(t.Date)
}

// MonthKey returns the first 7 characters of an ISO date.
func MonthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// Today returns the current local date in ISO form.
func Today() string {
	return time.Now().Format(DateLayout)
}

// ValidateMonth checks that month is a YYYY-MM key with a real month number.
func ValidateMonth(month string) error {
	if len(month) != 7 || month[4] != '-' {
		return invalid("month", ErrInvalidMonth)
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		return invalid("month", ErrInvalidMonth)
	}
	return nil
}

// newTransaction normalizes and validates every field. The returned value is
// ready to be stored.
func newTransaction(id, date, txType, category string, amount float64, note string) (Transaction, error) {
	date = strings.TrimSpace(date)
	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return Transaction{}, invalid("tx_date", ErrInvalidDate)
	}

	t, err := ParseTxType(txType)
	if err != nil {
		return Transaction{}, err
	}

	category = strings.TrimSpace(category)
	if category == "" {
		return Transaction{}, invalid("category", ErrEmptyCategory)
	}

	if !(amount > 0) || math.IsInf(amount, 1) {
		return Transaction{}, invalid("amount", ErrInvalidAmount)
	}

	return Transaction{
		ID:       id,
		Date:     parsed.Format(DateLayout),
		Type:     t,
		Category: category,
		Amount:   amount,
		Note:     strings.TrimSpace(note),
	}, nil
}

func newID() string {
	return uuid.NewString()
}
