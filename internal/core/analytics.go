package core

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// Lister is the read side of a Ledger that reports work from.
	Lister interface {
		ListAll() []Transaction
	}

	// MonthlySummary totals one month.
	MonthlySummary struct {
		Month   string
		Income  float64
		Expense float64
		Net     float64
	}

	// CategoryTotal is the sum of one category within a month.
	CategoryTotal struct {
		Category string
		Total    float64
	}

	// DailyTotal is the expense sum of one calendar day.
	DailyTotal struct {
		Date  string
		Total float64
	}
)

// DefaultTopN is the number of categories reported when the caller has no preference.
const DefaultTopN = 5

// Summarize computes income, expense and net for month.
func Summarize(l Lister, month string) (MonthlySummary, error) {
	if err := ValidateMonth(month); err != nil {
		return MonthlySummary{}, err
	}
	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range l.ListAll() {
		if tx.Month() != month {
			continue
		}
		switch tx.Type {
		case Income:
			income = income.Add(decimal.NewFromFloat(tx.Amount))
		case Expense:
			expense = expense.Add(decimal.NewFromFloat(tx.Amount))
		}
	}
	return MonthlySummary{
		Month:   month,
		Income:  income.InexactFloat64(),
		Expense: expense.InexactFloat64(),
		Net:     income.Sub(expense).InexactFloat64(),
	}, nil
}

// CategoryTotals sums amounts of txType per category for month, largest first.
// Categories differing only in case are merged under the first spelling seen.
func CategoryTotals(l Lister, month string, txType TxType) ([]CategoryTotal, error) {
	if err := ValidateMonth(month); err != nil {
		return nil, err
	}
	if !txType.IsValid() {
		return nil, invalid("tx_type", ErrInvalidType)
	}

	index := make(map[string]int)
	var names []string
	var sums []decimal.Decimal
	for _, tx := range l.ListAll() {
		if tx.Month() != month || tx.Type != txType {
			continue
		}
		key := strings.ToLower(tx.Category)
		i, ok := index[key]
		if !ok {
			i = len(names)
			index[key] = i
			names = append(names, tx.Category)
			sums = append(sums, decimal.Zero)
		}
		sums[i] = sums[i].Add(decimal.NewFromFloat(tx.Amount))
	}

	out := make([]CategoryTotal, len(names))
	for i := range names {
		out[i] = CategoryTotal{Category: names[i], Total: sums[i].InexactFloat64()}
	}
	slices.SortFunc(out, func(a, b CategoryTotal) int {
		return cmp.Or(
			cmp.Compare(b.Total, a.Total),
			compareFold(a.Category, b.Category),
		)
	})
	return out, nil
}

// TopCategories returns at most n entries of CategoryTotals.
func TopCategories(l Lister, month string, n int, txType TxType) ([]CategoryTotal, error) {
	if n <= 0 {
		return nil, invalid("limit", ErrInvalidLimit)
	}
	totals, err := CategoryTotals(l, month, txType)
	if err != nil {
		return nil, err
	}
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals, nil
}

// DailySpendTrend sums expenses per day of month. Days without expenses are
// omitted.
func DailySpendTrend(l Lister, month string) ([]DailyTotal, error) {
	if err := ValidateMonth(month); err != nil {
		return nil, err
	}
	out := make([]DailyTotal, 0)
	var sum decimal.Decimal
	flush := func(date string) {
		out = append(out, DailyTotal{Date: date, Total: sum.InexactFloat64()})
	}
	// ListAll is date ordered, so each day is a contiguous run.
	current := ""
	for _, tx := range l.ListAll() {
		if tx.Month() != month || tx.Type != Expense {
			continue
		}
		if tx.Date != current {
			if current != "" {
				flush(current)
			}
			current = tx.Date
			sum = decimal.Zero
		}
		sum = sum.Add(decimal.NewFromFloat(tx.Amount))
	}
	if current != "" {
		flush(current)
	}
	return out, nil
}
