package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/services"
)

const menuHeader = `
BudgetBuddy
-----------`

// errQuit ends the menu loop normally.
var errQuit = errors.New("quit")

type menuItem struct {
	label string
	run   func(ctx context.Context) error
}

// App is the interactive menu. It reads answers line by line from in and
// writes prompts and reports to out.
type App struct {
	svc    *services.LedgerService
	in     *bufio.Scanner
	out    io.Writer
	logger *log.Logger
	today  func() string
	items  []menuItem
}

// NewApp creates a menu bound to svc.
func NewApp(svc *services.LedgerService, in io.Reader, out io.Writer, logger *log.Logger) *App {
	if logger == nil {
		logger = log.Discard()
	}
	a := &App{
		svc:    svc,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger.WithComponent(log.ComponentCLI),
		today:  core.Today,
	}
	a.items = []menuItem{
		{"Add transaction (income/expense)", a.add},
		{"List transactions", a.list},
		{"Filter transactions", a.filter},
		{"Update transaction", a.update},
		{"Delete transaction", a.delete},
		{"Monthly summary", a.summary},
		{"Top spending categories", a.topCategories},
		{"Daily spend trend", a.dailyTrend},
		{"Export to CSV", a.exportCSV},
		{"Import from CSV (replace current)", a.importCSV},
		{"Save", a.save},
		{"Quit", a.quit},
	}
	return a
}

// Run shows the menu until the user quits or input ends. Failed actions are
// reported and the loop continues.
func (a *App) Run(ctx context.Context) error {
	for {
		a.printMenu()
		choice, err := a.prompt("Choose an option: ")
		if err != nil {
			return a.endOfInput(err)
		}

		n, convErr := strconv.Atoi(choice)
		if convErr != nil || n < 1 || n > len(a.items) {
			a.printf("Invalid option %q.\n", choice)
			continue
		}

		err = a.items[n-1].run(ctx)
		switch {
		case err == nil:
		case errors.Is(err, errQuit):
			a.printf("Bye.\n")
			return nil
		case errors.Is(err, io.EOF):
			return a.endOfInput(err)
		default:
			a.printf("Error: %v\n", err)
		}
	}
}

func (a *App) endOfInput(err error) error {
	if !errors.Is(err, io.EOF) {
		return err
	}
	if a.svc.Dirty() {
		a.logger.Warn("Input closed with unsaved changes")
	}
	a.printf("\nBye.\n")
	return nil
}

func (a *App) printMenu() {
	a.printf("%s\n", menuHeader)
	for i, item := range a.items {
		a.printf("%d) %s\n", i+1, item.label)
	}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// prompt returns the trimmed next line, or io.EOF once input is exhausted.
func (a *App) prompt(label string) (string, error) {
	a.printf("%s", label)
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(a.in.Text()), nil
}

func (a *App) promptDefault(label, def string) (string, error) {
	v, err := a.prompt(fmt.Sprintf("%s [%s]: ", label, def))
	if err != nil || v != "" {
		return v, err
	}
	return def, nil
}

func (a *App) promptMonth() (string, error) {
	return a.promptDefault("Month (YYYY-MM)", core.MonthKey(a.today()))
}

func (a *App) add(ctx context.Context) error {
	date, err := a.promptDefault("Date (YYYY-MM-DD)", a.today())
	if err != nil {
		return err
	}
	txType, err := a.prompt("Type (income/expense): ")
	if err != nil {
		return err
	}
	if cats := a.svc.Categories(); len(cats) > 0 {
		a.printf("Known categories: %s\n", strings.Join(cats, ", "))
	}
	category, err := a.prompt("Category: ")
	if err != nil {
		return err
	}
	rawAmount, err := a.prompt("Amount: ")
	if err != nil {
		return err
	}
	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		return err
	}
	note, err := a.prompt("Note (optional): ")
	if err != nil {
		return err
	}

	tx, err := a.svc.Create(ctx, date, txType, category, amount, note)
	if err != nil {
		return err
	}
	a.printf("Added %s.\n", tx.ID)
	return nil
}

func (a *App) list(context.Context) error {
	a.printTransactions(a.svc.List())
	return nil
}

func (a *App) filter(context.Context) error {
	month, err := a.prompt("Month (YYYY-MM, blank for any): ")
	if err != nil {
		return err
	}
	category, err := a.prompt("Category (blank for any): ")
	if err != nil {
		return err
	}
	txType, err := a.prompt("Type (income/expense, blank for any): ")
	if err != nil {
		return err
	}

	txs, err := a.svc.Filter(core.Filter{Month: month, Category: category, Type: strings.ToLower(txType)})
	if err != nil {
		return err
	}
	a.printTransactions(txs)
	return nil
}

// clearNote is the update answer that empties the note. It is reserved, so
// it can never be stored as a note through update.
const clearNote = "-"

// update asks for each field showing the current value. A blank answer keeps
// it; clearNote empties the note.
func (a *App) update(ctx context.Context) error {
	id, err := a.prompt("Transaction id: ")
	if err != nil {
		return err
	}
	current, ok := a.svc.Get(id)
	if !ok {
		return &core.NotFoundError{ID: id}
	}

	var patch core.TransactionPatch
	if patch.Date, err = a.optional("Date", current.Date); err != nil {
		return err
	}
	if patch.Type, err = a.optional("Type", current.Type.String()); err != nil {
		return err
	}
	if patch.Category, err = a.optional("Category", current.Category); err != nil {
		return err
	}

	rawAmount, err := a.prompt(fmt.Sprintf("Amount [%s]: ", core.FormatAmount(current.Amount)))
	if err != nil {
		return err
	}
	if rawAmount != "" {
		amount, err := core.ParseAmount(rawAmount)
		if err != nil {
			return err
		}
		patch.Amount = core.Some(amount)
	}

	note, err := a.prompt(fmt.Sprintf("Note [%s] (blank keeps, %q clears; a note of just %q cannot be set): ",
		current.Note, clearNote, clearNote))
	if err != nil {
		return err
	}
	switch note {
	case "":
	case clearNote:
		patch.Note = core.Some("")
	default:
		patch.Note = core.Some(note)
	}

	tx, err := a.svc.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	a.printf("Updated %s.\n", tx.ID)
	return nil
}

func (a *App) optional(label, current string) (core.Optional[string], error) {
	v, err := a.prompt(fmt.Sprintf("%s [%s]: ", label, current))
	if err != nil || v == "" {
		return core.None[string](), err
	}
	return core.Some(v), nil
}

func (a *App) delete(ctx context.Context) error {
	id, err := a.prompt("Transaction id: ")
	if err != nil {
		return err
	}
	if !a.svc.Delete(ctx, id) {
		a.printf("No transaction with id %s.\n", id)
		return nil
	}
	a.printf("Deleted %s.\n", id)
	return nil
}

func (a *App) summary(context.Context) error {
	month, err := a.promptMonth()
	if err != nil {
		return err
	}
	s, err := a.svc.MonthlySummary(month)
	if err != nil {
		return err
	}
	a.printf("Summary for %s\n", s.Month)
	a.printf("  Income:  %10s\n", core.FormatAmount(s.Income))
	a.printf("  Expense: %10s\n", core.FormatAmount(s.Expense))
	a.printf("  Net:     %10s\n", core.FormatAmount(s.Net))
	return nil
}

func (a *App) topCategories(context.Context) error {
	month, err := a.promptMonth()
	if err != nil {
		return err
	}
	rawN, err := a.promptDefault("How many", strconv.Itoa(core.DefaultTopN))
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(rawN)
	if err != nil {
		return fmt.Errorf("invalid number %q", rawN)
	}

	top, err := a.svc.TopCategories(month, n, core.Expense)
	if err != nil {
		return err
	}
	if len(top) == 0 {
		a.printf("No expenses in %s.\n", month)
		return nil
	}
	for i, ct := range top {
		a.printf("%2d. %-20s %10s\n", i+1, ct.Category, core.FormatAmount(ct.Total))
	}
	return nil
}

func (a *App) dailyTrend(context.Context) error {
	month, err := a.promptMonth()
	if err != nil {
		return err
	}
	trend, err := a.svc.DailySpendTrend(month)
	if err != nil {
		return err
	}
	if len(trend) == 0 {
		a.printf("No expenses in %s.\n", month)
		return nil
	}
	for _, d := range trend {
		a.printf("%s %10s\n", d.Date, core.FormatAmount(d.Total))
	}
	return nil
}

func (a *App) exportCSV(ctx context.Context) error {
	path, err := a.promptPath()
	if err != nil {
		return err
	}
	if err := a.svc.ExportCSV(ctx, path); err != nil {
		return err
	}
	a.printf("Exported %d transactions to %s.\n", len(a.svc.List()), path)
	return nil
}

func (a *App) importCSV(ctx context.Context) error {
	path, err := a.promptPath()
	if err != nil {
		return err
	}
	n, err := a.svc.ImportCSV(ctx, path)
	if err != nil {
		return err
	}
	a.printf("Imported %d transactions. Current ledger replaced (not saved yet).\n", n)
	return nil
}

func (a *App) promptPath() (string, error) {
	path, err := a.prompt("CSV path: ")
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", errors.New("path is required")
	}
	return path, nil
}

func (a *App) save(ctx context.Context) error {
	if err := a.svc.Save(ctx); err != nil {
		return err
	}
	a.printf("Saved.\n")
	return nil
}

func (a *App) quit(ctx context.Context) error {
	if !a.svc.Dirty() {
		return errQuit
	}
	answer, err := a.prompt("Save changes before quitting? [y/N]: ")
	if err != nil {
		return err
	}
	if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
		if err := a.save(ctx); err != nil {
			return err
		}
	}
	return errQuit
}

func (a *App) printTransactions(txs []core.Transaction) {
	if len(txs) == 0 {
		a.printf("No transactions.\n")
		return
	}
	for _, tx := range txs {
		a.printf("%s  %s  %-7s  %-15s %10s  %s\n",
			tx.ID, tx.Date, tx.Type, tx.Category, core.FormatAmount(tx.Amount), tx.Note)
	}
	a.printf("%d transaction(s).\n", len(txs))
}
