// Package admincli is the operator console for NorseBooks. It promotes and
// demotes administrators, sets account passwords and prints site figures,
// either as a one-shot command or from an interactive prompt.
package admincli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/validation"
)

// Accounts is the slice of the admin service the console drives.
type Accounts interface {
	SetAdmin(ctx context.Context, email string, admin bool) error
	Stats(ctx context.Context) (*models.Stats, error)
	Users(ctx context.Context, orderBy string, descending bool) ([]models.AdminUserRow, error)
}

// Passwords sets an account password without the current one.
type Passwords interface {
	SetPassword(ctx context.Context, email, password string) error
}

var commands = map[string]struct{}{
	"promote":  {},
	"demote":   {},
	"password": {},
	"users":    {},
	"stats":    {},
}

// CommandArgs drops configuration flags from args, returning the command
// and its operands, or nil when no command was given.
func CommandArgs(args []string) []string {
	for i, a := range args {
		if _, ok := commands[a]; ok {
			return args[i:]
		}
	}
	return nil
}

type App struct {
	accounts    Accounts
	passwords   Passwords
	emailSuffix string
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(accounts Accounts, passwords Passwords, emailSuffix string, in io.Reader, out io.Writer) *App {
	return &App{
		accounts:    accounts,
		passwords:   passwords,
		emailSuffix: emailSuffix,
		reader:      bufio.NewReader(in),
		out:         out,
	}
}

var errUsage = errors.New("usage")

// Exec runs one command.
func (a *App) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "promote", "demote":
		if len(rest) != 1 {
			return fmt.Errorf("%w: %s <email>", errUsage, cmd)
		}
		return a.setAdmin(ctx, rest[0], cmd == "promote")
	case "password":
		if len(rest) != 1 {
			return fmt.Errorf("%w: password <email>", errUsage)
		}
		return a.setPassword(ctx, rest[0])
	case "users":
		return a.users(ctx)
	case "stats":
		return a.stats(ctx)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func (a *App) email(raw string) string {
	return validation.NormalizeEmail(raw, a.emailSuffix)
}

func (a *App) setAdmin(ctx context.Context, raw string, admin bool) error {
	email := a.email(raw)
	if err := a.accounts.SetAdmin(ctx, email, admin); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("no account for %s%s", email, a.emailSuffix)
		}
		return err
	}
	if admin {
		fmt.Fprintf(a.out, "%s%s is now an administrator\n", email, a.emailSuffix)
	} else {
		fmt.Fprintf(a.out, "%s%s is no longer an administrator\n", email, a.emailSuffix)
	}
	return nil
}

func (a *App) setPassword(ctx context.Context, raw string) error {
	email := a.email(raw)

	pw, err := GetPassword(a.out, "New password")
	if err != nil {
		return err
	}
	confirm, err := GetPassword(a.out, "Confirm password")
	if err != nil {
		return err
	}
	if r := validation.Password(pw, confirm); !r.OK {
		return errors.New(r.Message)
	}

	if err := a.passwords.SetPassword(ctx, email, pw); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("no account for %s%s", email, a.emailSuffix)
		}
		return err
	}
	fmt.Fprintln(a.out, "Password updated")
	return nil
}

func (a *App) users(ctx context.Context) error {
	rows, err := a.accounts.Users(ctx, "joinedAt", false)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tNAME\tJOINED\tLISTED\tSOLD\tEARNED")
	for _, u := range rows {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%d\t%d\t$%.2f\n",
			u.Email, u.Firstname, u.Lastname, u.JoinedAt.Format("2006-01-02"), u.ItemsListed, u.ItemsSold, u.MoneyMade)
	}
	return tw.Flush()
}

func (a *App) stats(ctx context.Context) error {
	st, err := a.accounts.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "users:    %d\n", st.Users)
	fmt.Fprintf(a.out, "books:    %d\n", st.Books)
	fmt.Fprintf(a.out, "listed:   %d\n", st.Listed)
	fmt.Fprintf(a.out, "sold:     %d\n", st.Sold)
	fmt.Fprintf(a.out, "earned:   $%.2f\n", st.MoneyMade)
	fmt.Fprintf(a.out, "reports:  %d\n", st.Reports)
	return nil
}

// Root reads commands until exit or end of input.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "NorseBooks admin console (type 'help' for commands)")
	for {
		line, err := GetSimpleText(a.reader, "nbadmin", a.out)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			fmt.Fprintln(a.out, "Available commands: promote <email>, demote <email>, password <email>, users, stats, exit")
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			if err := a.Exec(ctx, parts); err != nil {
				fmt.Fprintln(a.out, err.Error())
			}
		}
	}
}
