// Command lotteryctl operates a raffle server from the terminal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"raffle/internal/config"
	"raffle/internal/models"

	"github.com/pterm/pterm"
)

// settings are the defaults for the command line flags.
type settings struct {
	Server  string        `env:"RAFFLE_SERVER" envDefault:"http://localhost:8080"`
	Caller  string        `env:"RAFFLE_CALLER"`
	Timeout time.Duration `env:"RAFFLE_TIMEOUT" envDefault:"10s"`
}

const usage = `usage: lotteryctl [flags] <command> [args]

commands:
  list                          list hosted lotteries
  create <deploy.toml>          create a lottery; the file's admin is the caller
  details <id>                  show lottery details
  participants <id>             list participants
  journal <id>                  show the lottery journal
  buy <id> <quantity> <payment> buy tickets
  me <id>                       show the caller's tickets and balance
  withdraw <id>                 move custody to the admin (admin only)
  terminate <id>                terminate the lottery (admin only)

flags:
`

func main() {
	var s settings
	if err := config.ParseEnv(&s); err != nil {
		config.Exitf("%v", err)
	}

	flags := flag.NewFlagSet("lotteryctl", flag.ExitOnError)
	flags.StringVar(&s.Server, "server", s.Server, "raffle server base URL")
	flags.StringVar(&s.Caller, "caller", s.Caller, "caller address sent with each request")
	flags.DurationVar(&s.Timeout, "timeout", s.Timeout, "request timeout")
	flags.Usage = func() {
		fmt.Fprint(flags.Output(), usage)
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	if flags.NArg() == 0 {
		flags.Usage()
		os.Exit(2)
	}

	var caller models.Address
	if s.Caller != "" {
		var err error
		if caller, err = models.ParseAddress(s.Caller); err != nil {
			config.Exitf("%v", err)
		}
	}

	client := NewClient(s.Server, caller, s.Timeout)
	if err := run(client, flags.Arg(0), flags.Args()[1:]); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			pterm.Error.Printfln("%s: %s", apiErr.Code, apiErr.Message)
		} else {
			pterm.Error.Println(err.Error())
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("wrong number of arguments")

func run(client *Client, command string, args []string) error {
	need := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s: %w (want %d)", command, errUsage, n)
		}
		return nil
	}

	switch command {
	case "list":
		summaries, err := client.List()
		if err != nil {
			return err
		}
		return pterm.DefaultTable.WithHasHeader().WithData(lotteriesTable(summaries)).Render()

	case "create":
		if err := need(1); err != nil {
			return err
		}
		deployment, admin, err := config.LoadDeployment(args[0])
		if err != nil {
			return err
		}
		summary, err := client.WithCaller(admin).Create(deployment.Lottery)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Created lottery %s administered by %s", summary.ID, summary.Admin)
		return nil

	case "details":
		if err := need(1); err != nil {
			return err
		}
		info, err := client.Get(args[0])
		if err != nil {
			return err
		}
		pterm.Println(detailsPanel(info))
		return nil

	case "participants":
		if err := need(1); err != nil {
			return err
		}
		participants, err := client.Participants(args[0])
		if err != nil {
			return err
		}
		return pterm.DefaultTable.WithHasHeader().WithData(participantsTable(participants)).Render()

	case "journal":
		if err := need(1); err != nil {
			return err
		}
		entries, err := client.Journal(args[0])
		if err != nil {
			return err
		}
		return pterm.DefaultTable.WithHasHeader().WithData(journalTable(entries)).Render()

	case "buy":
		if err := need(3); err != nil {
			return err
		}
		quantity, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("quantity: %w", err)
		}
		payment, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("payment: %w", err)
		}
		holding, err := client.Buy(args[0], quantity, payment)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Bought %d ticket(s); now holding %d with balance %d", quantity, holding.Tickets, holding.Balance)
		return nil

	case "me":
		if err := need(1); err != nil {
			return err
		}
		holding, err := client.Me(args[0])
		if err != nil {
			return err
		}
		pterm.Info.Printfln("Tickets: %d, balance: %d", holding.Tickets, holding.Balance)
		return nil

	case "withdraw":
		if err := need(1); err != nil {
			return err
		}
		amount, err := client.Withdraw(args[0])
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Withdrew %d", amount)
		return nil

	case "terminate":
		if err := need(1); err != nil {
			return err
		}
		winner, err := client.Terminate(args[0])
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Lottery terminated; winner: %s", winnerLabel(winner))
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}
