package main

import (
	"strconv"
	"time"

	"raffle/internal/models"

	"github.com/pterm/pterm"
)

// lotteriesTable lays out one row per hosted lottery.
func lotteriesTable(summaries []models.LotterySummary) pterm.TableData {
	data := pterm.TableData{{"ID", "Admin", "Price", "Raised", "Closes", "State"}}
	for _, s := range summaries {
		data = append(data, []string{
			s.ID,
			string(s.Admin),
			strconv.FormatUint(s.Details.TicketPrice, 10),
			strconv.FormatUint(s.Details.TotalRaised, 10),
			unixLabel(s.Details.EndTime),
			stateLabel(s.Details.IsTerminated),
		})
	}
	return data
}

func participantsTable(participants []models.Participant) pterm.TableData {
	data := pterm.TableData{{"Address", "Tickets", "Balance"}}
	for _, p := range participants {
		data = append(data, []string{
			string(p.Address),
			strconv.FormatUint(p.Tickets, 10),
			strconv.FormatUint(p.Balance, 10),
		})
	}
	return data
}

func journalTable(entries []models.Entry) pterm.TableData {
	data := pterm.TableData{{"Seq", "Kind", "Caller", "Qty", "Amount", "Hash"}}
	for _, e := range entries {
		hash := e.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		data = append(data, []string{
			strconv.FormatUint(e.Seq, 10),
			string(e.Kind),
			string(e.Caller),
			strconv.FormatUint(e.Quantity, 10),
			strconv.FormatUint(e.Amount, 10),
			hash,
		})
	}
	return data
}

// detailsPanel renders the lottery details as a titled box.
func detailsPanel(info LotteryInfo) string {
	d := info.Summary.Details
	body := pterm.Sprintfln("Admin:            %s", info.Summary.Admin) +
		pterm.Sprintfln("Ticket price:     %d", d.TicketPrice) +
		pterm.Sprintfln("Window:           %s .. %s", unixLabel(d.StartTime), unixLabel(d.EndTime)) +
		pterm.Sprintfln("Purchase period:  %ds", d.PurchasePeriod) +
		pterm.Sprintfln("Participants:     %d (minimum %d)", info.TotalParticipants, d.MinimumParticipants) +
		pterm.Sprintfln("Max tickets/user: %d", d.MaxTicketsPerUser) +
		pterm.Sprintfln("Total raised:     %d", d.TotalRaised) +
		pterm.Sprintfln("Window open:      %t", info.WindowOpen) +
		pterm.Sprintfln("State:            %s", stateLabel(d.IsTerminated))
	if d.IsTerminated {
		body += pterm.Sprintfln("Winner:           %s", winnerLabel(d.Winner))
	}
	for i, item := range info.RaffleItems {
		body += pterm.Sprintfln("  * %s: %s", item, info.RaffleDescriptions[i])
	}

	title := pterm.LightGreen("|" + info.Summary.ID + "|")
	if !info.Viable {
		title = pterm.LightYellow("|" + info.Summary.ID + " (not viable)|")
	}
	box := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	return box.WithTitle(title).WithTitleTopCenter().Sprint(body)
}

func stateLabel(terminated bool) string {
	if terminated {
		return "terminated"
	}
	return "open"
}

func winnerLabel(w models.Address) string {
	if w.IsZero() {
		return "none"
	}
	return string(w)
}

func unixLabel(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
