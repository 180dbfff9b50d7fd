package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"raffle/internal/models"
)

const sampleDeployment = `
admin = "0x00000000000000000000000000000000000000AA"

[lottery]
ticket_price = 100
start_time = 0
end_time = 2000000000
raffle_items = ["item1", "item2", "item3"]
raffle_descriptions = ["description1", "description2", "description3"]
purchase_period = 604800
minimum_participants = 4
max_tickets_per_user = 10
`

func TestLoadDeployment(t *testing.T) {
	t.Run("Test deployment file is decoded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "deploy.toml")
		if err := os.WriteFile(path, []byte(sampleDeployment), 0o600); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}

		d, admin, err := LoadDeployment(path)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if admin != "0x00000000000000000000000000000000000000aa" {
			t.Errorf("Expected the lower-cased admin, but got %q", admin)
		}
		want := models.LotteryConfig{
			TicketPrice:         100,
			StartTime:           0,
			EndTime:             2000000000,
			RaffleItems:         []string{"item1", "item2", "item3"},
			RaffleDescriptions:  []string{"description1", "description2", "description3"},
			PurchasePeriod:      604800,
			MinimumParticipants: 4,
			MaxTicketsPerUser:   10,
		}
		if !reflect.DeepEqual(d.Lottery, want) {
			t.Errorf("Expected %+v, but got %+v", want, d.Lottery)
		}
	})

	t.Run("Test shipped sample deployment", func(t *testing.T) {
		d, admin, err := LoadDeployment(filepath.Join("..", "..", "deploy.sample.toml"))
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if admin.IsZero() {
			t.Error("Expected a non-zero admin, but got the zero address")
		}
		if len(d.Lottery.RaffleItems) != len(d.Lottery.RaffleDescriptions) {
			t.Errorf("Expected as many items as descriptions, but got %+v", d.Lottery)
		}
	})

	t.Run("Test missing file", func(t *testing.T) {
		if _, _, err := LoadDeployment(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("Expected an error, but got nil")
		}
	})
}

func TestParseDeployment(t *testing.T) {
	t.Run("Test malformed documents are rejected", func(t *testing.T) {
		cases := map[string]string{
			"bad admin":   "admin = \"nope\"\n[lottery]\nticket_price = 1\n",
			"unknown key": "admin = \"0x00000000000000000000000000000000000000aa\"\n[lottery]\nticket_prise = 1\n",
			"negative":    "admin = \"0x00000000000000000000000000000000000000aa\"\n[lottery]\nticket_price = -1\n",
		}
		for name, doc := range cases {
			if _, _, err := ParseDeployment([]byte(doc)); err == nil {
				t.Errorf("%s: Expected an error, but got nil", name)
			}
		}
	})
}
