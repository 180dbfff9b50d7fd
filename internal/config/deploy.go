package config

import (
	"bytes"
	"fmt"
	"os"

	"raffle/internal/models"

	"github.com/pelletier/go-toml/v2"
)

// Deployment describes a lottery to create when the server first starts.
//
//	admin = "0x..."
//	[lottery]
//	ticket_price = 100
//	start_time = 0
//	end_time = 2000000000
//	raffle_items = ["item1", "item2"]
//	raffle_descriptions = ["description1", "description2"]
//	purchase_period = 604800
//	minimum_participants = 4
//	max_tickets_per_user = 10
type Deployment struct {
	Admin   string               `toml:"admin"`
	Lottery models.LotteryConfig `toml:"lottery"`
}

// LoadDeployment reads and decodes a deployment file.
func LoadDeployment(path string) (Deployment, models.Address, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Deployment{}, "", fmt.Errorf("read deployment: %w", err)
	}
	return ParseDeployment(data)
}

// ParseDeployment decodes a deployment and validates its admin address.
// Unknown keys are rejected.
func ParseDeployment(data []byte) (Deployment, models.Address, error) {
	var d Deployment
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return Deployment{}, "", fmt.Errorf("decode deployment: %w", err)
	}
	admin, err := models.ParseAddress(d.Admin)
	if err != nil {
		return Deployment{}, "", fmt.Errorf("deployment admin: %w", err)
	}
	return d, admin, nil
}
