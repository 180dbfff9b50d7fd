package main

import (
	"fmt"
	"strings"
	"time"

	"raffle/internal/handlers"
	"raffle/internal/models"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

// APIError is an error answered by the raffle server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Client talks to a raffle server.
type Client struct {
	baseURL string
	caller  models.Address
	timeout time.Duration
	http    *fasthttp.Client
}

// NewClient creates a Client for the server at baseURL acting as caller.
// caller may be empty for read-only commands.
func NewClient(baseURL string, caller models.Address, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		caller:  caller,
		timeout: timeout,
		http:    &fasthttp.Client{Name: "lotteryctl"},
	}
}

// WithCaller returns a copy of c acting as caller.
func (c *Client) WithCaller(caller models.Address) *Client {
	cp := *c
	cp.caller = caller
	return &cp
}

func (c *Client) do(method, path string, body, out any) error {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	if c.caller != "" {
		req.Header.Set(handlers.CallerHeader, string(c.caller))
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		req.Header.SetContentType("application/json")
		req.SetBody(data)
	}

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if status := resp.StatusCode(); status >= fasthttp.StatusBadRequest {
		apiErr := &APIError{Status: status}
		if err := json.Unmarshal(resp.Body(), apiErr); err != nil {
			apiErr.Message = string(resp.Body())
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Body(), out)
}

// LotteryInfo is the answer of GET /lotteries/:id.
type LotteryInfo struct {
	Summary            models.LotterySummary `json:"summary"`
	RaffleItems        []string              `json:"raffleItems"`
	RaffleDescriptions []string              `json:"raffleDescriptions"`
	TotalParticipants  uint64                `json:"totalParticipants"`
	Viable             bool                  `json:"viable"`
	WindowOpen         bool                  `json:"windowOpen"`
}

// Holding is what the caller paid and holds in one lottery.
type Holding struct {
	Tickets uint64 `json:"tickets"`
	Balance uint64 `json:"balance"`
}

func (c *Client) List() ([]models.LotterySummary, error) {
	var out []models.LotterySummary
	err := c.do(fasthttp.MethodGet, "/lotteries", nil, &out)
	return out, err
}

func (c *Client) Create(cfg models.LotteryConfig) (models.LotterySummary, error) {
	var out models.LotterySummary
	err := c.do(fasthttp.MethodPost, "/lotteries", cfg, &out)
	return out, err
}

func (c *Client) Get(id string) (LotteryInfo, error) {
	var out LotteryInfo
	err := c.do(fasthttp.MethodGet, "/lotteries/"+id, nil, &out)
	return out, err
}

func (c *Client) Participants(id string) ([]models.Participant, error) {
	var out []models.Participant
	err := c.do(fasthttp.MethodGet, "/lotteries/"+id+"/participants", nil, &out)
	return out, err
}

func (c *Client) Journal(id string) ([]models.Entry, error) {
	var out []models.Entry
	err := c.do(fasthttp.MethodGet, "/lotteries/"+id+"/journal", nil, &out)
	return out, err
}

// Buy purchases quantity tickets paying payment, and returns the new holding.
func (c *Client) Buy(id string, quantity, payment uint64) (Holding, error) {
	var out Holding
	err := c.do(fasthttp.MethodPost, "/lotteries/"+id+"/tickets", handlers.PurchaseRequest{Quantity: quantity, Payment: payment}, &out)
	return out, err
}

// Withdraw drains the lottery's custody and returns the amount moved.
func (c *Client) Withdraw(id string) (uint64, error) {
	var out struct {
		Amount uint64 `json:"amount"`
	}
	err := c.do(fasthttp.MethodPost, "/lotteries/"+id+"/withdraw", nil, &out)
	return out.Amount, err
}

// Terminate closes the lottery and returns the recorded winner.
func (c *Client) Terminate(id string) (models.Address, error) {
	var out struct {
		Winner models.Address `json:"winner"`
	}
	err := c.do(fasthttp.MethodPost, "/lotteries/"+id+"/terminate", nil, &out)
	return out.Winner, err
}

func (c *Client) Me(id string) (Holding, error) {
	var h Holding
	if err := c.do(fasthttp.MethodGet, "/lotteries/"+id+"/me/tickets", nil, &h.Tickets); err != nil {
		return Holding{}, err
	}
	if err := c.do(fasthttp.MethodGet, "/lotteries/"+id+"/me/balance", nil, &h.Balance); err != nil {
		return Holding{}, err
	}
	return h, nil
}
