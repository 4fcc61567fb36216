package planning

import (
	"context"
	"fmt"
	"strings"
	"sync"

	appLog "planboard/internal/log"
	"planboard/internal/model"
)

// Client is the Logipack backend REST client. All validation of the loosely
// typed payloads happens here, once per endpoint; downstream code can assume
// well-formed data.
type Client struct {
	baseURL string
	fetcher *Fetcher
}

// NewClient constructs a backend client. baseURL is the API root, e.g.
// "http://backend:3001/api".
func NewClient(baseURL string, fetcher *Fetcher) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
	}
}

// PlanningList fetches all planning records.
func (c *Client) PlanningList(ctx context.Context) ([]model.PlanningItem, error) {
	var items []model.PlanningItem
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/planning", &items); err != nil {
		return nil, fmt.Errorf("planning: fetch planning list: %w", err)
	}
	return items, nil
}

// Clients fetches all client records.
func (c *Client) Clients(ctx context.Context) ([]model.Client, error) {
	var clients []model.Client
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/clients", &clients); err != nil {
		return nil, fmt.Errorf("planning: fetch client list: %w", err)
	}
	return clients, nil
}

// Plan fetches the canonical plan by id.
func (c *Client) Plan(ctx context.Context, id int) (model.Plan, error) {
	var resp struct {
		Plan model.Plan `json:"plan"`
	}
	if err := c.fetcher.GetJSON(ctx, fmt.Sprintf("%s/planning/%d", c.baseURL, id), &resp); err != nil {
		return model.Plan{}, fmt.Errorf("planning: fetch plan %d: %w", id, err)
	}
	return resp.Plan, nil
}

// OrderState re-validates the execution state of the order behind a plan.
func (c *Client) OrderState(ctx context.Context, planID int) (model.OrderState, error) {
	var state model.OrderState
	if err := c.fetcher.GetJSON(ctx, fmt.Sprintf("%s/orders/state/%d", c.baseURL, planID), &state); err != nil {
		return model.OrderState{}, fmt.Errorf("planning: validate order %d: %w", planID, err)
	}
	return state, nil
}

// Events issues the planning and client list fetches concurrently, joins
// them, and returns the parsed event list in backend response order.
func (c *Client) Events(ctx context.Context) ([]model.CalendarEvent, error) {
	var (
		wg         sync.WaitGroup
		items      []model.PlanningItem
		clients    []model.Client
		itemsErr   error
		clientsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		items, itemsErr = c.PlanningList(ctx)
	}()
	go func() {
		defer wg.Done()
		clients, clientsErr = c.Clients(ctx)
	}()
	wg.Wait()

	if itemsErr != nil {
		return nil, itemsErr
	}
	if clientsErr != nil {
		return nil, clientsErr
	}

	names := make(map[int]string, len(clients))
	for _, cl := range clients {
		names[cl.ID] = cl.Name
	}

	events := ParseEvents(items, names)
	appLog.Info("planning events loaded",
		"records", len(items),
		"events", len(events),
		"clients", len(clients),
	)
	return events, nil
}
