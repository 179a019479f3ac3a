package mcp

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/google/uuid"
)

type serviceInput struct {
	ServiceID string `json:"service_id" jsonschema:"required"`
	Quantity  int    `json:"quantity,omitempty"`
}

func parseDate(value string, fallback domain.Date) (domain.Date, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return domain.Date{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return d, nil
}

func parseTime(value string) (domain.TimeOfDay, error) {
	t, err := domain.ParseTimeOfDay(value)
	if err != nil {
		return 0, fmt.Errorf("invalid time format, use HH:MM: %w", err)
	}
	return t, nil
}

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

func parseOptionalUUID(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := parseUUID(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := parseUUID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func quantityOrOne(q int) int {
	if q <= 0 {
		return 1
	}
	return q
}

func serviceRequests(items []serviceInput) ([]commands.ServiceRequest, error) {
	out := make([]commands.ServiceRequest, 0, len(items))
	for _, it := range items {
		id, err := parseUUID(it.ServiceID)
		if err != nil {
			return nil, fmt.Errorf("service: %w", err)
		}
		out = append(out, commands.ServiceRequest{ServiceID: id, Quantity: quantityOrOne(it.Quantity)})
	}
	return out, nil
}

func serviceQuantities(items []serviceInput) ([]queries.ServiceQuantity, error) {
	out := make([]queries.ServiceQuantity, 0, len(items))
	for _, it := range items {
		id, err := parseUUID(it.ServiceID)
		if err != nil {
			return nil, fmt.Errorf("service: %w", err)
		}
		out = append(out, queries.ServiceQuantity{ServiceID: id, Quantity: quantityOrOne(it.Quantity)})
	}
	return out, nil
}
