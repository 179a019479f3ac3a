package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
)

// Client is a customer who books services.
type Client struct {
	sharedDomain.BaseEntity
	name   string
	active bool
}

// NewClient registers an active client.
func NewClient(name string, now time.Time) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, sharedDomain.NewFieldError("name", "is required")
	}
	return &Client{
		BaseEntity: sharedDomain.NewBaseEntity(now),
		name:       name,
		active:     true,
	}, nil
}

// RehydrateClient recreates a client from persisted state.
func RehydrateClient(id uuid.UUID, name string, active bool, createdAt, updatedAt time.Time) *Client {
	return &Client{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		name:       name,
		active:     active,
	}
}

func (c *Client) Name() string   { return c.name }
func (c *Client) IsActive() bool { return c.active }
