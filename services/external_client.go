package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SkillDetails is what the skill catalog resolves a skill reference to.
type SkillDetails struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	Name         string    `json:"name"`
	PricePerHour float64   `json:"pricePerHour"`
}

// UserDetails is what the user directory resolves a user id to.
type UserDetails struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Directory is the lookup boundary the booking core consumes. The skill
// catalog and user directory live in other services.
type Directory interface {
	GetSkill(ctx context.Context, skillID uuid.UUID) (*SkillDetails, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*UserDetails, error)
}

type ExternalClient struct {
	SkillServiceURL string
	UserServiceURL  string
	client          *http.Client
}

func NewExternalClient(skillServiceURL, userServiceURL string) *ExternalClient {
	return &ExternalClient{
		SkillServiceURL: skillServiceURL,
		UserServiceURL:  userServiceURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (e *ExternalClient) GetSkill(ctx context.Context, skillID uuid.UUID) (*SkillDetails, error) {
	url := fmt.Sprintf("%s/api/v1/skills/%s", e.SkillServiceURL, skillID)

	var skill SkillDetails
	if err := e.getJSON(ctx, url, &skill); err != nil {
		return nil, fmt.Errorf("fetch skill %s: %w", skillID, err)
	}
	return &skill, nil
}

func (e *ExternalClient) GetUser(ctx context.Context, userID uuid.UUID) (*UserDetails, error) {
	url := fmt.Sprintf("%s/api/v1/users/%s", e.UserServiceURL, userID)

	var user UserDetails
	if err := e.getJSON(ctx, url, &user); err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", userID, err)
	}
	return &user, nil
}

func (e *ExternalClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
