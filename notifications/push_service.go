package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	config "github.com/kiptoo95/skill_exchange/configs"
	"github.com/kiptoo95/skill_exchange/models"
)

const pushTTLSeconds = 259200 // 3 days

type OneSignalService struct {
	AppID  string
	APIKey string
	APIURL string
	db     *gorm.DB
	client *http.Client
}

func NewPushService(db *gorm.DB) *OneSignalService {
	appID := config.Config("ONESIGNAL_APP_ID")
	apiKey := config.Config("ONESIGNAL_API_KEY")
	apiURL := config.ConfigOr("ONESIGNAL_API_URL", "https://onesignal.com/api/v1/notifications")

	if appID == "" || apiKey == "" {
		log.Println("⚠️ Push gateway not configured. Mobile push will be skipped.")
	} else {
		log.Println("✅ Push service initialized")
	}

	return &OneSignalService{
		AppID:  appID,
		APIKey: apiKey,
		APIURL: apiURL,
		db:     db,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *OneSignalService) configured() bool {
	return s.AppID != "" && s.APIKey != ""
}

type oneSignalPayload struct {
	AppID            string            `json:"app_id"`
	IncludePlayerIDs []string          `json:"include_player_ids"`
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	URL              string            `json:"url,omitempty"`
	Data             map[string]string `json:"data,omitempty"`
	TTL              int               `json:"ttl"`
}

// SendToUser pushes one notification to every active device of the user.
// attempted is false when the gateway is unconfigured or the user has no
// active devices; neither case is an error.
func (s *OneSignalService) SendToUser(ctx context.Context, userID uuid.UUID, title, message, actionURL string, data map[string]string) (attempted bool, err error) {
	if !s.configured() {
		log.Printf("Push gateway not configured, skipping push for user %s", userID)
		return false, nil
	}

	var tokens []models.DeviceToken
	if err := s.db.Where("user_id = ? AND active = ?", userID, true).Find(&tokens).Error; err != nil {
		return true, fmt.Errorf("lookup device tokens: %v", err)
	}
	if len(tokens) == 0 {
		log.Printf("No active devices for user %s, skipping push", userID)
		return false, nil
	}

	playerIDs := make([]string, 0, len(tokens))
	for _, t := range tokens {
		playerIDs = append(playerIDs, t.Token)
	}

	payload := oneSignalPayload{
		AppID:            s.AppID,
		IncludePlayerIDs: playerIDs,
		Headings:         map[string]string{"en": title},
		Contents:         map[string]string{"en": message},
		URL:              actionURL,
		Data:             data,
		TTL:              pushTTLSeconds,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return true, fmt.Errorf("failed to marshal payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.APIURL, bytes.NewBuffer(body))
	if err != nil {
		return true, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("Authorization", "Basic "+s.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return true, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("OneSignal API error: Status %d, Body: %s", resp.StatusCode, string(bodyBytes))
		return true, fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}

	log.Printf("✅ Push sent to %d device(s) of user %s", len(playerIDs), userID)
	return true, nil
}
