package jobs

import (
	"log"
	"strconv"
	"time"

	config "github.com/kiptoo95/skill_exchange/configs"
	"github.com/kiptoo95/skill_exchange/database"
	"github.com/kiptoo95/skill_exchange/notifications"
)

// CleanupStaleDeviceTokens bulk-deletes device registrations that have not
// been used within the configured inactivity window (default 90 days).
func CleanupStaleDeviceTokens() {
	log.Println("Running job: CleanupStaleDeviceTokens...")

	days := 90
	if v := config.Config("DEVICE_TOKEN_MAX_IDLE_DAYS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			days = parsed
		}
	}

	tokens := notifications.NewDeviceTokenService(database.DB)
	pruned, err := tokens.PruneInactive(time.Duration(days) * 24 * time.Hour)
	if err != nil {
		log.Printf("🔥 Failed to prune stale device tokens: %v", err)
		return
	}
	if pruned > 0 {
		log.Printf("✅ Pruned %d stale device token(s)", pruned)
	}
}
