package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/kiptoo95/skill_exchange/models"
	"github.com/kiptoo95/skill_exchange/notifications"
)

// Wired in cmd/notify before routes are registered.
var (
	DeliveryLogs *notifications.DeliveryLogService
	DeviceTokens *notifications.DeviceTokenService
)

type RegisterDeviceRequest struct {
	Token      string  `json:"token" validate:"required"`
	Platform   string  `json:"platform" validate:"required,oneof=ANDROID IOS WEB"`
	DeviceName *string `json:"device_name,omitempty"`
	OSVersion  *string `json:"os_version,omitempty"`
	AppVersion *string `json:"app_version,omitempty"`
}

func RegisterDevice(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req RegisterDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	token, err := DeviceTokens.Register(userID, notifications.RegisterDeviceInput{
		Token:      req.Token,
		Platform:   req.Platform,
		DeviceName: req.DeviceName,
		OSVersion:  req.OSVersion,
		AppVersion: req.AppVersion,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register device"})
	}
	return c.Status(fiber.StatusCreated).JSON(token)
}

type UnregisterDeviceRequest struct {
	Token string `json:"token" validate:"required"`
}

func UnregisterDevice(c *fiber.Ctx) error {
	var req UnregisterDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := DeviceTokens.Unregister(req.Token); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Device token not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to unregister device"})
	}
	return c.JSON(fiber.Map{"message": "Device unregistered"})
}

func GetMyNotifications(c *fiber.Ctx) error {
	userID := currentUserID(c)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	if status := c.Query("status"); status != "" {
		if status != models.NotificationSent && status != models.NotificationFailed {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
		}
		entries, err := DeliveryLogs.ListByStatus(userID, status)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
		}
		return c.JSON(entries)
	}

	entries, err := DeliveryLogs.ListByRecipient(userID, pageSize, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
	}
	return c.JSON(entries)
}

func GetNotificationsByReference(c *fiber.Ctx) error {
	refID := c.Params("refId")
	entries, err := DeliveryLogs.ListByReference(refID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
	}
	return c.JSON(entries)
}

func GetNotificationCounts(c *fiber.Ctx) error {
	counts, err := DeliveryLogs.Counts(currentUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count notifications"})
	}
	return c.JSON(counts)
}
