package handlers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/kiptoo95/skill_exchange/services"
)

var validate = validator.New()

// Bookings is wired in cmd/api before routes are registered.
var Bookings *services.BookingService

type CreateBookingRequest struct {
	SkillID   string `json:"skill_id" validate:"required,uuid"`
	StartTime string `json:"start_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime   string `json:"end_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

func CreateBooking(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	skillID, _ := uuid.Parse(req.SkillID)
	startTime, _ := time.Parse(time.RFC3339, req.StartTime)
	endTime, _ := time.Parse(time.RFC3339, req.EndTime)

	booking, err := Bookings.Create(c.Context(), userID, services.CreateBookingInput{
		SkillID:   skillID,
		StartTime: startTime,
		EndTime:   endTime,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

func AcceptBooking(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	booking, err := Bookings.Accept(c.Context(), bookingID, currentUserID(c))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(booking)
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

func RejectBooking(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req ReasonRequest
	_ = c.BodyParser(&req)

	booking, err := Bookings.Reject(c.Context(), bookingID, currentUserID(c), req.Reason)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(booking)
}

func CompleteBooking(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	booking, err := Bookings.Complete(c.Context(), bookingID, currentUserID(c))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(booking)
}

func CancelBooking(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req ReasonRequest
	_ = c.BodyParser(&req)

	booking, err := Bookings.Cancel(c.Context(), bookingID, currentUserID(c), req.Reason)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(booking)
}

func GetBooking(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	booking, err := Bookings.GetBooking(bookingID, currentUserID(c))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(booking)
}

func GetBookingHistory(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	entries, err := Bookings.History(bookingID, currentUserID(c))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(entries)
}

func GetMyBookings(c *fiber.Ctx) error {
	bookings, err := Bookings.ListByUser(currentUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch bookings"})
	}
	return c.JSON(bookings)
}

func GetProviderBookings(c *fiber.Ctx) error {
	bookings, err := Bookings.ListByProvider(currentUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch bookings"})
	}
	return c.JSON(bookings)
}

func GetAllBookings(c *fiber.Ctx) error {
	bookings, err := Bookings.ListAll()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch bookings"})
	}
	return c.JSON(bookings)
}

func GetBookingStats(c *fiber.Ctx) error {
	stats, err := Bookings.Stats()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to calculate stats"})
	}
	return c.JSON(stats)
}

func currentUserID(c *fiber.Ctx) uuid.UUID {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))
	return userID
}

func bookingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrBookingNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotOwner), errors.Is(err, services.ErrNotParticipant):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidWindow),
		errors.Is(err, services.ErrSelfBooking),
		errors.Is(err, services.ErrInvalidTransition):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrConcurrentModification):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
