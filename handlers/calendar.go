package handlers

import (
	"context"
	"errors"
	"net/http"

	"meetbot/models"
	"meetbot/services/availability"
	"meetbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// sourceDeleter is implemented by stores that can drop a previous import.
type sourceDeleter interface {
	DeleteBySource(ctx context.Context, participant, source string) (int64, error)
}

// CalendarHandler imports exported calendar events as busy intervals.
type CalendarHandler struct {
	Store availability.Writer
}

func NewCalendarHandler(store availability.Writer) *CalendarHandler {
	return &CalendarHandler{Store: store}
}

// ParseCalendarHandler converts each result's events into busy intervals,
// replaces what was imported earlier from the same calendar and returns the
// intervals grouped by email and date.
func (h *CalendarHandler) ParseCalendarHandler(c *gin.Context) {
	logger := getLogger(c)
	ctx := c.Request.Context()

	var input models.CalendarInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	// Every result is parsed before the store is touched, so a bad event
	// leaves earlier imports in place.
	parsed := make([]map[string][]models.BusyInterval, len(input.Results))
	for i, r := range input.Results {
		byDate, err := availability.ParseCalendarEvents(r.Events)
		if err != nil {
			var fe *availability.FormatError
			if errors.As(err, &fe) {
				utils.JSONError(c, http.StatusBadRequest, "Invalid calendar event", fe.Error())
				return
			}
			utils.JSONError(c, http.StatusInternalServerError, "Failed to parse calendar", err.Error())
			return
		}
		parsed[i] = byDate
	}

	result := models.Schedules{}
	for i, r := range input.Results {
		source := calendarSource(r)
		if d, ok := h.Store.(sourceDeleter); ok {
			removed, err := d.DeleteBySource(ctx, r.Email, source)
			if err != nil {
				logger.Error("Failed to clear previous import", zap.String("email", r.Email), zap.Error(err))
				utils.JSONError(c, http.StatusInternalServerError, "Failed to store busy intervals", err.Error())
				return
			}
			if removed > 0 {
				logger.Debug("Previous import cleared", zap.String("email", r.Email), zap.Int64("removed", removed))
			}
		}

		days, ok := result[r.Email]
		if !ok {
			days = map[string][]models.BusyInterval{}
			result[r.Email] = days
		}
		for date, intervals := range parsed[i] {
			if err := h.Store.AddBusyIntervals(ctx, r.Email, date, intervals, source); err != nil {
				logger.Error("Failed to store busy intervals", zap.String("email", r.Email), zap.String("date", date), zap.Error(err))
				utils.JSONError(c, http.StatusInternalServerError, "Failed to store busy intervals", err.Error())
				return
			}
			days[date] = append(days[date], intervals...)
		}
	}

	logger.Info("Calendar import complete", zap.Int("participants", len(result)))
	c.JSON(http.StatusOK, result)
}

func calendarSource(r models.CalendarResult) string {
	if r.CalendarID != "" {
		return "calendar:" + r.CalendarID
	}
	return "calendar:" + r.Email
}
