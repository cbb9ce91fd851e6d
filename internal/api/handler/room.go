package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type RoomHandler struct {
	service CatalogServiceInterface
}

func NewRoomHandler(s CatalogServiceInterface) *RoomHandler {
	return &RoomHandler{service: s}
}

type RoomSeatsResponse struct {
	RoomID   int64          `json:"room_id" example:"1"`
	RoomName string         `json:"room_name" example:"スクリーン1"`
	Seats    []SeatResponse `json:"seats"`
}

type SeatResponse struct {
	ID     int64  `json:"id" example:"101"`
	Row    string `json:"row" example:"C"`
	Number int    `json:"number" example:"4"`
	Label  string `json:"label" example:"C4"`
}

// GetSeats godoc
// @Summary スクリーンの座席レイアウトを取得
// @Tags rooms
// @Produce json
// @Param id path int true "スクリーンID"
// @Success 200 {object} RoomSeatsResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /rooms/{id}/seats [get]
func (h *RoomHandler) GetSeats(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	rs, err := h.service.GetRoomSeats(c.Request().Context(), id)
	if err != nil {
		return err
	}
	seats := make([]SeatResponse, len(rs.Seats))
	for i, s := range rs.Seats {
		seats[i] = SeatResponse{ID: s.ID, Row: s.Row, Number: s.Number, Label: s.Label}
	}
	return c.JSON(http.StatusOK, RoomSeatsResponse{
		RoomID:   rs.Room.ID,
		RoomName: rs.Room.Name,
		Seats:    seats,
	})
}
