package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-cinema-reservation/internal/application"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/screening"
)

type ScreeningHandler struct {
	service CatalogServiceInterface
}

func NewScreeningHandler(s CatalogServiceInterface) *ScreeningHandler {
	return &ScreeningHandler{service: s}
}

type ScreeningResponse struct {
	ID       int64     `json:"id" example:"12"`
	MovieID  int64     `json:"movie_id" example:"3"`
	RoomID   int64     `json:"room_id" example:"1"`
	StartsAt time.Time `json:"starts_at"`
	Language string    `json:"language" example:"字幕"`
	Format   string    `json:"format" example:"2D"`
	Price    int       `json:"price" example:"1600"`
}

type AvailabilityResponse struct {
	ScreeningID    int64 `json:"screening_id" example:"12"`
	AvailableSeats int   `json:"available_seats" example:"84"`
}

type SeatMapEntryResponse struct {
	SeatID int64  `json:"seat_id" example:"101"`
	Row    string `json:"row" example:"C"`
	Number int    `json:"number" example:"4"`
	Label  string `json:"label" example:"C4"`
	Taken  bool   `json:"taken" example:"false"`
}

func toScreeningResponse(s *screening.Screening) ScreeningResponse {
	return ScreeningResponse{
		ID: s.ID, MovieID: s.MovieID, RoomID: s.RoomID,
		StartsAt: s.StartsAt, Language: s.Language, Format: s.Format, Price: s.Price,
	}
}

// List godoc
// @Summary 上映一覧を取得
// @Tags screenings
// @Produce json
// @Param movie_id query int false "映画ID"
// @Param room_id query int false "スクリーンID"
// @Param from query string false "開始時刻の下限（RFC3339）"
// @Param to query string false "開始時刻の上限（RFC3339）"
// @Success 200 {array} ScreeningResponse
// @Router /screenings [get]
func (h *ScreeningHandler) List(c echo.Context) error {
	var filter screening.ListFilter
	if v := c.QueryParam("movie_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "movie_idが不正です")
		}
		filter.MovieID = &id
	}
	if v := c.QueryParam("room_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "room_idが不正です")
		}
		filter.RoomID = &id
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "fromが不正です")
		}
		filter.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "toが不正です")
		}
		filter.To = &t
	}

	screenings, err := h.service.ListScreenings(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	resp := make([]ScreeningResponse, len(screenings))
	for i, s := range screenings {
		resp[i] = toScreeningResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary 上映を取得
// @Tags screenings
// @Produce json
// @Param id path int true "上映ID"
// @Success 200 {object} ScreeningResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /screenings/{id} [get]
func (h *ScreeningHandler) GetByID(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	s, err := h.service.GetScreening(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toScreeningResponse(s))
}

// GetAvailability godoc
// @Summary 上映の空席数を取得
// @Tags screenings
// @Produce json
// @Param id path int true "上映ID"
// @Success 200 {object} AvailabilityResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /screenings/{id}/availability [get]
func (h *ScreeningHandler) GetAvailability(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	count, err := h.service.GetAvailableSeatCount(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{ScreeningID: id, AvailableSeats: count})
}

// GetSeatMap godoc
// @Summary 上映の座席マップを取得
// @Description 全座席と割当済みフラグを返します
// @Tags screenings
// @Produce json
// @Param id path int true "上映ID"
// @Success 200 {array} SeatMapEntryResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /screenings/{id}/seats [get]
func (h *ScreeningHandler) GetSeatMap(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.service.GetSeatMap(c.Request().Context(), id)
	if err != nil {
		return err
	}
	resp := make([]SeatMapEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toSeatMapEntryResponse(e)
	}
	return c.JSON(http.StatusOK, resp)
}

func toSeatMapEntryResponse(e application.SeatMapEntry) SeatMapEntryResponse {
	return SeatMapEntryResponse{
		SeatID: e.Seat.ID, Row: e.Seat.Row, Number: e.Seat.Number,
		Label: e.Seat.Label, Taken: e.Taken,
	}
}
