package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-cinema-reservation/internal/domain/reservation"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

type CreateReservationRequest struct {
	ScreeningID int64 `json:"screening_id" validate:"required,gt=0" example:"12"`
	SeatCount   int   `json:"seat_count" validate:"required,min=1,max=10" example:"2"`
}

type AllocateSeatsRequest struct {
	SeatIDs []int64 `json:"seat_ids" validate:"required,min=1,max=20,dive,gt=0" example:"101,102"`
}

type TransitionStatusRequest struct {
	Status string `json:"status" validate:"required" example:"paid"`
}

type ReservationResponse struct {
	ID          int64      `json:"id" example:"34"`
	UserID      int64      `json:"user_id" example:"7"`
	ScreeningID int64      `json:"screening_id" example:"12"`
	Status      string     `json:"status" example:"pending"`
	Total       int        `json:"total" example:"3200"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type AssignmentResponse struct {
	SeatID int64  `json:"seat_id" example:"101"`
	Row    string `json:"row" example:"C"`
	Number int    `json:"number" example:"4"`
	Label  string `json:"label" example:"C4"`
	Price  int    `json:"price" example:"1600"`
}

type AllocationResponse struct {
	Seats []AssignmentResponse `json:"seats"`
	Count int                  `json:"count" example:"2"`
	Total int                  `json:"total" example:"3200"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID: r.ID, UserID: r.UserID, ScreeningID: r.ScreeningID,
		Status: string(r.Status), Total: r.Total,
		ExpiresAt: r.ExpiresAt, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func toAssignmentResponses(assignments []reservation.Assignment) []AssignmentResponse {
	resp := make([]AssignmentResponse, len(assignments))
	for i, a := range assignments {
		resp[i] = AssignmentResponse{
			SeatID: a.SeatID, Row: a.Row, Number: a.Number, Label: a.Label, Price: a.Price,
		}
	}
	return resp
}

// userIDFromContext はJWTミドルウェアが設定したユーザーIDを取り出す
func userIDFromContext(c echo.Context) (int64, error) {
	id, ok := c.Get("user_id").(int64)
	if !ok || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
	}
	return id, nil
}

// Create godoc
// @Summary 予約を作成
// @Description 上映に対する仮押さえを作成します（15分間有効）
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body CreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}
	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.CreateReservation(c.Request().Context(), userID, req.ScreeningID, req.SeatCount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toReservationResponse(r))
}

// AllocateSeats godoc
// @Summary 予約に座席を割当てる
// @Description 保留中の予約に座席集合を追加します。1席でも取得済みなら全体が失敗します
// @Tags reservations
// @Accept json
// @Produce json
// @Param id path int true "予約ID"
// @Param request body AllocateSeatsRequest true "座席ID一覧"
// @Success 200 {object} AllocationResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "座席が既に取得済み"
// @Router /reservations/{id}/seats [post]
func (h *ReservationHandler) AllocateSeats(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req AllocateSeatsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	result, err := h.service.AllocateSeats(c.Request().Context(), id, req.SeatIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AllocationResponse{
		Seats: toAssignmentResponses(result.Assignments),
		Count: len(result.Assignments),
		Total: result.Total,
	})
}

// TransitionStatus godoc
// @Summary 予約の状態を遷移させる
// @Description 目標状態（pending / paid / cancelled）を指定して遷移します
// @Tags reservations
// @Accept json
// @Produce json
// @Param id path int true "予約ID"
// @Param request body TransitionStatusRequest true "目標状態"
// @Success 200 {object} ReservationResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id}/status [patch]
func (h *ReservationHandler) TransitionStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req TransitionStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	target, err := reservation.ParseStatus(req.Status)
	if err != nil {
		return err
	}
	r, err := h.service.TransitionStatus(c.Request().Context(), id, target)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// GetByID godoc
// @Summary 予約を取得
// @Tags reservations
// @Produce json
// @Param id path int true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	r, err := h.service.GetReservation(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// GetSeats godoc
// @Summary 予約の座席一覧を取得
// @Tags reservations
// @Produce json
// @Param id path int true "予約ID"
// @Success 200 {object} AllocationResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id}/seats [get]
func (h *ReservationHandler) GetSeats(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	assignments, err := h.service.GetReservationSeats(c.Request().Context(), id)
	if err != nil {
		return err
	}
	total := 0
	for _, a := range assignments {
		total += a.Price
	}
	return c.JSON(http.StatusOK, AllocationResponse{
		Seats: toAssignmentResponses(assignments),
		Count: len(assignments),
		Total: total,
	})
}

// List godoc
// @Summary 自分の予約一覧を取得
// @Tags reservations
// @Produce json
// @Param screening_id query int false "上映ID"
// @Param status query string false "状態（pending / paid / cancelled）"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} ReservationResponse
// @Failure 401 {object} api.ErrorResponse
// @Router /reservations [get]
func (h *ReservationHandler) List(c echo.Context) error {
	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}
	filter := reservation.ListFilter{UserID: &userID}
	if v := c.QueryParam("screening_id"); v != "" {
		screeningID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "screening_idが不正です")
		}
		filter.ScreeningID = &screeningID
	}
	if v := c.QueryParam("status"); v != "" {
		status, err := reservation.ParseStatus(v)
		if err != nil {
			return err
		}
		filter.Status = &status
	}
	filter.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	filter.Offset, _ = strconv.Atoi(c.QueryParam("offset"))

	reservations, err := h.service.ListReservations(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	resp := make([]ReservationResponse, len(reservations))
	for i, r := range reservations {
		resp[i] = toReservationResponse(r)
	}
	return c.JSON(http.StatusOK, resp)
}

// parseIDParam はパスパラメータを正のint64として読む
func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "IDが不正です")
	}
	return id, nil
}
