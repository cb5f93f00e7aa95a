package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"assignmint.com/assignmint/internal/constants"
	dto "assignmint.com/assignmint/internal/data_models"
	apperrors "assignmint.com/assignmint/internal/errors"
	middleware "assignmint.com/assignmint/internal/http/middlewares"
	"assignmint.com/assignmint/internal/http/validators"
	model "assignmint.com/assignmint/internal/models"
	"assignmint.com/assignmint/internal/services"
)

type Handler struct {
	tasks         *services.TaskService
	matching      *services.MatchingService
	delivery      *services.DeliveryService
	notifications *services.NotificationService
	logger        *zap.Logger
}

func NewHandler(
	tasks *services.TaskService,
	matching *services.MatchingService,
	delivery *services.DeliveryService,
	notifications *services.NotificationService,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		tasks:         tasks,
		matching:      matching,
		delivery:      delivery,
		notifications: notifications,
		logger:        logger,
	}
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *Handler) CreateTask(c echo.Context) error {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		return err
	}
	if id.Role == constants.RoleExpert {
		return apperrors.ErrForbidden.WithMessage("only requesters can post tasks")
	}

	var req dto.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ErrInvalidJSON
	}
	if err := validators.ValidateCreateTaskRequest(&req); err != nil {
		return err
	}

	task, err := h.tasks.Create(c.Request().Context(), services.Requester{ID: id.ID, Name: id.Name}, services.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Subject:      req.Subject,
		Tags:         req.Tags,
		Urgency:      constants.Urgency(req.Urgency),
		Budget:       req.Budget,
		Deadline:     req.Deadline,
		MatchingType: constants.MatchingType(req.MatchingType),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, task)
}

func (h *Handler) GetTask(c echo.Context) error {
	task, err := h.tasks.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) RecordView(c echo.Context) error {
	if err := h.tasks.RecordView(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListAvailable(c echo.Context) error {
	filter, err := feedFilter(c)
	if err != nil {
		return err
	}

	tasks, err := h.matching.ListAvailable(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, taskList(tasks))
}

func (h *Handler) AcceptTask(c echo.Context) error {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		return err
	}
	if id.Role == constants.RoleRequester {
		return apperrors.ErrForbidden.WithMessage("only experts can accept tasks")
	}

	task, err := h.matching.Accept(c.Request().Context(), c.Param("id"), services.ExpertProfile{ID: id.ID, Name: id.Name})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) SubmitDelivery(c echo.Context) error {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		return err
	}

	var req dto.DeliveryRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ErrInvalidJSON
	}
	if err := validators.ValidateDeliveryRequest(&req); err != nil {
		return err
	}

	files := make([]model.DeliveryFile, len(req.Files))
	for i, f := range req.Files {
		files[i] = model.DeliveryFile{Name: f.Name, Size: f.Size, Category: f.Category, URL: f.URL}
	}

	task, err := h.delivery.SubmitDelivery(c.Request().Context(), c.Param("id"), id.ID, services.DeliveryPayload{
		Files:   files,
		Message: req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) ApplyAction(c echo.Context) error {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		return err
	}

	var req dto.TaskActionRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ErrInvalidJSON
	}
	if err := validators.ValidateTaskActionRequest(&req); err != nil {
		return err
	}

	task, err := h.delivery.ApplyAction(
		c.Request().Context(),
		c.Param("id"),
		services.Actor{ID: id.ID, Role: id.Role},
		constants.TaskAction(req.Action),
		services.ActionData{Reason: req.Reason, Notes: req.Notes},
	)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) MyTasks(c echo.Context) error {
	id, role, err := callerWithRole(c)
	if err != nil {
		return err
	}

	var limit int
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return apperrors.ErrValidation.WithMessage("limit must be an integer")
	}

	tasks, err := h.tasks.ListForUser(c.Request().Context(), id.ID, role, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, taskList(tasks))
}

func (h *Handler) MyStats(c echo.Context) error {
	id, role, err := callerWithRole(c)
	if err != nil {
		return err
	}

	stats, err := h.tasks.Stats(c.Request().Context(), id.ID, role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListNotifications(c echo.Context) error {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		return err
	}

	var (
		unread bool
		limit  int
	)
	if err := echo.QueryParamsBinder(c).Bool("unread", &unread).Int("limit", &limit).BindError(); err != nil {
		return apperrors.ErrValidation.WithMessage("unread must be a boolean and limit an integer")
	}

	list, err := h.notifications.ListForUser(c.Request().Context(), id.ID, unread, limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []model.Notification{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":         len(list),
		"notifications": list,
	})
}

func (h *Handler) MarkNotificationRead(c echo.Context) error {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		return err
	}

	if err := h.notifications.MarkRead(c.Request().Context(), c.Param("id"), id.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) TaskNotifications(c echo.Context) error {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		return err
	}

	list, err := h.notifications.ListForTask(c.Request().Context(), c.Param("id"), id.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":         len(list),
		"notifications": list,
	})
}

func callerWithRole(c echo.Context) (middleware.Identity, constants.Role, error) {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		return id, "", err
	}
	role := id.Role
	if q := c.QueryParam("role"); q != "" {
		role = constants.Role(q)
	}
	return id, role, nil
}

func feedFilter(c echo.Context) (services.FeedFilter, error) {
	var (
		filter    services.FeedFilter
		sort      string
		maxBudget float64
	)
	err := echo.QueryParamsBinder(c).
		String("subject", &filter.Subject).
		String("urgency", &filter.Urgency).
		String("sort", &sort).
		Float64("maxBudget", &maxBudget).
		Int("limit", &filter.Limit).
		BindError()
	if err != nil {
		return filter, apperrors.ErrValidation.WithMessage("maxBudget must be a number and limit an integer")
	}

	filter.Sort = constants.SortKey(sort)
	if c.QueryParam("maxBudget") != "" {
		filter.MaxBudget = &maxBudget
	}
	return filter, nil
}

func taskList(tasks []model.Task) echo.Map {
	if tasks == nil {
		tasks = []model.Task{}
	}
	return echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	}
}
