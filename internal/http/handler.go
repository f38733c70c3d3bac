package http

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"

	"task-review-system.com/task-review-system/internal/constants"
	dto "task-review-system.com/task-review-system/internal/data_models"
	apperrors "task-review-system.com/task-review-system/internal/errors"
	"task-review-system.com/task-review-system/internal/http/validators"
	model "task-review-system.com/task-review-system/internal/models"
	repository "task-review-system.com/task-review-system/internal/repositories"
	"task-review-system.com/task-review-system/internal/services"
	"task-review-system.com/task-review-system/internal/workflow"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

type Handler struct {
	reviews *services.ReviewService
}

func NewHandler(reviews *services.ReviewService) *Handler {
	return &Handler{
		reviews: reviews,
	}
}

func (h *Handler) CreateTask(c echo.Context) error {
	if _, err := actorFrom(c, constants.RoleAdmin); err != nil {
		return httpError(err)
	}

	var req dto.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return httpError(apperrors.ErrInvalidJSON)
	}
	if err := validators.ValidateCreateTaskRequest(&req); err != nil {
		return httpError(err)
	}

	task, err := h.reviews.CreateTask(c.Request().Context(), repository.CreateTaskParams{
		Title:         req.Title,
		Description:   req.Description,
		CourseRef:     req.CourseRef,
		LearnerRef:    req.LearnerRef,
		AccessorRef:   req.AccessorRef,
		ResourceFiles: req.ResourceFiles,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, dto.NewTaskResponse(task))
}

func (h *Handler) DeleteTask(c echo.Context) error {
	if _, err := actorFrom(c, constants.RoleAdmin); err != nil {
		return httpError(err)
	}
	if err := h.reviews.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetTask(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return httpError(err)
	}

	task, err := h.reviews.ViewTask(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (h *Handler) TaskHistory(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return httpError(err)
	}
	if _, err := h.reviews.ViewTask(c.Request().Context(), c.Param("id"), actor); err != nil {
		return httpError(err)
	}

	events, err := h.reviews.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.EventListResponse{Count: len(events), Events: events})
}

func (h *Handler) ListTasks(c echo.Context) error {
	return h.listFor(c, constants.RoleAdmin, func(workflow.Actor) ([]model.Task, error) {
		return h.reviews.ListTasks(c.Request().Context())
	})
}

func (h *Handler) LearnerTasks(c echo.Context) error {
	return h.listFor(c, constants.RoleLearner, func(actor workflow.Actor) ([]model.Task, error) {
		return h.reviews.LearnerTasks(c.Request().Context(), actor.Ref)
	})
}

func (h *Handler) AccessorTasks(c echo.Context) error {
	return h.listFor(c, constants.RoleAccessor, func(actor workflow.Actor) ([]model.Task, error) {
		return h.reviews.AccessorTasks(c.Request().Context(), actor.Ref)
	})
}

func (h *Handler) AccessorPending(c echo.Context) error {
	return h.listFor(c, constants.RoleAccessor, func(actor workflow.Actor) ([]model.Task, error) {
		return h.reviews.AccessorPending(c.Request().Context(), actor.Ref)
	})
}

func (h *Handler) IQATasks(c echo.Context) error {
	return h.listFor(c, constants.RoleIQA, func(workflow.Actor) ([]model.Task, error) {
		return h.reviews.IQATasks(c.Request().Context())
	})
}

func (h *Handler) IQAPending(c echo.Context) error {
	return h.listFor(c, constants.RoleIQA, func(workflow.Actor) ([]model.Task, error) {
		return h.reviews.IQAPending(c.Request().Context())
	})
}

func (h *Handler) EQATasks(c echo.Context) error {
	return h.listFor(c, constants.RoleEQA, func(workflow.Actor) ([]model.Task, error) {
		return h.reviews.EQATasks(c.Request().Context())
	})
}

func (h *Handler) EQAPending(c echo.Context) error {
	return h.listFor(c, constants.RoleEQA, func(workflow.Actor) ([]model.Task, error) {
		return h.reviews.EQAPending(c.Request().Context())
	})
}

func (h *Handler) SubmitTask(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return httpError(err)
	}

	var req dto.SubmitTaskRequest
	if err := c.Bind(&req); err != nil {
		return httpError(apperrors.ErrInvalidJSON)
	}

	task, err := h.reviews.Submit(c.Request().Context(), c.Param("id"), actor, req.Content, req.Files)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (h *Handler) AssessTask(c echo.Context) error {
	return h.decide(c, h.reviews.Assess)
}

func (h *Handler) ReviewIQA(c echo.Context) error {
	return h.decide(c, h.reviews.ReviewIQA)
}

func (h *Handler) ReviewEQA(c echo.Context) error {
	return h.decide(c, h.reviews.ReviewEQA)
}

type decisionFunc func(ctx context.Context, taskID string, actor workflow.Actor, decision constants.Decision, feedback string) (*model.Task, error)

func (h *Handler) decide(c echo.Context, apply decisionFunc) error {
	actor, err := actorFrom(c)
	if err != nil {
		return httpError(err)
	}

	var req dto.DecisionRequest
	if err := c.Bind(&req); err != nil {
		return httpError(apperrors.ErrInvalidJSON)
	}
	if err := validators.ValidateDecisionRequest(&req); err != nil {
		return httpError(err)
	}

	task, err := apply(c.Request().Context(), c.Param("id"), actor, req.Result, req.Feedback)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (h *Handler) Summary(c echo.Context) error {
	if _, err := actorFrom(c); err != nil {
		return httpError(err)
	}

	summary, err := h.reviews.Summary(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) AuditReport(c echo.Context) error {
	if _, err := actorFrom(c, constants.RoleEQA, constants.RoleAdmin); err != nil {
		return httpError(err)
	}

	filter, err := auditFilterFrom(c)
	if err != nil {
		return httpError(err)
	}

	report, err := h.reviews.AuditReport(c.Request().Context(), filter)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// listFor renders a task list for a caller holding role.
func (h *Handler) listFor(c echo.Context, role constants.Role, load func(workflow.Actor) ([]model.Task, error)) error {
	actor, err := actorFrom(c, role)
	if err != nil {
		return httpError(err)
	}

	tasks, err := load(actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.NewTaskListResponse(tasks))
}

// actorFrom reads the caller's identity from the request headers. When roles
// are given the caller must hold one of them.
func actorFrom(c echo.Context, roles ...constants.Role) (workflow.Actor, error) {
	actor := workflow.Actor{
		Ref:  c.Request().Header.Get(HeaderUserID),
		Role: constants.Role(c.Request().Header.Get(HeaderUserRole)),
	}

	if actor.Ref == "" || actor.Role == "" {
		return workflow.Actor{}, apperrors.ErrActorRequired
	}
	if !actor.Role.Valid() {
		return workflow.Actor{}, fmt.Errorf("%w: role %q", apperrors.ErrUnknownActor, actor.Role)
	}
	if len(roles) > 0 && !slices.Contains(roles, actor.Role) {
		return workflow.Actor{}, fmt.Errorf("%w: %s may not use this endpoint", apperrors.ErrUnknownActor, actor.Role)
	}
	return actor, nil
}

func auditFilterFrom(c echo.Context) (workflow.AuditFilter, error) {
	var f workflow.AuditFilter

	if v := c.QueryParam("status"); v != "" {
		status, ok := constants.ParseTaskStatus(v)
		if !ok {
			return f, &workflow.ValidationError{Field: "status", Message: "is not a known status"}
		}
		f.Status = status
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		v := c.QueryParam(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, &workflow.ValidationError{Field: p.name, Message: "must be an RFC 3339 timestamp"}
		}
		*p.dst = &t
	}

	return f, nil
}

func httpError(err error) error {
	return echo.NewHTTPError(apperrors.StatusCode(err), dto.ErrorResponse{
		Kind:    apperrors.KindOf(err),
		Message: apperrors.PublicMessage(err),
	})
}
