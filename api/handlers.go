package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"tasklist-api/domain"
)

const requestBodyMaxSize = 1 << 16

const storageUnavailableMsg = "storage unavailable"

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, auth Authenticator, logger *log.Logger) {
	e.POST("/api/v1/lists", createList(store, auth))
	e.GET("/api/v1/lists", getLists(store, auth))
	e.DELETE("/api/v1/lists", deleteList(store, auth, logger))

	e.GET("/api/v1/tasks", getTasks(store, auth, logger))
	e.POST("/api/v1/tasks", createTask(store, auth))
	e.PUT("/api/v1/tasks", updateTask(store, auth))
	e.DELETE("/api/v1/tasks", deleteTask(store, auth))

	e.GET("/healthz", healthz(store))
}

func healthz(_ Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func currentUser(c echo.Context, auth Authenticator) (domain.User, error) {
	return auth.UserFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
}

// decodeBody decodes the JSON request body into v. Unknown fields are
// ignored, so client-supplied values for server-assigned fields (id, owner)
// never reach the handlers.
func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	return sonic.ConfigStd.NewDecoder(lr).Decode(v)
}

// documentID validates the _id query parameter as a UUID and returns its
// canonical string form.
func documentID(c echo.Context) (string, error) {
	id, err := uuid.Parse(c.QueryParam("_id"))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func createList(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		user, err := currentUser(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var in domain.TaskList
		if err := decodeBody(c, &in); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if in.Name == "" {
			return c.String(http.StatusBadRequest, "name is required")
		}

		rec := domain.TaskListRecord{
			ID:       uuid.NewString(),
			Name:     in.Name,
			Username: user.Username,
		}
		if err := store.InsertList(ctx, rec); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusServiceUnavailable, storageUnavailableMsg)
		}

		created, err := store.GetList(ctx, rec.ID)
		if err != nil || created == nil {
			c.Logger().Error(err)
			return c.String(http.StatusServiceUnavailable, storageUnavailableMsg)
		}
		return c.JSON(http.StatusOK, created)
	}
}

func getLists(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		user, err := currentUser(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		lists, err := store.ListsByOwner(ctx, user.Username)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusServiceUnavailable, storageUnavailableMsg)
		}
		return c.JSON(http.StatusOK, lists)
	}
}

func deleteList(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		user, err := currentUser(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		id, err := documentID(c)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid id")
		}

		list, err := store.GetList(ctx, id)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusServiceUnavailable, storageUnavailableMsg)
		}
		if err := domain.CheckOwner(user, list); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		if err := store.DeleteList(ctx, id); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusServiceUnavailable, storageUnavailableMsg)
		}

		// The cascade is not atomic with the list delete; a failure here
		// leaves orphaned tasks with a dangling list_id.
		deleted, err := store.DeleteTasksByList(ctx, id)
		if err != nil {
			logger.WithFields(log.Fields{"list_id": id, "tasks_deleted": deleted}).Errorf("cascade delete: %v", err)
			return c.String(http.StatusServiceUnavailable, storageUnavailableMsg)
		}
		logger.WithFields(log.Fields{"list_id": id, "tasks_deleted": deleted}).Debug("list deleted")

		return c.NoContent(http.StatusOK)
	}
}

func getTasks(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newTaskRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		user, authErr := currentUser(c, auth)
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		listID, parseErr := uuid.Parse(c.QueryParam("list_id"))
		if parseErr != nil {
			metrics.SetErrorStage("invalid_list_id")
			err = c.String(http.StatusBadRequest, "invalid list_id")
			return err
		}
		complete, parseErr := strconv.ParseBool(c.QueryParam("complete"))
		if parseErr != nil {
			metrics.SetErrorStage("invalid_complete")
			err = c.String(http.StatusBadRequest, "invalid complete")
			return err
		}
		var pinned *bool
		if raw := c.QueryParam("pinned"); raw != "" {
			v, parseErr := strconv.ParseBool(raw)
			if parseErr != nil {
				metrics.SetErrorStage("invalid_pinned")
				err = c.String(http.StatusBadRequest, "invalid pinned")
				return err
			}
			pinned = &v
		}

		fetchStart := time.Now()
		tasks, fetchErr := store.QueryTasks(ctx, user.Username, listID.String(), complete, pinned)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.String(http.StatusServiceUnavailable, storageUnavailableMsg)
			return err
		}
		metrics.SetTasksReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasks)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func createTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		user, err := currentUser(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var in domain.Task
		if err := decodeBody(c, &in); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if in.Task == "" {
			return c.String(http.StatusBadRequest, "task is required")
		}
		listID, err := uuid.Parse(in.ListID)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid list_id")
		}

		rec := domain.TaskRecord{
			ID:       uuid.NewString(),
			Task:     in.Task,
			ListID:   listID.String(),
			Notes:    in.Notes,
			Complete: in.Complete,
			Pinned:   in.Pinned,
			Username: user.Username,
		}
		if err := store.InsertTask(ctx, rec); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusServiceUnavailable, storageUnavailableMsg)
		}

		created, err := store.GetTask(ctx, rec.ID)
		if err != nil || created == nil {
			c.Logger().Error(err)
			return c.String(http.StatusServiceUnavailable, storageUnavailableMsg)
		}
		return c.JSON(http.StatusOK, created)
	}
}

func updateTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		user, err := currentUser(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		id, err := documentID(c)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid id")
		}

		existing, err := store.GetTask(ctx, id)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusServiceUnavailable, storageUnavailableMsg)
		}
		if err := domain.CheckOwner(user, existing); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		var upd domain.TaskUpdate
		if err := decodeBody(c, &upd); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if upd.ListID != nil && *upd.ListID != "" {
			if _, err := uuid.Parse(*upd.ListID); err != nil {
				return c.String(http.StatusBadRequest, "invalid list_id")
			}
		}

		patch := domain.ComputePatch(*existing, upd)
		if !patch.Empty() {
			if err := store.UpdateTask(ctx, id, patch); err != nil {
				c.Logger().Error(err)
				return c.String(http.StatusServiceUnavailable, storageUnavailableMsg)
			}
		}

		updated, err := store.GetTask(ctx, id)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusServiceUnavailable, storageUnavailableMsg)
		}
		if updated == nil {
			return c.String(http.StatusBadRequest, domain.ErrInvalidDocument.Error())
		}
		return c.JSON(http.StatusOK, updated)
	}
}

func deleteTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		user, err := currentUser(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		id, err := documentID(c)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid id")
		}

		task, err := store.GetTask(ctx, id)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusServiceUnavailable, storageUnavailableMsg)
		}
		if err := domain.CheckOwner(user, task); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		if err := store.DeleteTask(ctx, id); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusServiceUnavailable, storageUnavailableMsg)
		}
		return c.NoContent(http.StatusOK)
	}
}
