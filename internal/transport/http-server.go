package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/track-connections/connect-back/internal/config"
	"github.com/track-connections/connect-back/internal/db"
	"github.com/track-connections/connect-back/internal/service"
)

const (
	maxUploadBytes = 5 * 1024 * 1024
	maxUploadFiles = 5
)

type (
	RegisterReq struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=12"`
	}

	LoginReq struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	TokenResp struct {
		Token string `json:"token"`
	}

	LogEntryReq struct {
		Name      *string  `json:"name"`
		Company   *string  `json:"company"`
		Title     *string  `json:"title"`
		Email     *string  `json:"email" validate:"omitempty,email"`
		Phone     *string  `json:"phone"`
		Notes     *string  `json:"notes"`
		WhereMet  *string  `json:"where_met"`
		ContactID *uint64  `json:"contact_id"`
		Tags      []uint64 `json:"tags"`
	}

	ContactReq struct {
		Name     *string `json:"name"`
		Company  *string `json:"company"`
		Title    *string `json:"title"`
		Email    *string `json:"email" validate:"omitempty,email"`
		Phone    *string `json:"phone"`
		Notes    *string `json:"notes"`
		WhereMet *string `json:"where_met"`
	}

	FavoriteReq struct {
		IsFavorite *bool `json:"is_favorite" validate:"required"`
	}

	TagReq struct {
		Name  string  `json:"name" validate:"required"`
		Color *string `json:"color"`
	}

	ClaimReq struct {
		LogEntryID uint64 `json:"log_entry_id" validate:"required"`
	}

	TemplateReq struct {
		EmailTemplate *string `json:"email_template"`
		SMSTemplate   *string `json:"sms_template"`
	}

	CustomValidator struct {
		validator *validator.Validate
	}

	HTTPServer struct {
		db      *gorm.DB
		service *service.General
		logger  *zap.SugaredLogger
	}
)

func NewHTTPServer(lc fx.Lifecycle, cfg *config.Config, conn *gorm.DB, svc *service.General, logger *zap.SugaredLogger) *HTTPServer {
	e := echo.New()

	instance := HTTPServer{
		db:      conn,
		service: svc,
		logger:  logger,
	}

	e.POST("/auth/register", instance.Register)
	e.POST("/auth/login", instance.Login)

	logEntryG := e.Group("/log-entry")
	logEntryG.GET("", instance.LogEntryGet)
	logEntryG.POST("", instance.LogEntryCreate)
	logEntryG.GET("/favorites", instance.LogEntryFavorites)
	logEntryG.GET("/search", instance.LogEntrySearch)
	logEntryG.GET("/:id", instance.LogEntryGetByID)
	logEntryG.PATCH("/:id", instance.LogEntryUpdate)
	logEntryG.DELETE("/:id", instance.LogEntryDelete)
	logEntryG.PUT("/:id/favorite", instance.LogEntryFavorite)

	tagG := e.Group("/tag")
	tagG.GET("", instance.TagGet)
	tagG.POST("", instance.TagCreate)
	tagG.PATCH("/:id", instance.TagUpdate)
	tagG.DELETE("/:id", instance.TagDelete)
	tagG.GET("/:id/log-entries", instance.TagLogEntries)

	contactG := e.Group("/contact")
	contactG.GET("", instance.ContactGet)
	contactG.POST("", instance.ContactCreate)
	contactG.GET("/virtual", instance.ContactVirtual)
	contactG.PATCH("/:id", instance.ContactUpdate)
	contactG.DELETE("/:id", instance.ContactDelete)
	contactG.PUT("/:id/favorite", instance.ContactFavorite)

	mediaG := e.Group("/media")
	mediaG.POST("", instance.MediaUpload)
	mediaG.GET("/unassigned", instance.MediaUnassigned)
	mediaG.PUT("/:id/claim", instance.MediaClaim)
	mediaG.DELETE("/:id", instance.MediaDelete)

	e.GET("/message-template", instance.TemplateGet)
	e.PUT("/message-template", instance.TemplatePut)

	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyDump(func(c echo.Context, reqBody, resBody []byte) {
		if len(reqBody) == 0 {
			return
		}
		logger.Debugw("request body", "path", c.Path(), "body", string(censorBody(reqBody)))
	}))

	e.Use(instance.AuthMiddleware)

	e.Validator = &CustomValidator{validator: validator.New()}

	echo.NotFoundHandler = func(c echo.Context) error {
		return c.NoContent(http.StatusNotFound)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := cfg.Host + ":" + cfg.Port
				if err := e.Start(listen); err != nil && err != http.ErrServerClosed {
					e.Logger.Fatal("shutting down the server")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server.")
			return e.Shutdown(ctx)
		},
	})

	return &instance
}

func (s *HTTPServer) Register(c echo.Context) error {
	req := RegisterReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := s.service.Register(req.Name, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, &TokenResp{Token: token})
}

func (s *HTTPServer) Login(c echo.Context) error {
	req := LoginReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := s.service.Login(req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, &TokenResp{Token: token})
}

func (s *HTTPServer) LogEntryGet(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	entries, err := s.service.LogEntryGet(user.ID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, entries)
}

func (s *HTTPServer) LogEntryGetByID(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	entry, err := s.service.LogEntryGetByID(user.ID, id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, entry)
}

func (s *HTTPServer) LogEntryCreate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := LogEntryReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	entry, err := s.service.LogEntryCreate(user.ID, contactFields(req), req.Tags)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, entry)
}

func (s *HTTPServer) LogEntryUpdate(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := LogEntryReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	entry, err := s.service.LogEntryUpdate(user.ID, id, contactFields(req), req.Tags)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, entry)
}

func (s *HTTPServer) LogEntryDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	if err := s.service.LogEntryDelete(user.ID, id); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) LogEntryFavorites(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	entries, err := s.service.LogEntryFavorites(user.ID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, entries)
}

func (s *HTTPServer) LogEntryFavorite(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := FavoriteReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	entry, err := s.service.LogEntrySetFavorite(user.ID, id, *req.IsFavorite)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, entry)
}

func (s *HTTPServer) LogEntrySearch(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query param 'q' is required")
	}

	entries, err := s.service.LogEntrySearch(user.ID, query)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, entries)
}

func (s *HTTPServer) TagGet(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	tags, err := s.service.TagGet(user.ID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, tags)
}

func (s *HTTPServer) TagCreate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := TagReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	tag, err := s.service.TagCreate(user.ID, req.Name, req.Color)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, tag)
}

func (s *HTTPServer) TagUpdate(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := TagReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	tag, err := s.service.TagUpdate(user.ID, id, req.Name, req.Color)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, tag)
}

func (s *HTTPServer) TagDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	if err := s.service.TagDelete(user.ID, id); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) TagLogEntries(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	entries, err := s.service.TagLogEntries(user.ID, id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, entries)
}

func (s *HTTPServer) ContactGet(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	if c.QueryParam("include") == "virtual" {
		views, err := s.service.ContactViews(user.ID)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, views)
	}

	contacts, err := s.service.ContactGet(user.ID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, contacts)
}

func (s *HTTPServer) ContactVirtual(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	contacts, err := s.service.VirtualContactGet(user.ID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, contacts)
}

func (s *HTTPServer) ContactCreate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := ContactReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	contact, err := s.service.ContactCreate(user.ID, service.ContactFields{
		Name:     req.Name,
		Company:  req.Company,
		Title:    req.Title,
		Email:    req.Email,
		Phone:    req.Phone,
		Notes:    req.Notes,
		WhereMet: req.WhereMet,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, contact)
}

func (s *HTTPServer) ContactUpdate(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := ContactReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	contact, err := s.service.ContactUpdate(user.ID, id, service.ContactFields{
		Name:     req.Name,
		Company:  req.Company,
		Title:    req.Title,
		Email:    req.Email,
		Phone:    req.Phone,
		Notes:    req.Notes,
		WhereMet: req.WhereMet,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, contact)
}

func (s *HTTPServer) ContactDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	if err := s.service.ContactDelete(user.ID, id); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) ContactFavorite(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := FavoriteReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	contact, err := s.service.ContactSetFavorite(user.ID, id, *req.IsFavorite)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, contact)
}

func (s *HTTPServer) MediaUpload(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form expected")
	}

	files := form.File["files"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files in form field 'files'")
	}
	if len(files) > maxUploadFiles {
		return echo.NewHTTPError(http.StatusBadRequest, "too many files, maximum is 5")
	}

	var logEntryID *uint64
	if raw := c.FormValue("log_entry_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid form value 'log_entry_id'")
		}
		logEntryID = &parsed
	}

	created := make([]db.Media, 0, len(files))
	for _, fileHeader := range files {
		if fileHeader.Size > maxUploadBytes {
			return echo.NewHTTPError(http.StatusBadRequest, "file too large, maximum size is 5MB")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return errors.Wrap(err, "open upload")
		}
		body, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return errors.Wrap(err, "read upload")
		}

		contentType := fileHeader.Header.Get("Content-Type")
		item, err := s.service.MediaUpload(c.Request().Context(), user.ID, logEntryID, fileHeader.Filename, contentType, body)
		if err != nil {
			return httpError(err)
		}
		created = append(created, *item)
	}

	return c.JSON(http.StatusCreated, created)
}

func (s *HTTPServer) MediaUnassigned(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	items, err := s.service.MediaUnassigned(user.ID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, items)
}

func (s *HTTPServer) MediaClaim(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := ClaimReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	item, err := s.service.MediaClaim(user.ID, id, req.LogEntryID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, item)
}

func (s *HTTPServer) MediaDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	if err := s.service.MediaDelete(c.Request().Context(), user.ID, id); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) TemplateGet(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	template, err := s.service.TemplateGet(user.ID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, template)
}

func (s *HTTPServer) TemplatePut(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := TemplateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	template, err := s.service.TemplateUpsert(user.ID, req.EmailTemplate, req.SMSTemplate)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, template)
}

func (s *HTTPServer) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Path() == "/auth/register" || c.Path() == "/auth/login" || c.Path() == "/ping" {
			return next(c)
		}
		token := ""
		for key, values := range c.Request().Header {
			if strings.ToLower(key) == "x-token" {
				token = values[0]
				break
			}
		}
		if token == "" {
			return c.NoContent(http.StatusUnauthorized)
		}
		user := db.User{}
		res := s.db.Where("token = ?", token).First(&user)
		if res.Error != nil {
			c.Logger().Error(errors.Wrap(res.Error, "find user in db"))
			return c.NoContent(http.StatusUnauthorized)
		}

		c.Set("user", &user)
		return next(c)
	}
}

////////

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func BindAndValidate(c echo.Context, v interface{}) error {
	var err error
	if err = c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = c.Validate(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func GetUserFromContext(c echo.Context) (*db.User, error) {
	user, ok := c.Get("user").(*db.User)
	if !ok || user == nil {
		return nil, errors.New("no user found in context")
	}
	return user, nil
}

func GetParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if value == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid path param '"+name+"'")
	}
	return value, nil
}

func GetAndParseParam(c echo.Context, name string) (uint64, error) {
	v, e := GetParam(c, name)
	if e != nil {
		return 0, e
	}
	vv, e := strconv.ParseUint(v, 10, 64)
	if e != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid path param '"+name+"'")
	}
	return vv, nil
}

func contactFields(req LogEntryReq) service.ContactFields {
	return service.ContactFields{
		ContactID: req.ContactID,
		Name:      req.Name,
		Company:   req.Company,
		Title:     req.Title,
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
		WhereMet:  req.WhereMet,
	}
}

func httpError(err error) error {
	switch errors.Cause(err) {
	case gorm.ErrRecordNotFound:
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case service.ErrLoginUserNotFound, service.ErrLoginPasswordDoesNotMatch:
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	case service.ErrUnsupportedMediaType:
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported media type")
	}
	return err
}

// censorBody blanks the password field before a request body hits the log.
func censorBody(body []byte) []byte {
	payload := map[string]interface{}{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return body
	}
	if _, ok := payload["password"]; !ok {
		return body
	}
	payload["password"] = "$censored"
	censored, err := json.Marshal(payload)
	if err != nil {
		return body
	}
	return censored
}
