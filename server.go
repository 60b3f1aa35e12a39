package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/wills_backend/config"
	"bitbucket.org/mmdatafocus/wills_backend/middlewares"
	"bitbucket.org/mmdatafocus/wills_backend/models"
	"bitbucket.org/mmdatafocus/wills_backend/models/reports"
	"bitbucket.org/mmdatafocus/wills_backend/utils"
	"bitbucket.org/mmdatafocus/wills_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("wills-backend")

// RateLimiter is a simple fixed-window limiter backed by redis.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

// --- response envelope -------------------------------------------------
//
// Every handler answers with the same shape:
//
//	{ "success": bool, "data": ..., "error": "...", "fieldErrors": {...} }
//
// so clients never branch on response format.

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": message})
}

func respondInternalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "something went wrong"})
}

// respondTaxonomyError converts domain errors at the HTTP boundary.
// Ownership failures answer exactly like missing rows so ids cannot be
// probed; persistence failures are logged in full but never echoed.
func respondTaxonomyError(c *gin.Context, moduleName string, funcName string, err error) {
	var verr *utils.ValidationError
	switch {
	case errors.Is(err, utils.ErrorUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "will not found"})
	case errors.Is(err, utils.ErrorFinalized):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success":     false,
			"error":       "validation failed",
			"fieldErrors": verr.FieldErrors,
		})
	default:
		config.LogError(config.GetLogger(), moduleName, funcName, "unhandled error", c.Request.URL.Path, err)
		respondInternalError(c)
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// --- auth handlers -----------------------------------------------------

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "username and password are required")
			return
		}
		info, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
			return
		}
		respondData(c, http.StatusOK, info)
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := models.Logout(c.Request.Context())
		if err != nil || !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
			return
		}
		respondData(c, http.StatusOK, gin.H{"loggedOut": true})
	}
}

func registerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBadRequest(c, "username, name and password are required")
			return
		}
		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			config.LogError(logger, "server.go", "registerHandler", "CreateUser", input.Username, err)
			respondBadRequest(c, err.Error())
			return
		}
		user.PrepareGive()
		respondData(c, http.StatusCreated, user)
	}
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func changePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req changePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "oldPassword and newPassword are required")
			return
		}
		user, err := models.ChangePassword(c.Request.Context(), req.OldPassword, req.NewPassword)
		if errors.Is(err, utils.ErrorUnauthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
			return
		}
		if err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		user.PrepareGive()
		respondData(c, http.StatusOK, user)
	}
}

// --- will handlers -----------------------------------------------------

func listWillsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		wills, err := models.ListWills(c.Request.Context())
		if err != nil {
			respondTaxonomyError(c, "server.go", "listWillsHandler", err)
			return
		}
		respondData(c, http.StatusOK, wills)
	}
}

func createWillHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewWill
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBadRequest(c, "request body must be a JSON object")
			return
		}
		will, err := workflow.CreateDraft(c.Request.Context(), &input)
		if err != nil {
			respondTaxonomyError(c, "server.go", "createWillHandler", err)
			return
		}
		respondData(c, http.StatusCreated, will)
	}
}

func getWillHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			respondBadRequest(c, "invalid will id")
			return
		}
		will, err := models.GetWill(c.Request.Context(), id)
		if err != nil {
			respondTaxonomyError(c, "server.go", "getWillHandler", err)
			return
		}
		respondData(c, http.StatusOK, will)
	}
}

func saveWillHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			respondBadRequest(c, "invalid will id")
			return
		}
		var input models.NewWill
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBadRequest(c, "request body must be a JSON object")
			return
		}
		will, err := workflow.SaveDraft(c.Request.Context(), id, &input)
		if err != nil {
			respondTaxonomyError(c, "server.go", "saveWillHandler", err)
			return
		}
		respondData(c, http.StatusOK, will)
	}
}

func deleteWillHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			respondBadRequest(c, "invalid will id")
			return
		}
		will, err := workflow.DeleteDraft(c.Request.Context(), id)
		if err != nil {
			respondTaxonomyError(c, "server.go", "deleteWillHandler", err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"deletedId": will.ID})
	}
}

func willProgressHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			respondBadRequest(c, "invalid will id")
			return
		}
		will, err := models.GetWill(c.Request.Context(), id)
		if err != nil {
			respondTaxonomyError(c, "server.go", "willProgressHandler", err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"id": will.ID, "progress": will.Progress, "status": will.Status})
	}
}

func finalizeWillHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "finalizeWill")
		defer span.End()

		id, ok := pathId(c)
		if !ok {
			respondBadRequest(c, "invalid will id")
			return
		}
		will, pdf, err := workflow.FinalizeForExport(ctx, id)
		if err != nil {
			respondTaxonomyError(c, "server.go", "finalizeWillHandler", err)
			return
		}
		respondData(c, http.StatusOK, gin.H{
			"will":     will,
			"fileName": fmt.Sprintf("will-%d.pdf", will.ID),
			"pdf":      base64.StdEncoding.EncodeToString(pdf),
		})
	}
}

func estateSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		id, ok := pathId(c)
		if !ok {
			respondBadRequest(c, "invalid will id")
			return
		}
		will, err := models.GetWill(c.Request.Context(), id)
		if err != nil {
			respondTaxonomyError(c, "server.go", "estateSummaryHandler", err)
			return
		}
		workbook, err := reports.BuildEstateSummaryWorkbook(will)
		if err != nil {
			config.LogError(logger, "server.go", "estateSummaryHandler", "BuildEstateSummaryWorkbook", will.ID, err)
			respondInternalError(c)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=estate-summary-%d.xlsx", will.ID))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := workbook.Write(c.Writer); err != nil {
			config.LogError(logger, "server.go", "estateSummaryHandler", "workbook.Write", will.ID, err)
		}
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production requires an explicit allowlist; development allows all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.SessionMiddleware())
	r.Use(middlewares.CurrentUserMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/auth/login", loginHandler())
	r.POST("/auth/logout", logoutHandler())
	r.POST("/auth/register", registerHandler())
	r.POST("/auth/change-password", changePasswordHandler())

	r.GET("/wills", listWillsHandler())
	r.POST("/wills", createWillHandler())
	r.GET("/wills/:id", getWillHandler())
	r.PUT("/wills/:id", saveWillHandler())
	r.DELETE("/wills/:id", deleteWillHandler())
	r.GET("/wills/:id/progress", willProgressHandler())
	r.POST("/wills/:id/finalize", finalizeWillHandler())
	r.GET("/wills/:id/estate-summary", estateSummaryHandler())
	r.POST("/wills/:id/attachments", uploadAttachmentHandler())
	r.GET("/wills/:id/attachments", listAttachmentsHandler())
	r.DELETE("/attachments/:id", deleteAttachmentHandler())

	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running migrations
	// as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"error":   fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "route not found"})
}
