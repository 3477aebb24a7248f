package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"tasklist-api/api"
	"tasklist-api/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	listsTableName := os.Getenv("LISTS_TABLE")
	tasksTableName := os.Getenv("TASKS_TABLE")
	if connStr == "" || listsTableName == "" || tasksTableName == "" {
		log.Fatal("missing storage config")
	}
	store, err := storage.New(connStr, listsTableName, tasksTableName)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	testMode := os.Getenv("AUTH_TEST_MODE") == "1"
	var auth *api.Auth
	if testMode {
		auth = api.NewAuth(nil, "", "")
	} else {
		tenantID := os.Getenv("AZ_TENANT_ID")
		clientID := os.Getenv("AZ_CLIENT_ID")
		if tenantID == "" || clientID == "" {
			log.Fatal("missing identity config")
		}
		jwksURL := fmt.Sprintf("https://login.microsoftonline.com/%s/discovery/v2.0/keys", tenantID)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				log.Errorf("jwks refresh: %v", err)
			},
		})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		issuer := fmt.Sprintf("https://login.microsoftonline.com/%s/v2.0", tenantID)
		auth = api.NewAuth(jwks, clientID, issuer)
	}

	allowOrigins := []string{"*"}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		allowOrigins = strings.Split(raw, ",")
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit("64K"))

	logger := log.New()
	api.Register(e, store, auth, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}
