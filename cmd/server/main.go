package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/carlmjohnson/versioninfo"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	slogecho "github.com/samber/slog-echo"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	oauth "github.com/xershade/discord-oauth-golang"
)

func main() {
	godotenv.Load()

	app := &cli.App{
		Name:    "discord-oauth-server",
		Usage:   "demo host for discord login and account linking",
		Version: versioninfo.Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":7070",
				EnvVars: []string{"DISCORD_OAUTH_ADDR"},
			},
			&cli.StringFlag{
				Name:    "db",
				Value:   "server.db",
				EnvVars: []string{"DISCORD_OAUTH_DB"},
			},
			&cli.StringFlag{
				Name:     "client-id",
				Required: true,
				EnvVars:  []string{"DISCORD_CLIENT_ID"},
			},
			&cli.StringFlag{
				Name:     "client-secret",
				Required: true,
				EnvVars:  []string{"DISCORD_CLIENT_SECRET"},
			},
			&cli.StringFlag{
				Name:     "redirect-uri",
				Required: true,
				EnvVars:  []string{"DISCORD_REDIRECT_URI"},
			},
			&cli.StringFlag{
				Name:     "cookie-secret",
				Required: true,
				EnvVars:  []string{"DISCORD_OAUTH_COOKIE_SECRET"},
			},
			&cli.StringFlag{
				Name:    "scope",
				EnvVars: []string{"DISCORD_OAUTH_SCOPE"},
			},
		},
		Action: run,
	}

	app.RunAndExitOnError()
}

type Server struct {
	db     *gorm.DB
	store  *GormIdentityStore
	engine *oauth.Engine
}

func run(cmd *cli.Context) error {
	db, err := gorm.Open(sqlite.Open(cmd.String("db")), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(&User{}, &DiscordLink{}); err != nil {
		return err
	}

	client, err := oauth.NewClient(oauth.ClientArgs{
		Config: oauth.Config{
			ClientID:     cmd.String("client-id"),
			ClientSecret: cmd.String("client-secret"),
			RedirectURI:  cmd.String("redirect-uri"),
			Scope:        cmd.String("scope"),
		},
	})
	if err != nil {
		return err
	}

	store := &GormIdentityStore{db: db}

	engine, err := oauth.NewEngine(oauth.EngineArgs{
		Client: client,
		Store:  store,
	})
	if err != nil {
		return err
	}

	s := &Server{
		db:     db,
		store:  store,
		engine: engine,
	}

	e := echo.New()

	e.Use(slogecho.New(slog.Default()))
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(cmd.String("cookie-secret")))))

	e.GET("/", s.handleHome)
	e.GET("/login", s.handleLoginPage)
	e.GET("/logout", s.handleLogout)
	e.GET("/me", s.handleMe)
	e.GET("/oauth/discord", s.handleLoginStart)
	e.GET("/oauth/discord/callback", s.handleCallback)
	e.POST("/oauth/discord/unlink", s.handleUnlink)

	httpd := http.Server{
		Addr:    cmd.String("addr"),
		Handler: e,
	}

	fmt.Println("starting http server...")

	if err := httpd.ListenAndServe(); err != nil {
		return err
	}

	return nil
}
