package app

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/urfave/negroni"

	"gopkg.in/yaml.v2"
)

var (
	http_address = flag.String("http-address", "0.0.0.0", "Listening address for http connections")
	http_port    = flag.Int("http-port", 4020, "Listening port for http connections")
	http_timeout = flag.Int("http-timeout", 120, "Timeout for http requests in seconds")

	log *logrus.Logger
)

const (
	DefaultRefreshInterval = 30000
)

type Config struct {
	LogLevel        string `yaml:"LogLevel"`
	ApiBaseUrl      string `yaml:"ApiBaseUrl"`
	RefreshInterval int    `yaml:"RefreshInterval"`
}

type App struct {
	Environment string
	Config      *Config
	ListenAddr  string
	ListenPort  int
	Router      *mux.Router
	Http        *http.Server
	Negroni     *negroni.Negroni
	Logger      *logrus.Logger

	EnableHttp bool
}

func New() *App {
	env := os.Getenv("AMON_ENV")
	if env == "" {
		env = "dev"
	}

	log = logrus.New()

	log.Debugf("Running in environment: %s\n", env)
	config, err := LoadConfig(env)
	if err != nil {
		panic(err)
	}

	app := &App{
		Environment: env,
		Config:      config,
		ListenAddr:  *http_address,
		ListenPort:  *http_port,
		Router:      mux.NewRouter(),
		Logger:      log,
		EnableHttp:  false,
	}

	app.Logger.Level, err = logrus.ParseLevel(config.LogLevel)
	if err != nil {
		panic(err)
	}

	log.Debugf("Using log level %s\n", app.Logger.Level.String())

	if app.Config.RefreshInterval == 0 {
		app.Config.RefreshInterval = DefaultRefreshInterval
	}

	app.Negroni = negroni.New()

	return app
}

func LoadConfig(env string) (*Config, error) {
	config_file, err := os.Open(fmt.Sprintf("config/%s.yaml", env))
	if err != nil {
		return nil, err
	}

	var config Config

	if err := yaml.NewDecoder(config_file).Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil

}

//RefreshDuration is the configured poll interval. The config carries it in
//milliseconds to match the backend deployment settings.
func (app *App) RefreshDuration() time.Duration {
	return time.Duration(app.Config.RefreshInterval) * time.Millisecond
}

func (app *App) Run() {

	app.Negroni.UseHandler(app.Router)

	log.Debugf("Running application\n")

	app.Http = &http.Server{
		Handler:      app.Negroni,
		Addr:         fmt.Sprintf("%s:%d", app.ListenAddr, app.ListenPort),
		WriteTimeout: time.Duration(*http_timeout) * time.Second,
		ReadTimeout:  time.Duration(*http_timeout) * time.Second,
	}

	if app.EnableHttp {
		app.Logger.Debug("Listening for http connections")
		log.Fatal(app.Http.ListenAndServe())
	} else {
		for {
			time.Sleep(time.Second * 60)
		}
	}

}

func (app *App) Use(h negroni.Handler) {
	app.Negroni.Use(h)
}

func (app *App) Get(path string, handler http.HandlerFunc) {
	app.EnableHttp = true
	app.Router.HandleFunc(path, handler).Methods("GET")
}

func (app *App) Post(path string, handler http.HandlerFunc) {
	app.EnableHttp = true
	app.Router.HandleFunc(path, handler).Methods("POST")

}

func (app *App) HttpInternalError(w http.ResponseWriter, err error) {
	app.HttpError(w, err, http.StatusInternalServerError)
}

func (app *App) HttpBadRequest(w http.ResponseWriter, err error) {
	app.HttpError(w, err, http.StatusBadRequest)
}

func (app *App) HttpNotFound(w http.ResponseWriter, err error) {
	app.HttpError(w, err, http.StatusNotFound)
}

func (app *App) HttpError(w http.ResponseWriter, err interface{}, status int) {
	var error_string string

	switch v := err.(type) {
	case error:
		error_string = v.Error()
	case string:
		error_string = v
	case *string:
		error_string = *v
	default:
		error_string = "Unknown error"
	}

	http.Error(w, error_string, status)
}
