package config

import (
	"github.com/kelseyhightower/envconfig"
)

// App is the environment-driven runtime configuration.
type App struct {
	// DB
	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN    string `envconfig:"DB_DSN" default:"bookings.db"`
	// Network
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`
	// Layout
	LayoutPath string `envconfig:"LAYOUT_PATH" default:""`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
