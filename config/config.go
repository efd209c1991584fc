package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
)

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool
}

func ParseFlags() (cfg Config, err error) {
	var host string
	flag.StringVar(&host, "host", "0.0.0.0", "listen host name")
	var port uint
	flag.UintVar(&port, "port", 80, "listen port number")
	flag.StringVar(&cfg.DBUrl, "db-url", "pollwise.sqlite", "path to SQLite3 DB file")
	flag.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", 120, "token TTL in seconds")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	// collect every flag problem before bailing out
	var errs *multierror.Error
	if cfg.TokenSecret == "" {
		errs = multierror.Append(errs, errors.New("missing parameter -token-secret"))
	}
	if port > 65535 {
		errs = multierror.Append(errs, errors.New("parameter -port out of range"))
	}
	if cfg.DBUrl == "" {
		errs = multierror.Append(errs, errors.New("missing parameter -db-url"))
	}
	return cfg, errs.ErrorOrNil()
}

func (cfg Config) Url() string {
	host, port, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return "http://" + cfg.Addr
	}
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
