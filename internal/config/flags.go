package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

var (
	errPortOutOfRange = errors.New("port must be in range 1..65535")
	errBadHost        = errors.New("host must be an IP address or a DNS name")
)

// NetAddress is a host:port pair usable as a [flag.Value]. An empty host
// means every interface.
type NetAddress struct {
	Host string
	Port int
}

func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

func (a *NetAddress) Set(s string) error {
	host, rawPort, err := net.SplitHostPort(s)
	if err != nil {
		return fmt.Errorf("address %q: %w", s, err)
	}

	port, err := strconv.Atoi(rawPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("address %q: %w", s, errPortOutOfRange)
	}
	if host != "" && net.ParseIP(host) == nil && !isDNSName(host) {
		return fmt.Errorf("address %q: %w", s, errBadHost)
	}

	a.Host, a.Port = host, port
	return nil
}

func isDNSName(host string) bool {
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		for _, r := range label {
			if !(r == '-' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				return false
			}
		}
	}
	return true
}

// ParseFlags reads the server flags from os.Args:
//
//	-a                host:port of the HTTP document API
//	-grpc-address     host:port of the gRPC health service
//	-d                Postgres DSN
//	-c, -config       JSON config file
//	-token-sign-key   HMAC key for bearer tokens
//	-token-issuer     expected token issuer
//	-token-duration   lifetime of issued tokens
//	-request-timeout  per request deadline
//	-shutdown-timeout graceful shutdown deadline
func ParseFlags() (*StructuredConfig, error) {
	return parseFlags(os.Args[0], os.Args[1:])
}

func parseFlags(name string, args []string) (*StructuredConfig, error) {
	var (
		cfg        StructuredConfig
		httpAddr, grpcAddr NetAddress
	)

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Var(&httpAddr, "a", "HTTP API address host:port")
	fs.Var(&grpcAddr, "grpc-address", "gRPC health address host:port")
	fs.StringVar(&cfg.Storage.DB.DSN, "d", "", "Postgres DSN")
	fs.StringVar(&cfg.JSONFilePath, "c", "", "JSON config file path")
	fs.StringVar(&cfg.JSONFilePath, "config", "", "JSON config file path")
	fs.StringVar(&cfg.App.TokenSignKey, "token-sign-key", "", "token signing key")
	fs.StringVar(&cfg.App.TokenIssuer, "token-issuer", "", "token issuer")
	fs.DurationVar(&cfg.App.TokenDuration, "token-duration", 0, "token lifetime, e.g. 24h")
	fs.DurationVar(&cfg.Server.RequestTimeout, "request-timeout", 0, "request deadline, e.g. 30s")
	fs.DurationVar(&cfg.Server.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown deadline")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Server.HTTPAddress = httpAddr.String()
	cfg.Server.GRPCAddress = grpcAddr.String()
	return &cfg, nil
}
