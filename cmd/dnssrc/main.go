// Command dnssrc runs the DNSSRC diagnostic authoritative server: one
// zone, entirely synthetic answers, no upstream resolution. Flag
// wiring follows original_source/src/options.rs. Only --domain, --user
// and --group fall back to an environment variable (DNSSRC_DOMAIN,
// DNSSRC_USER_NAME, DNSSRC_GROUP_NAME) when not set on the command
// line; the other options have no environment fallback.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/semihalev/zlog/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dgroves/dnssrc/config"
	"github.com/dgroves/dnssrc/dispatch"
	"github.com/dgroves/dnssrc/generator"
	"github.com/dgroves/dnssrc/lifecycle"
	"github.com/dgroves/dnssrc/server"
	"github.com/dgroves/dnssrc/zone"
)

// Version is set at build time via -ldflags, mirroring the teacher's
// BuildVersion threading into config.ServerVersion.
var Version = "dev"

func main() {
	cfg := config.Default()

	var (
		flagUDP, flagTCP, flagUDP6, flagTCP6 []string
		flagDoH, flagDoH6                    []string
		flagTLS, flagTLS6                    []string
		flagQuic, flagQuic6                  []string
		flagNS                               []string
		flagSOANames, flagSOAValues          []string
		flagAllowFrom                        []string
		flagConfigFile                       string
	)

	root := &cobra.Command{
		Use:   "dnssrc",
		Short: "Single-zone authoritative DNS server that reflects query properties back to the client.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagConfigFile != "" {
				if err := config.LoadFile(cfg, flagConfigFile); err != nil {
					return err
				}
			}

			applyFlags(cmd, cfg, flagUDP, flagTCP, flagUDP6, flagTCP6,
				flagDoH, flagDoH6, flagTLS, flagTLS6, flagQuic, flagQuic6,
				flagNS, flagSOANames, flagSOAValues, flagAllowFrom)

			return run(cfg)
		},
	}

	flags := root.Flags()
	flags.StringArrayVar(&flagUDP, "udp", nil, "IPv4 address:port to bind for UDP (repeatable)")
	flags.StringArrayVar(&flagTCP, "tcp", nil, "IPv4 address:port to bind for TCP (repeatable)")
	flags.StringArrayVar(&flagUDP6, "udp6", nil, "IPv6 address:port to bind for UDP (repeatable)")
	flags.StringArrayVar(&flagTCP6, "tcp6", nil, "IPv6 address:port to bind for TCP (repeatable)")
	flags.StringArrayVar(&flagDoH, "doh", nil, "IPv4 address:port to bind for DNS-over-HTTPS (repeatable)")
	flags.StringArrayVar(&flagDoH6, "doh6", nil, "IPv6 address:port to bind for DNS-over-HTTPS (repeatable)")
	flags.StringArrayVar(&flagTLS, "tls", nil, "IPv4 address:port to bind for DNS-over-TLS (repeatable)")
	flags.StringArrayVar(&flagTLS6, "tls6", nil, "IPv6 address:port to bind for DNS-over-TLS (repeatable)")
	flags.StringArrayVar(&flagQuic, "quic", nil, "IPv4 address:port to bind for DNS-over-QUIC (repeatable)")
	flags.StringArrayVar(&flagQuic6, "quic6", nil, "IPv6 address:port to bind for DNS-over-QUIC (repeatable)")

	flags.String("domain", cfg.Domain, "zone apex this server is authoritative for")
	flags.Uint32("ttl", cfg.TTL, "TTL applied to synthesized records (timestamp0 always uses 0)")
	flags.StringArrayVar(&flagNS, "ns-records", nil, "NS name for the zone apex (repeatable)")
	flags.StringArrayVar(&flagSOANames, "soa-names", nil, "SOA mname,rname (comma-separated)")
	flags.StringArrayVar(&flagSOAValues, "soa-values", nil, "SOA serial,refresh,retry,expire,minimum (comma-separated)")

	flags.String("certfile", cfg.CertFile, "TLS certificate file (required for --tls/--doh/--quic)")
	flags.String("keyfile", cfg.KeyFile, "TLS private key file")
	flags.String("user", cfg.User, "user to drop privileges to after binding")
	flags.String("group", cfg.Group, "group to drop privileges to after binding")
	flags.String("tcptimeout", cfg.TCPTimeout, "idle timeout for plain TCP connections (DoT listeners do not use it)")
	flags.Bool("foreground", cfg.Foreground, "accepted for compatibility; the server always stays attached to the controlling terminal")

	flags.StringVar(&flagConfigFile, "config", "", "optional TOML file supplying defaults")
	flags.StringArrayVar(&flagAllowFrom, "allow-from", nil, "CIDR allowed to query (repeatable, default allow all)")
	flags.Int("rate-limit", cfg.RateLimit, "queries per second allowed per peer, 0 disables")
	flags.String("metrics", cfg.Metrics, "address to serve /metrics on, empty disables")
	flags.String("loglevel", cfg.LogLevel, "log verbosity: debug, info, warn, error")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// applyFlags overlays flags the operator actually set on the command
// line onto cfg -- cfg already carries built-in and file values via
// config.Default/LoadFile, so an unset flag must never clobber those.
// For --domain, --user and --group an unset flag falls back to the
// matching DNSSRC_ environment variable here.
func applyFlags(cmd *cobra.Command, cfg *config.Config,
	udp, tcp, udp6, tcp6, doh, doh6, tls, tls6, quic, quic6,
	ns, soaNames, soaValues, allowFrom []string) {

	set := cmd.Flags().Changed
	str := func(name string) string { v, _ := cmd.Flags().GetString(name); return v }

	if set("domain") {
		cfg.Domain = str("domain")
	} else {
		cfg.Domain = config.EnvDefault("DOMAIN", cfg.Domain)
	}

	if set("ttl") {
		ttl, _ := cmd.Flags().GetUint32("ttl")
		cfg.TTL = ttl
	}

	if len(ns) > 0 {
		cfg.NS = ns
	}

	if len(soaNames) > 0 {
		if parts := strings.Split(soaNames[0], ","); len(parts) == 2 {
			cfg.SOAMName, cfg.SOARName = parts[0], parts[1]
		}
	}

	if len(soaValues) > 0 {
		if parts := strings.Split(soaValues[0], ","); len(parts) == 5 {
			vals := make([]uint32, 5)
			for i, p := range parts {
				if n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32); err == nil {
					vals[i] = uint32(n)
				}
			}
			cfg.SOASerial, cfg.SOARefresh, cfg.SOARetry, cfg.SOAExpire, cfg.SOAMinimum =
				vals[0], vals[1], vals[2], vals[3], vals[4]
		}
	}

	cfg.UDP = append(cfg.UDP, udp...)
	cfg.TCP = append(cfg.TCP, tcp...)
	cfg.UDP6 = append(cfg.UDP6, udp6...)
	cfg.TCP6 = append(cfg.TCP6, tcp6...)
	cfg.DoH = append(cfg.DoH, doh...)
	cfg.DoH6 = append(cfg.DoH6, doh6...)
	cfg.TLS = append(cfg.TLS, tls...)
	cfg.TLS6 = append(cfg.TLS6, tls6...)
	cfg.Quic = append(cfg.Quic, quic...)
	cfg.Quic6 = append(cfg.Quic6, quic6...)
	cfg.AllowFrom = append(cfg.AllowFrom, allowFrom...)

	if set("certfile") {
		cfg.CertFile = str("certfile")
	}

	if set("keyfile") {
		cfg.KeyFile = str("keyfile")
	}

	if set("user") {
		cfg.User = str("user")
	} else {
		cfg.User = config.EnvDefault("USER_NAME", cfg.User)
	}

	if set("group") {
		cfg.Group = str("group")
	} else {
		cfg.Group = config.EnvDefault("GROUP_NAME", cfg.Group)
	}

	if set("tcptimeout") {
		cfg.TCPTimeout = str("tcptimeout")
	}

	if set("foreground") {
		fg, _ := cmd.Flags().GetBool("foreground")
		cfg.Foreground = fg
	}

	if set("rate-limit") {
		rl, _ := cmd.Flags().GetInt("rate-limit")
		cfg.RateLimit = rl
	}

	if set("metrics") {
		cfg.Metrics = str("metrics")
	}

	if set("loglevel") {
		cfg.LogLevel = str("loglevel")
	}
}

func run(cfg *config.Config) error {
	if len(cfg.NS) == 0 {
		return fmt.Errorf("dnssrc: at least one --ns-records value is required")
	}

	z, err := zone.NewConfig(cfg.Domain, cfg.TTL, cfg.NS,
		[2]string{cfg.SOAMName, cfg.SOARName},
		[5]uint32{cfg.SOASerial, cfg.SOARefresh, cfg.SOARetry, cfg.SOAExpire, cfg.SOAMinimum})
	if err != nil {
		return err
	}

	generator.Version = Version

	state := generator.NewState()

	var metrics *server.Metrics
	if cfg.Metrics != "" {
		metrics = server.NewMetrics()

		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			_ = http.ListenAndServe(cfg.Metrics, mux)
		}()
	}

	needsTLS := len(cfg.TLS) > 0 || len(cfg.TLS6) > 0 || len(cfg.DoH) > 0 ||
		len(cfg.DoH6) > 0 || len(cfg.Quic) > 0 || len(cfg.Quic6) > 0

	var cm *server.CertManager
	if needsTLS {
		if cfg.CertFile == "" || cfg.KeyFile == "" {
			return fmt.Errorf("dnssrc: --certfile/--keyfile are required for TLS-based transports")
		}

		cm, err = server.NewCertManager(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return err
		}
	}

	tcpTimeout, err := time.ParseDuration(cfg.TCPTimeout)
	if err != nil {
		return fmt.Errorf("dnssrc: invalid --tcptimeout: %w", err)
	}

	srv := server.New()
	handlerFor := func(transport string) dns.Handler {
		h := dispatch.New(z, state, transport)
		if metrics != nil {
			h.OnDispatch = metrics.Observe
		}

		var wrapped dns.Handler = h
		if cfg.RateLimit > 0 {
			wrapped = server.NewRateLimiter(cfg.RateLimit, wrapped)
		}

		if len(cfg.AllowFrom) > 0 {
			al, aerr := server.NewAccessList(cfg.AllowFrom, wrapped)
			if aerr != nil {
				zlog.Error("dnssrc: invalid --allow-from entry", "error", aerr.Error())
			} else {
				wrapped = al
			}
		}

		return wrapped
	}

	if err := bindListeners(srv, cfg, handlerFor, cm, tcpTimeout); err != nil {
		return err
	}

	return lifecycle.Run(srv, cfg.User, cfg.Group, 5*time.Second)
}

// bindListeners binds every configured address before any of them is
// handed to lifecycle.Run, so a single bad address fails the whole
// startup instead of leaving some transports silently unbound
// (spec.md's BindError contract). Each bind runs through an
// errgroup.Group, serialized by mu since srv's listener slices are not
// safe for concurrent appends; every bind is attempted, and g.Wait
// returns the first failure.
func bindListeners(srv *server.Server, cfg *config.Config, handlerFor func(string) dns.Handler, cm *server.CertManager, tcpTimeout time.Duration) error {
	var g errgroup.Group
	var mu sync.Mutex

	bind := func(fn func() error) {
		g.Go(func() error {
			mu.Lock()
			defer mu.Unlock()
			return fn()
		})
	}

	for _, addr := range append(append([]string{}, cfg.UDP...), cfg.UDP6...) {
		addr := addr
		bind(func() error { return srv.ListenUDP(addr, handlerFor("udp")) })
	}

	for _, addr := range append(append([]string{}, cfg.TCP...), cfg.TCP6...) {
		addr := addr
		bind(func() error { return srv.ListenTCP(addr, handlerFor("tcp"), tcpTimeout) })
	}

	for _, addr := range append(append([]string{}, cfg.TLS...), cfg.TLS6...) {
		addr := addr
		bind(func() error { return srv.ListenTLS(addr, handlerFor("tls"), cm) })
	}

	for _, addr := range append(append([]string{}, cfg.DoH...), cfg.DoH6...) {
		addr := addr
		bind(func() error { return srv.ListenDoH(addr, handlerFor("https"), cm) })
	}

	for _, addr := range append(append([]string{}, cfg.Quic...), cfg.Quic6...) {
		addr := addr
		bind(func() error { return srv.ListenQUIC(addr, cfg.CertFile, cfg.KeyFile, handlerFor("quic")) })
	}

	return g.Wait()
}
