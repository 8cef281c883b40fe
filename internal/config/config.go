package config

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Tiempos de vida por defecto de codes y tokens.
const (
	DefaultCodeTTL    = 300 * time.Second
	DefaultAccessTTL  = 3600 * time.Second
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// DefaultScope se usa cuando /authorize llega sin scope.
const DefaultScope = "openid profile email"

type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr   string `yaml:"addr"`
		Issuer string `yaml:"issuer"` // URL pública; también es el "iss" de los ID tokens
	} `yaml:"server"`

	// Cache respalda CodeStore y TokenStore. Con kind=redis, un fallo de redis
	// degrada al mapa en memoria del proceso.
	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr        string        `yaml:"addr"`
			Password    string        `yaml:"password"`
			DB          int           `yaml:"db"`
			Prefix      string        `yaml:"prefix"`
			DialTimeout time.Duration `yaml:"dial_timeout"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Tokens struct {
		CodeTTL    time.Duration `yaml:"code_ttl"`
		AccessTTL  time.Duration `yaml:"access_ttl"`
		RefreshTTL time.Duration `yaml:"refresh_ttl"`
	} `yaml:"tokens"`

	Keys struct {
		// File es opcional: si está, la clave RSA se carga/persiste ahí (PEM PKCS#8).
		// Si no, se genera una clave efímera por proceso.
		File string `yaml:"file"`
	} `yaml:"keys"`

	Authorize struct {
		DefaultScope string `yaml:"default_scope"`
	} `yaml:"authorize"`

	Userinfo struct {
		EmailDomain string `yaml:"email_domain"`
	} `yaml:"userinfo"`

	Clients []ClientConfig `yaml:"clients"`
	Users   []UserConfig   `yaml:"users"`

	// ───────── Federación ─────────
	Providers map[string]ProviderConfig `yaml:"providers"`

	Bindings struct {
		Driver string `yaml:"driver"` // memory | bolt | postgres
		Path   string `yaml:"path"`   // bolt
		DSN    string `yaml:"dsn"`    // postgres
	} `yaml:"bindings"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		Window      time.Duration `yaml:"window"`
		MaxRequests int           `yaml:"max_requests"`
		// TrustedProxies: IPs o CIDRs de los reverse proxies delante del
		// servidor. Vacío => se ignora X-Forwarded-For.
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"rate"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

type ClientConfig struct {
	ID           string   `yaml:"id"`
	Secret       string   `yaml:"secret"`
	RedirectURIs []string `yaml:"redirect_uris"`
}

// UserConfig: Password puede ser texto plano o PHC argon2id (ver `minioidc hash-password`).
type UserConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type ProviderConfig struct {
	Type         string   `yaml:"type"` // oidc | oauth2 | github
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURL  string   `yaml:"redirect_url"` // si vacío => <issuer>/external/<name>/callback
	Scopes       []string `yaml:"scopes"`

	// oidc
	IssuerURL string `yaml:"issuer_url"`

	// oauth2 genérico
	AuthURL      string `yaml:"auth_url"`
	TokenURL     string `yaml:"token_url"`
	UserinfoURL  string `yaml:"userinfo_url"`
	SubjectField string `yaml:"subject_field"`
	NameField    string `yaml:"name_field"`
	EmailField   string `yaml:"email_field"`
}

// Default devuelve una configuración lista para desarrollo: un cliente demo y
// dos usuarios locales.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load lee path (YAML), completa defaults y aplica overrides de entorno.
// path vacío equivale a Default() + entorno.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyEnvOverrides()
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.Issuer == "" {
		c.Server.Issuer = "http://localhost:8080"
	}
	c.Server.Issuer = strings.TrimRight(c.Server.Issuer, "/")

	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}
	if c.Cache.Redis.DialTimeout == 0 {
		c.Cache.Redis.DialTimeout = 2 * time.Second
	}

	if c.Tokens.CodeTTL == 0 {
		c.Tokens.CodeTTL = DefaultCodeTTL
	}
	if c.Tokens.AccessTTL == 0 {
		c.Tokens.AccessTTL = DefaultAccessTTL
	}
	if c.Tokens.RefreshTTL == 0 {
		c.Tokens.RefreshTTL = DefaultRefreshTTL
	}

	if c.Authorize.DefaultScope == "" {
		c.Authorize.DefaultScope = DefaultScope
	}
	if c.Userinfo.EmailDomain == "" {
		c.Userinfo.EmailDomain = "example.com"
	}

	if len(c.Clients) == 0 {
		c.Clients = []ClientConfig{{
			ID:     "demo-client",
			Secret: "demo-secret",
			RedirectURIs: []string{
				"http://localhost:5173/callback",
				"http://localhost:3000/callback",
				"http://localhost:8080/callback",
			},
		}}
	}
	if len(c.Users) == 0 {
		c.Users = []UserConfig{
			{Username: "alice", Password: "alice123"},
			{Username: "bob", Password: "bob123"},
		}
	}

	for name, p := range c.Providers {
		if p.Type == "" {
			p.Type = name
		}
		if p.RedirectURL == "" {
			p.RedirectURL = c.Server.Issuer + "/external/" + name + "/callback"
		}
		c.Providers[name] = p
	}

	if c.Bindings.Driver == "" {
		c.Bindings.Driver = "memory"
	}
	if c.Bindings.Path == "" {
		c.Bindings.Path = "data/bindings.db"
	}

	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvCSV(key string) ([]string, bool) {
	v, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("ISSUER"); ok {
		c.Server.Issuer = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// TOKENS
	if v, ok := getEnvDur("CODE_TTL"); ok {
		c.Tokens.CodeTTL = v
	}
	if v, ok := getEnvDur("ACCESS_TTL"); ok {
		c.Tokens.AccessTTL = v
	}
	if v, ok := getEnvDur("REFRESH_TTL"); ok {
		c.Tokens.RefreshTTL = v
	}

	// KEYS
	if v, ok := getEnvStr("SIGNING_KEY_FILE"); ok {
		c.Keys.File = v
	}

	// USERINFO
	if v, ok := getEnvStr("USERINFO_EMAIL_DOMAIN"); ok {
		c.Userinfo.EmailDomain = v
	}

	// BINDINGS
	if v, ok := getEnvStr("BINDINGS_DRIVER"); ok {
		c.Bindings.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("BINDINGS_PATH"); ok {
		c.Bindings.Path = v
	}
	if v, ok := getEnvStr("BINDINGS_DSN"); ok {
		c.Bindings.DSN = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvCSV("RATE_TRUSTED_PROXIES"); ok {
		c.Rate.TrustedProxies = v
	}

	// METRICS
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
}

// Validate chequea lo que no se puede corregir con un default.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Server.Issuer); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.issuer must be an absolute URL: %q", c.Server.Issuer))
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.kind: unknown %q", c.Cache.Kind))
	}
	switch c.Bindings.Driver {
	case "memory", "bolt":
	case "postgres":
		if c.Bindings.DSN == "" {
			errs = append(errs, errors.New("bindings.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("bindings.driver: unknown %q", c.Bindings.Driver))
	}

	if _, err := ParsePrefixes(c.Rate.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("rate.trusted_proxies: %w", err))
	}

	seen := make(map[string]struct{}, len(c.Clients))
	for i, cl := range c.Clients {
		if cl.ID == "" {
			errs = append(errs, fmt.Errorf("clients[%d]: id is required", i))
			continue
		}
		if _, dup := seen[cl.ID]; dup {
			errs = append(errs, fmt.Errorf("clients[%d]: duplicate id %q", i, cl.ID))
		}
		seen[cl.ID] = struct{}{}
		if len(cl.RedirectURIs) == 0 {
			errs = append(errs, fmt.Errorf("client %q: at least one redirect_uri is required", cl.ID))
		}
	}

	for name, p := range c.Providers {
		switch p.Type {
		case "oidc":
			if p.IssuerURL == "" {
				errs = append(errs, fmt.Errorf("provider %q: issuer_url is required", name))
			}
		case "oauth2":
			if p.AuthURL == "" || p.TokenURL == "" || p.UserinfoURL == "" {
				errs = append(errs, fmt.Errorf("provider %q: auth_url, token_url and userinfo_url are required", name))
			}
		case "github":
		default:
			errs = append(errs, fmt.Errorf("provider %q: unknown type %q", name, p.Type))
		}
		if p.ClientID == "" {
			errs = append(errs, fmt.Errorf("provider %q: client_id is required", name))
		}
	}

	return errors.Join(errs...)
}

// ParsePrefixes acepta CIDRs ("10.0.0.0/8") o IPs sueltas ("10.0.0.1").
func ParsePrefixes(list []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(list))
	for _, s := range list {
		if p, err := netip.ParsePrefix(s); err == nil {
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid address or prefix %q", s)
		}
		out = append(out, netip.PrefixFrom(a.Unmap(), a.Unmap().BitLen()))
	}
	return out, nil
}
