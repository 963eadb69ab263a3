package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	return fs
}

func TestGetDefaultConfig(t *testing.T) {
	RegisterTestingT(t)

	cfg := GetDefaultConfig()

	Expect(cfg.Database.Driver).To(Equal(DriverSQLite))
	Expect(cfg.Auth.TokenTTL).To(Equal(30 * time.Minute))
	Expect(cfg.RateLimitEnabled).To(BeTrue())
	Expect(cfg.RateLimitConfigs).To(HaveKey("POST /token"))
	Expect(cfg.RateLimitConfigs).To(HaveKey("default"))
	Expect(cfg.EnforceHTTPS).To(BeFalse())
	Expect(cfg.AllowedOrigins).To(ContainElements("http://localhost:5173", "http://127.0.0.1:5173", "http://localhost", "http://localhost:80"))
	Expect(cfg.TrustedProxies).To(BeEmpty())
}

func TestLoad_ProxyAndOriginLists(t *testing.T) {
	RegisterTestingT(t)

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.10")
	t.Setenv("ALLOWED_ORIGINS", "https://todo.example.com")

	cfg, err := Load(newFlags(t))

	Expect(err).NotTo(HaveOccurred())
	Expect(cfg.TrustedProxies).To(Equal([]string{"10.0.0.0/8", "192.168.1.10"}))
	Expect(cfg.AllowedOrigins).To(Equal([]string{"https://todo.example.com"}))
}

func TestLoad_FromEnvironment(t *testing.T) {
	RegisterTestingT(t)

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/todos")
	t.Setenv("PORT", "9000")

	cfg, err := Load(newFlags(t))

	Expect(err).NotTo(HaveOccurred())
	Expect(cfg.Auth.Secret).To(Equal("from-env"))
	Expect(cfg.Database.Driver).To(Equal(DriverPostgres))
	Expect(cfg.Database.URL).To(Equal("postgres://u:p@localhost:5432/todos"))
	Expect(cfg.Port).To(Equal("9000"))
	Expect(cfg.Auth.TokenTTL).To(Equal(30 * time.Minute))
}

func TestLoad_FileThenFlags(t *testing.T) {
	RegisterTestingT(t)

	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
auth:
  secret: from-file
  token_ttl: 10m
database:
  path: /tmp/file.db
log:
  level: debug
`
	Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())

	cfg, err := Load(newFlags(t, "--config", path, "--log.level", "warn"))

	Expect(err).NotTo(HaveOccurred())
	Expect(cfg.Auth.Secret).To(Equal("from-file"))
	Expect(cfg.Auth.TokenTTL).To(Equal(10 * time.Minute))
	Expect(cfg.Database.Path).To(Equal("/tmp/file.db"))
	Expect(cfg.Log.Level).To(Equal("warn"))
}

func TestLoad_MissingSecretFails(t *testing.T) {
	RegisterTestingT(t)

	t.Setenv("JWT_SECRET", "")

	_, err := Load(newFlags(t))

	Expect(err).To(MatchError(ContainSubstring("auth.secret")))
}

func TestValidate(t *testing.T) {
	RegisterTestingT(t)

	cfg := GetDefaultConfig()
	cfg.Auth.Secret = "s"
	Expect(cfg.Validate()).To(Succeed())

	cfg.Database.Driver = "mongo"
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("unknown database.driver")))

	cfg = GetDefaultConfig()
	cfg.Auth.Secret = "s"
	cfg.Database.Driver = DriverPostgres
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("database.url")))

	cfg = GetDefaultConfig()
	cfg.Auth.Secret = "s"
	cfg.Auth.TokenTTL = 0
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("token_ttl")))

	cfg = GetDefaultConfig()
	cfg.Auth.Secret = "s"
	cfg.RateLimitConfigs["GET /todos/"] = RateLimitConfig{Requests: 0, Window: time.Minute}
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("GET /todos/")))

	cfg = GetDefaultConfig()
	cfg.Auth.Secret = "s"
	cfg.TrustedProxies = []string{"10.0.0.0/8", "192.168.1.10"}
	Expect(cfg.Validate()).To(Succeed())

	cfg.TrustedProxies = []string{"proxy.internal"}
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("proxy.internal")))
}
