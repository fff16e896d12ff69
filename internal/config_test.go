package internal_test

import (
	"os"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	validConfig := func() *internal.Config {
		cfg, err := internal.LoadConfigFromEnv()
		Expect(err).NotTo(HaveOccurred())
		cfg.Database.Driver = "sqlite"
		cfg.Database.Source = ":memory:"
		cfg.Security.AccessTokenSecret = "0123456789abcdef0123456789abcdef"
		return cfg
	}

	It("fills defaults from the struct tags", func() {
		cfg, err := internal.LoadConfigFromEnv()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(8080))
		Expect(cfg.Security.SessionTTL).To(Equal(8 * time.Hour))
		Expect(cfg.Security.SessionCookieName).To(Equal("session_token"))
		Expect(cfg.RateLimit.LoginPerMinute).To(Equal(10))
		Expect(cfg.IsProduction()).To(BeFalse())
	})

	It("reads APP_ prefixed variables", func() {
		Expect(os.Setenv("APP_SECURITY_SESSION_TTL", "2h")).To(Succeed())
		Expect(os.Setenv("APP_ENV", "production")).To(Succeed())
		DeferCleanup(os.Unsetenv, "APP_SECURITY_SESSION_TTL")
		DeferCleanup(os.Unsetenv, "APP_ENV")

		cfg, err := internal.LoadConfigFromEnv()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Security.SessionTTL).To(Equal(2 * time.Hour))
		Expect(cfg.IsProduction()).To(BeTrue())
	})

	It("accepts a complete config", func() {
		Expect(validConfig().Validate()).To(Succeed())
	})

	It("joins every section's problems", func() {
		cfg := validConfig()
		cfg.Database.Driver = "mysql"
		cfg.Security.AccessTokenSecret = "short"
		cfg.Logging.Level = "verbose"

		err := cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("database config"))
		Expect(err.Error()).To(ContainSubstring("security config"))
		Expect(err.Error()).To(ContainSubstring("logging config"))
	})

	It("bounds the bcrypt cost", func() {
		cfg := validConfig()
		cfg.Security.BCryptCost = 2
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("bcrypt_cost")))
	})
})
