package cmd

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("loadConfig", func() {
	It("overlays config.yml on the defaults", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`
database:
  driver: sqlite
  source: ":memory:"
security:
  access_token_secret: 0123456789abcdef0123456789abcdef
  session_ttl: 30m
logging:
  level: error
`), 0o600)).To(Succeed())

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Security.SessionTTL).To(Equal(30 * time.Minute))
		Expect(cfg.Security.BCryptCost).To(Equal(12))
		Expect(cfg.Server.Port).To(Equal(8080))
		Expect(cfg.Logging.Format).To(Equal("json"))
	})

	It("refuses an invalid file", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte("database:\n  driver: oracle\n"), 0o600)).To(Succeed())

		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("error validating config")))
	})
})
