package session_test

import (
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/session"
	"github.com/frahmantamala/inventory-management/internal/user"
	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("JWTTokenGenerator", func() {
	var (
		tokens   *session.JWTTokenGenerator
		identity *user.Identity
	)

	BeforeEach(func() {
		tokens = session.NewJWTTokenGenerator("0123456789abcdef0123456789abcdef", time.Minute)
		identity = &user.Identity{UserID: 42, Username: "clerk", Role: user.RoleUser}
	})

	It("round trips the user id", func() {
		raw, expiresAt, err := tokens.GenerateAccessToken(identity)
		Expect(err).NotTo(HaveOccurred())
		Expect(expiresAt).To(BeTemporally("~", time.Now().Add(time.Minute), 2*time.Second))

		claims, err := tokens.ValidateToken(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.UserID).To(Equal(int64(42)))
		Expect(claims.Subject).To(Equal("42"))
	})

	It("rejects tokens signed with another secret", func() {
		other := session.NewJWTTokenGenerator("ffffffffffffffffffffffffffffffff", time.Minute)
		raw, _, err := other.GenerateAccessToken(identity)
		Expect(err).NotTo(HaveOccurred())

		_, err = tokens.ValidateToken(raw)
		Expect(err).To(MatchError(internal.ErrInvalidToken))
	})

	It("reports expiry separately", func() {
		claims := &session.Claims{
			UserID: 42,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tokens.AccessTokenSecret)
		Expect(err).NotTo(HaveOccurred())

		_, err = tokens.ValidateToken(raw)
		Expect(err).To(MatchError(internal.ErrTokenExpired))
	})

	It("rejects the none algorithm", func() {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, &session.Claims{UserID: 42}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		Expect(err).NotTo(HaveOccurred())

		_, err = tokens.ValidateToken(raw)
		Expect(err).To(MatchError(internal.ErrInvalidToken))
	})

	It("generates distinct random session tokens", func() {
		a, err := session.GenerateRandomToken()
		Expect(err).NotTo(HaveOccurred())
		b, err := session.GenerateRandomToken()
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(HaveLen(64))
		Expect(a).NotTo(Equal(b))
	})
})
