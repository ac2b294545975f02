package auth_test

import (
	"time"

	"github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/auth"
	"github.com/frahmantamala/store-auth/internal/user"
	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("JWTTokenGenerator", func() {
	var (
		clock *fakeClock
		gen   *auth.JWTTokenGenerator
		u     *user.User
	)

	BeforeEach(func() {
		var err error
		clock = newFakeClock()
		gen, err = auth.NewJWTTokenGenerator(testSecurityConfig(), clock)
		Expect(err).NotTo(HaveOccurred())
		u = &user.User{ID: "user-1", Email: "owner@example.com", Role: user.RoleStoreOwner}
	})

	Describe("construction", func() {
		It("rejects a missing secret", func() {
			cfg := testSecurityConfig()
			cfg.RefreshTokenSecret = ""
			_, err := auth.NewJWTTokenGenerator(cfg, clock)
			Expect(err).To(MatchError(internal.ErrConfiguration))
		})

		It("rejects shared secrets", func() {
			cfg := testSecurityConfig()
			cfg.EmailVerificationSecret = cfg.AccessTokenSecret
			_, err := auth.NewJWTTokenGenerator(cfg, clock)
			Expect(err).To(MatchError(internal.ErrConfiguration))
		})

		It("falls back to default lifetimes", func() {
			cfg := testSecurityConfig()
			cfg.AccessTokenDuration = 0
			g, err := auth.NewJWTTokenGenerator(cfg, clock)
			Expect(err).NotTo(HaveOccurred())

			tokens, err := g.GeneratePair(u)
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.ExpiresIn).To(Equal(int64(internal.DefaultAccessTokenDuration.Seconds())))
		})
	})

	Describe("GeneratePair", func() {
		It("issues distinct bearer tokens carrying the account claims", func() {
			tokens, err := gen.GeneratePair(u)
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.TokenType).To(Equal("Bearer"))
			Expect(tokens.ExpiresIn).To(Equal(int64(900)))
			Expect(tokens.AccessToken).NotTo(Equal(tokens.RefreshToken))

			claims, err := gen.VerifyAccess(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID()).To(Equal("user-1"))
			Expect(claims.Email).To(Equal("owner@example.com"))
			Expect(claims.Role).To(Equal(user.RoleStoreOwner))
			Expect(claims.ExpiresAt.Time).To(BeTemporally("==", clock.Now().Add(15*time.Minute)))
		})

		It("never repeats a token within the same second", func() {
			first, err := gen.GeneratePair(u)
			Expect(err).NotTo(HaveOccurred())
			second, err := gen.GeneratePair(u)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.RefreshToken).NotTo(Equal(first.RefreshToken))
			Expect(second.AccessToken).NotTo(Equal(first.AccessToken))
		})
	})

	Describe("verification", func() {
		var tokens auth.AuthTokens

		BeforeEach(func() {
			var err error
			tokens, err = gen.GeneratePair(u)
			Expect(err).NotTo(HaveOccurred())
		})

		It("does not accept a token of one kind as another", func() {
			_, err := gen.VerifyRefresh(tokens.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))

			_, err = gen.VerifyAccess(tokens.RefreshToken)
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))

			_, err = gen.VerifyEmailVerification(tokens.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))
		})

		It("rejects expired access tokens using the injected clock", func() {
			clock.Advance(15*time.Minute + time.Second)
			_, err := gen.VerifyAccess(tokens.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))

			_, err = gen.VerifyRefresh(tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects tampered tokens", func() {
			_, err := gen.VerifyAccess(tokens.AccessToken + "x")
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))
		})

		It("rejects other signing algorithms", func() {
			none, err := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{
				Email: u.Email,
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   u.ID,
					ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
				},
			}).SignedString(jwt.UnsafeAllowNoneSignatureType)
			Expect(err).NotTo(HaveOccurred())

			_, err = gen.VerifyAccess(none)
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))
		})

		It("requires an expiry", func() {
			forever, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
				Email:            u.Email,
				RegisteredClaims: jwt.RegisteredClaims{Subject: u.ID},
			}).SignedString([]byte(testSecurityConfig().AccessTokenSecret))
			Expect(err).NotTo(HaveOccurred())

			_, err = gen.VerifyAccess(forever)
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))
		})
	})

	Describe("email verification tokens", func() {
		It("round-trips subject and email", func() {
			token, err := gen.GenerateEmailVerification(u)
			Expect(err).NotTo(HaveOccurred())

			claims, err := gen.VerifyEmailVerification(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID()).To(Equal("user-1"))
			Expect(claims.Email).To(Equal("owner@example.com"))
		})

		It("expires after the configured lifetime", func() {
			token, err := gen.GenerateEmailVerification(u)
			Expect(err).NotTo(HaveOccurred())

			clock.Advance(24*time.Hour + time.Second)
			_, err = gen.VerifyEmailVerification(token)
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))
		})

		It("requires the verification type claim", func() {
			forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.EmailVerificationClaims{
				Email: u.Email,
				Type:  "password_reset",
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   u.ID,
					ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
				},
			}).SignedString([]byte(testSecurityConfig().EmailVerificationSecret))
			Expect(err).NotTo(HaveOccurred())

			_, err = gen.VerifyEmailVerification(forged)
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))
		})
	})
})
