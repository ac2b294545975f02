package auth_test

import (
	"context"
	"time"

	"github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/auth"
	"github.com/frahmantamala/store-auth/internal/core/events"
	"github.com/frahmantamala/store-auth/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const ownerPassword = "Passw0rd!"

var _ = Describe("AuthService", func() {
	var (
		ctx       context.Context
		clock     *fakeClock
		repo      *memUserRepository
		publisher *recordingPublisher
		service   *auth.Service
		owner     *user.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock = newFakeClock()
		hasher := cheapHasher()

		hash, err := hasher.Hash(ownerPassword)
		Expect(err).NotTo(HaveOccurred())

		owner = &user.User{ID: "u-owner", Email: "owner@example.com", Username: "owner", PasswordHash: hash, Role: user.RoleStoreOwner}
		deleted := &user.User{ID: "u-deleted", Email: "gone@example.com", Username: "gone", PasswordHash: hash, Role: user.RoleStoreManager, IsDeleted: true}
		broken := &user.User{ID: "u-broken", Email: "broken@example.com", Username: "broken", PasswordHash: "not-a-hash", Role: user.RoleStoreManager}
		degenerate := &user.User{ID: "u-degenerate", Email: "degenerate@example.com", Username: "degenerate", PasswordHash: "$argon2id$v=19$m=1024,t=1,p=0$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNo", Role: user.RoleStoreManager}
		repo = newMemUserRepository(owner, deleted, broken, degenerate)

		gen, err := auth.NewJWTTokenGenerator(testSecurityConfig(), clock)
		Expect(err).NotTo(HaveOccurred())

		publisher = &recordingPublisher{}
		service = auth.NewService(repo, gen, hasher, clock, publisher, quietLogger)
	})

	markDeleted := func() {
		u := repo.get("u-owner")
		u.IsDeleted = true
		repo.put(u)
	}

	login := func() auth.AuthTokens {
		u, err := service.VerifyCredentials(ctx, owner.Email, ownerPassword)
		Expect(err).NotTo(HaveOccurred())
		tokens, err := service.Login(ctx, u, "")
		Expect(err).NotTo(HaveOccurred())
		return tokens
	}

	Describe("VerifyCredentials", func() {
		It("returns the account for a correct password", func() {
			u, err := service.VerifyCredentials(ctx, "owner@example.com", ownerPassword)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).To(Equal("u-owner"))
		})

		DescribeTable("rejects bad credentials uniformly",
			func(email, password string) {
				_, err := service.VerifyCredentials(ctx, email, password)
				Expect(err).To(MatchError(internal.ErrInvalidCredentials))
			},
			Entry("wrong password", "owner@example.com", "nope"),
			Entry("unknown email", "nobody@example.com", ownerPassword),
			Entry("deleted account with wrong password", "gone@example.com", "nope"),
			Entry("unreadable stored hash", "broken@example.com", ownerPassword),
			Entry("stored hash with zero parallelism", "degenerate@example.com", ownerPassword),
		)

		It("reports deleted accounts only after the password matched", func() {
			_, err := service.VerifyCredentials(ctx, "gone@example.com", ownerPassword)
			Expect(err).To(MatchError(internal.ErrAccountDeleted))
		})
	})

	Describe("Login", func() {
		It("stores the refresh token and login time and announces the login", func() {
			tokens := login()

			stored := repo.get("u-owner")
			Expect(stored.RefreshToken).To(Equal(tokens.RefreshToken))
			Expect(stored.LastLoginAt).NotTo(BeNil())
			Expect(*stored.LastLoginAt).To(Equal(clock.Now()))
			Expect(tokens.UserID).To(Equal("u-owner"))
			Expect(publisher.Types()).To(ConsistOf(events.EventTypeUserLoggedIn))
		})

		It("accepts a matching role hint", func() {
			u, err := service.VerifyCredentials(ctx, owner.Email, ownerPassword)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Login(ctx, u, string(user.RoleStoreOwner))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a mismatched role hint without touching the account", func() {
			u, err := service.VerifyCredentials(ctx, owner.Email, ownerPassword)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Login(ctx, u, string(user.RoleAdmin))
			Expect(err).To(MatchError(internal.ErrRoleMismatch))
			stored := repo.get("u-owner")
			Expect(stored.RefreshToken).To(BeEmpty())
			Expect(stored.LastLoginAt).To(BeNil())
			Expect(publisher.Types()).To(BeEmpty())
		})

		It("replaces the previous session's refresh token", func() {
			first := login()
			clock.Advance(time.Second)
			second := login()

			_, err := service.AuthenticateRefresh(ctx, first.RefreshToken)
			Expect(err).To(MatchError(internal.ErrInvalidRefreshToken))

			u, err := service.AuthenticateRefresh(ctx, second.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).To(Equal("u-owner"))
		})
	})

	Describe("Refresh", func() {
		It("rotates the pair and retires the presented token", func() {
			tokens := login()

			u, err := service.AuthenticateRefresh(ctx, tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())

			rotated, err := service.Refresh(ctx, u)
			Expect(err).NotTo(HaveOccurred())
			Expect(rotated.RefreshToken).NotTo(Equal(tokens.RefreshToken))
			Expect(repo.get("u-owner").RefreshToken).To(Equal(rotated.RefreshToken))

			_, err = service.AuthenticateRefresh(ctx, tokens.RefreshToken)
			Expect(err).To(MatchError(internal.ErrInvalidRefreshToken))
		})

		It("lets only one of two concurrent rotations win", func() {
			tokens := login()

			a, err := service.AuthenticateRefresh(ctx, tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			b, err := service.AuthenticateRefresh(ctx, tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Refresh(ctx, a)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Refresh(ctx, b)
			Expect(err).To(MatchError(internal.ErrInvalidRefreshToken))
		})

		It("retires every earlier token along a rotation chain", func() {
			issued := []string{login().RefreshToken}
			for i := 0; i < 2; i++ {
				clock.Advance(time.Second)
				u, err := service.AuthenticateRefresh(ctx, issued[len(issued)-1])
				Expect(err).NotTo(HaveOccurred())
				rotated, err := service.Refresh(ctx, u)
				Expect(err).NotTo(HaveOccurred())
				Expect(rotated.UserID).To(Equal("u-owner"))
				issued = append(issued, rotated.RefreshToken)
			}

			for _, old := range issued[:len(issued)-1] {
				_, err := service.AuthenticateRefresh(ctx, old)
				Expect(err).To(MatchError(internal.ErrInvalidRefreshToken))
			}
			_, err := service.AuthenticateRefresh(ctx, issued[len(issued)-1])
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a refresh token presented with surrounding whitespace", func() {
			tokens := login()
			_, err := service.AuthenticateRefresh(ctx, " "+tokens.RefreshToken)
			Expect(err).To(HaveOccurred())
		})

		It("rejects the active token once the account is deleted", func() {
			tokens := login()
			markDeleted()

			_, err := service.AuthenticateRefresh(ctx, tokens.RefreshToken)
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))
		})

		It("refuses accounts without an active token", func() {
			u := repo.get("u-owner")
			_, err := service.Refresh(ctx, &u)
			Expect(err).To(MatchError(internal.ErrInvalidRefreshToken))
		})
	})

	Describe("Logout", func() {
		It("revokes the refresh token", func() {
			tokens := login()

			u, err := service.AuthenticateAccess(ctx, tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(service.Logout(ctx, u)).To(Succeed())

			Expect(repo.get("u-owner").RefreshToken).To(BeEmpty())
			_, err = service.AuthenticateRefresh(ctx, tokens.RefreshToken)
			Expect(err).To(MatchError(internal.ErrInvalidRefreshToken))
			Expect(publisher.Types()).To(ContainElement(events.EventTypeUserLoggedOut))
		})
	})

	Describe("AuthenticateAccess", func() {
		It("resolves a valid token to the live account", func() {
			tokens := login()
			u, err := service.AuthenticateAccess(ctx, tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("owner@example.com"))
		})

		It("rejects garbage", func() {
			_, err := service.AuthenticateAccess(ctx, "not.a.jwt")
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))
		})

		It("rejects tokens whose account was deleted after issue", func() {
			tokens := login()
			markDeleted()

			_, err := service.AuthenticateAccess(ctx, tokens.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))
		})

		It("rejects tokens whose account no longer exists", func() {
			tokens := login()
			repo.mu.Lock()
			delete(repo.users, "u-owner")
			repo.mu.Unlock()

			_, err := service.AuthenticateAccess(ctx, tokens.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))
		})

		It("rejects expired tokens", func() {
			tokens := login()
			clock.Advance(16 * time.Minute)
			_, err := service.AuthenticateAccess(ctx, tokens.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))
		})
	})

	Describe("email verification", func() {
		var token string

		BeforeEach(func() {
			var err error
			token, err = service.GenerateEmailVerificationToken(owner)
			Expect(err).NotTo(HaveOccurred())
		})

		It("marks the account verified once", func() {
			u, err := service.AuthenticateEmailVerification(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(service.VerifyEmail(ctx, u)).To(Succeed())
			Expect(repo.get("u-owner").IsEmailVerified).To(BeTrue())
			Expect(publisher.Types()).To(ConsistOf(events.EventTypeEmailVerified))

			again, err := service.AuthenticateEmailVerification(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(service.VerifyEmail(ctx, again)).To(MatchError(internal.ErrAlreadyVerified))
		})

		It("is invalidated by an email change", func() {
			u := repo.get("u-owner")
			u.Email = "new@example.com"
			repo.put(u)

			_, err := service.AuthenticateEmailVerification(ctx, token)
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))
		})

		It("is rejected once the account is deleted", func() {
			markDeleted()

			_, err := service.AuthenticateEmailVerification(ctx, token)
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))
		})

		It("reports AlreadyVerified when the flag flipped after the token was checked", func() {
			stale, err := service.AuthenticateEmailVerification(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			fresh, err := service.AuthenticateEmailVerification(ctx, token)
			Expect(err).NotTo(HaveOccurred())

			Expect(service.VerifyEmail(ctx, fresh)).To(Succeed())
			Expect(service.VerifyEmail(ctx, stale)).To(MatchError(internal.ErrAlreadyVerified))
			Expect(publisher.Types()).To(ConsistOf(events.EventTypeEmailVerified))
		})

		It("is not accepted as an access token", func() {
			_, err := service.AuthenticateAccess(ctx, token)
			Expect(err).To(MatchError(internal.ErrInvalidOrExpiredToken))
		})
	})
})
