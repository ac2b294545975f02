package user_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	errs "github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubRepository struct {
	users map[string]*user.User
	err   error
}

func (s *stubRepository) FindByID(_ context.Context, id string) (*user.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

var _ = Describe("User", func() {
	Describe("roles", func() {
		DescribeTable("ParseRole",
			func(in string, want user.Role, ok bool) {
				r, err := user.ParseRole(in)
				if !ok {
					Expect(err).To(MatchError(user.ErrUnknownRole))
					return
				}
				Expect(err).NotTo(HaveOccurred())
				Expect(r).To(Equal(want))
			},
			Entry("admin", "admin", user.RoleAdmin, true),
			Entry("owner with spaces", " store_owner ", user.RoleStoreOwner, true),
			Entry("manager", "store_manager", user.RoleStoreManager, true),
			Entry("unknown", "superuser", user.Role(""), false),
			Entry("empty", "", user.Role(""), false),
		)

		It("matches any listed role", func() {
			u := &user.User{Role: user.RoleStoreManager}
			Expect(u.HasRole(user.RoleStoreOwner, user.RoleStoreManager)).To(BeTrue())
			Expect(u.HasRole(user.RoleAdmin)).To(BeFalse())
			Expect(u.HasRole()).To(BeFalse())
		})
	})

	It("carries the user through a context", func() {
		_, ok := user.FromContext(context.Background())
		Expect(ok).To(BeFalse())

		ctx := user.WithContext(context.Background(), &user.User{ID: "u1"})
		u, ok := user.FromContext(ctx)
		Expect(ok).To(BeTrue())
		Expect(u.ID).To(Equal("u1"))
	})

	It("maps an empty refresh token to NULL and back", func() {
		m := user.ToDataModel(&user.User{ID: "u1"})
		Expect(m.RefreshToken).To(BeNil())
		Expect(user.FromDataModel(m).RefreshToken).To(BeEmpty())

		m = user.ToDataModel(&user.User{ID: "u1", RefreshToken: "t"})
		Expect(*m.RefreshToken).To(Equal("t"))
	})

	Describe("Service.GetByID", func() {
		var repo *stubRepository

		BeforeEach(func() {
			repo = &stubRepository{users: map[string]*user.User{
				"live":    {ID: "live", Email: "live@example.com"},
				"deleted": {ID: "deleted", IsDeleted: true},
			}}
		})

		It("returns live users", func() {
			u, err := user.NewService(repo).GetByID(context.Background(), "live")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("live@example.com"))
		})

		It("hides missing and deleted users behind UserNotFound", func() {
			_, err := user.NewService(repo).GetByID(context.Background(), "nope")
			Expect(err).To(MatchError(errs.ErrUserNotFound))
			_, err = user.NewService(repo).GetByID(context.Background(), "deleted")
			Expect(err).To(MatchError(errs.ErrUserNotFound))
		})

		It("wraps storage failures", func() {
			repo.err = errors.New("connection reset")
			_, err := user.NewService(repo).GetByID(context.Background(), "live")
			Expect(err).To(MatchError(ContainSubstring("connection reset")))
			_, isApp := errs.IsAppError(err)
			Expect(isApp).To(BeFalse())
		})
	})

	Describe("Handler.GetCurrentUser", func() {
		var handler *user.Handler

		BeforeEach(func() {
			handler = user.NewHandler(user.NewService(&stubRepository{users: map[string]*user.User{
				"u1": {ID: "u1", Email: "me@example.com", Role: user.RoleStoreOwner, PasswordHash: "secret"},
			}}))
		})

		It("rejects requests without an authenticated user", func() {
			rec := httptest.NewRecorder()
			handler.GetCurrentUser(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("returns the profile without secrets", func() {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req = req.WithContext(user.WithContext(req.Context(), &user.User{ID: "u1"}))
			rec := httptest.NewRecorder()
			handler.GetCurrentUser(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).NotTo(ContainSubstring("secret"))

			var body map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("email", "me@example.com"))
			Expect(body).To(HaveKeyWithValue("role", "store_owner"))
		})
	})
})
