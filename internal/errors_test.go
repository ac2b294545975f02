package internal_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/frahmantamala/store-auth/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AppError", func() {
	It("matches sentinels through causes and wrapping", func() {
		withCause := internal.ErrInvalidRefreshToken.WithCause(errors.New("stale jti"))
		Expect(withCause).To(MatchError(internal.ErrInvalidRefreshToken))
		Expect(internal.ErrInvalidRefreshToken.Cause).To(BeNil())

		wrapped := fmt.Errorf("refresh: %w", withCause)
		appErr, ok := internal.IsAppError(wrapped)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusUnauthorized))

		Expect(errors.Is(internal.ErrInvalidOrExpiredToken, internal.ErrInvalidRefreshToken)).To(BeFalse())
	})

	It("wraps forbidden reasons without changing the response", func() {
		err := internal.Forbidden("role %s not allowed", "store_manager")
		Expect(err).To(MatchError(internal.ErrForbidden))
		Expect(err.Error()).To(ContainSubstring("store_manager"))

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Message).NotTo(ContainSubstring("store_manager"))
	})

	DescribeTable("maps to HTTP status",
		func(err *internal.AppError, status int) {
			code, _ := err.ToHTTPResponse()
			Expect(code).To(Equal(status))
		},
		Entry("invalid credentials", internal.ErrInvalidCredentials, http.StatusUnauthorized),
		Entry("role mismatch", internal.ErrRoleMismatch, http.StatusBadRequest),
		Entry("already verified", internal.ErrAlreadyVerified, http.StatusConflict),
		Entry("forbidden", internal.ErrForbidden, http.StatusForbidden),
		Entry("too many requests", internal.ErrTooManyRequests, http.StatusTooManyRequests),
		Entry("not a member", internal.ErrNotMember, http.StatusNotFound),
		Entry("unknown permission", internal.ErrUnknownPermission, http.StatusBadRequest),
	)

	It("serialises type, code and field details but never the cause", func() {
		err := internal.NewValidationFieldError("email", "email is required", internal.ErrCodeValidationFailed).
			WithCause(errors.New("db password leaked"))
		_, body := err.ToHTTPResponse()
		out, marshalErr := json.Marshal(body)
		Expect(marshalErr).NotTo(HaveOccurred())

		Expect(string(out)).To(ContainSubstring(`"type":"VALIDATION_ERROR"`))
		Expect(string(out)).To(ContainSubstring(`"field":"email"`))
		Expect(string(out)).NotTo(ContainSubstring("leaked"))
		Expect(err.Error()).To(Equal("email is required"))
	})
})

var _ = Describe("WithTimeout", func() {
	It("defaults non-positive durations", func() {
		ctx, cancel := internal.WithTimeout(context.Background(), 0)
		defer cancel()
		deadline, ok := ctx.Deadline()
		Expect(ok).To(BeTrue())
		Expect(time.Until(deadline)).To(BeNumerically("~", 5*time.Second, time.Second))
	})
})
