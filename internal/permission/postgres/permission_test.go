package postgres_test

import (
	"context"
	"io"
	"log/slog"

	permissionDatamodel "github.com/frahmantamala/store-auth/internal/core/datamodel/permission"
	storeDatamodel "github.com/frahmantamala/store-auth/internal/core/datamodel/store"
	"github.com/frahmantamala/store-auth/internal/permission"
	permissionPostgres "github.com/frahmantamala/store-auth/internal/permission/postgres"
	"github.com/frahmantamala/store-auth/internal/testutil"
	"github.com/frahmantamala/store-auth/internal/user"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Permission repositories", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		sqlDB   *sqlx.DB
		catalog *permissionPostgres.CatalogRepository
		grants  *permissionPostgres.GrantRepository
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, sqlDB, err = testutil.OpenSQLite()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(testutil.Close, db)

		catalog = permissionPostgres.NewCatalogRepository(db)
		grants = permissionPostgres.NewGrantRepository(sqlDB)
	})

	Describe("CatalogRepository", func() {
		It("round-trips allowed actions as JSON", func() {
			rec := &permission.Record{
				Name:           permission.OrdersManage.Name(),
				Code:           permission.OrdersManage,
				Action:         permission.ActionManage,
				AllowedActions: permission.OrdersManage.AllowedActions(),
			}
			Expect(catalog.Create(ctx, rec)).To(Succeed())
			Expect(rec.ID).NotTo(BeEmpty())

			found, err := catalog.FindByCodeAndAction(ctx, permission.OrdersManage, permission.ActionManage)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.AllowedActions).To(Equal(permission.OrdersManage.AllowedActions()))
			Expect(found.Name).To(Equal("Orders - Manage"))
		})

		It("reports missing rows", func() {
			_, err := catalog.FindByCodeAndAction(ctx, permission.OrdersRead, permission.ActionRead)
			Expect(err).To(MatchError(permission.ErrNotFound))
		})

		It("updates name and actions in place", func() {
			rec := &permission.Record{Name: "old", Code: permission.ReportsView, Action: permission.ActionRead,
				AllowedActions: []permission.Action{permission.ActionRead}}
			Expect(catalog.Create(ctx, rec)).To(Succeed())

			rec.Name = permission.ReportsView.Name()
			rec.AllowedActions = permission.ReportsView.AllowedActions()
			Expect(catalog.Update(ctx, rec)).To(Succeed())

			all, err := catalog.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
			Expect(all[0].Name).To(Equal("Reports - View"))
			Expect(all[0].AllowedActions).To(ConsistOf(permission.ActionRead, permission.ActionView))
		})

		It("backs a seeder run that verifies clean", func() {
			seeder := permission.NewSeeder(catalog, slog.New(slog.NewTextHandler(io.Discard, nil)))
			_, err := seeder.Seed(ctx)
			Expect(err).NotTo(HaveOccurred())
			_, err = seeder.Seed(ctx)
			Expect(err).NotTo(HaveOccurred())

			drifts, err := seeder.Verify(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(drifts).To(BeEmpty())

			all, err := catalog.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(len(permission.AllCodes())))
		})
	})

	Describe("GrantRepository", func() {
		var membership *storeDatamodel.UserStore

		grant := func(code permission.Code) {
			rec, err := catalog.FindByCodeAndAction(ctx, code, code.PrimaryAction())
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Create(&permissionDatamodel.UserStorePermission{UserStoreID: membership.ID, PermissionID: rec.ID}).Error).To(Succeed())
		}

		BeforeEach(func() {
			_, err := permission.NewSeeder(catalog, slog.New(slog.NewTextHandler(io.Discard, nil))).Seed(ctx)
			Expect(err).NotTo(HaveOccurred())

			membership = &storeDatamodel.UserStore{UserID: "u1", StoreID: "s1", Role: string(user.RoleStoreManager)}
			Expect(db.Create(membership).Error).To(Succeed())
		})

		It("finds memberships by user and store", func() {
			m, err := grants.FindMembership(ctx, "u1", "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.ID).To(Equal(membership.ID))
			Expect(m.Role).To(Equal(user.RoleStoreManager))

			_, err = grants.FindMembership(ctx, "u1", "s2")
			Expect(err).To(MatchError(permission.ErrMembershipNotFound))
		})

		It("returns the allowed actions of granted codes only", func() {
			grant(permission.ProductsManage)
			grant(permission.OrdersRead)

			got, err := grants.FindGrantedActions(ctx, membership.ID,
				[]permission.Code{permission.ProductsRead, permission.ProductsManage})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[permission.ProductsManage]).To(ConsistOf(permission.ProductsManage.AllowedActions()))
		})

		It("returns nothing for an empty code list", func() {
			got, err := grants.FindGrantedActions(ctx, membership.ID, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
		})

		It("drives the resolver end to end", func() {
			grant(permission.ProductsManage)
			resolver := permission.NewResolver(grants, slog.New(slog.NewTextHandler(io.Discard, nil)))

			Expect(resolver.CheckStorePermission(ctx, "u1", "s1", permission.ProductsDelete, permission.ActionDelete)).To(Succeed())
			Expect(resolver.CheckStorePermission(ctx, "u1", "s1", permission.OrdersRead, permission.ActionRead)).NotTo(Succeed())
		})
	})
})
