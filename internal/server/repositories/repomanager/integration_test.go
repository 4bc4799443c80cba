//go:build integration

package repomanager_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repoerr"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

func startPostgres(ctx context.Context) (repomanager.RepositoryManager, func(), error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("gophauth_test"),
		postgres.WithUsername("gophauth"),
		postgres.WithPassword("gophauth"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, err
	}

	m, err := repomanager.NewPostgresRepositoryManager(dsn)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = m.Close(ctx)
		_ = container.Terminate(ctx)
	}
	return m, cleanup, nil
}

func startMongo(ctx context.Context) (repomanager.RepositoryManager, func(), error) {
	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		return nil, nil, err
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		return nil, nil, err
	}

	m, err := repomanager.NewMongoRepositoryManager(uri, "gophauth_test")
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = m.Close(ctx)
		_ = container.Terminate(ctx)
	}
	return m, cleanup, nil
}

// describeUserStore runs the same contract against every store.
func describeUserStore(name string, start func(context.Context) (repomanager.RepositoryManager, func(), error)) {
	Describe(name, Ordered, func() {
		var (
			m       repomanager.RepositoryManager
			cleanup func()
			ctx     = context.Background()
		)

		BeforeAll(func() {
			var err error
			m, cleanup, err = start(ctx)
			Expect(err).NotTo(HaveOccurred())

			Eventually(func() error { return m.Ping(ctx) }).
				WithTimeout(30 * time.Second).
				WithPolling(500 * time.Millisecond).
				Should(Succeed())

			Expect(m.RunMigrations(ctx)).To(Succeed())
			// Idempotent.
			Expect(m.RunMigrations(ctx)).To(Succeed())
		})

		AfterAll(func() {
			if cleanup != nil {
				cleanup()
			}
		})

		It("creates a user and finds it by email and id", func() {
			created, err := m.Users().Create(ctx, &models.User{
				Name: "alice", Email: "alice@example.com", HashedPassword: "$2a$04$hash", Role: "user",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).NotTo(BeEmpty())
			Expect(created.CreatedAt).NotTo(BeZero())

			byEmail, err := m.Users().FindByEmail(ctx, "alice@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(byEmail).NotTo(BeNil())
			Expect(byEmail.ID).To(Equal(created.ID))
			Expect(byEmail.HashedPassword).To(Equal("$2a$04$hash"))

			byID, err := m.Users().FindByID(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byID.Email).To(Equal("alice@example.com"))
		})

		It("rejects a second user with the same email", func() {
			_, err := m.Users().Create(ctx, &models.User{
				Name: "bob", Email: "dup@example.com", HashedPassword: "h", Role: "user",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = m.Users().Create(ctx, &models.User{
				Name: "bobby", Email: "dup@example.com", HashedPassword: "h", Role: "user",
			})
			Expect(repoerr.Is(err, repoerr.DuplicateEntry)).To(BeTrue(), "got %v", err)
		})

		It("reports absence", func() {
			u, err := m.Users().FindByEmail(ctx, "ghost@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(BeNil())

			_, err = m.Users().FindByID(ctx, "not-an-id")
			Expect(repoerr.Is(err, repoerr.QueryFailure)).To(BeTrue(), "got %v", err)
		})
	})
}

var _ = Describe("user stores", func() {
	describeUserStore("PostgreSQL", startPostgres)
	describeUserStore("MongoDB", startMongo)
})
