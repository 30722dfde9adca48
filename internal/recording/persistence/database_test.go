package persistence_test

import (
	"context"
	"time"

	"measurements-server/cmd/config"
	"measurements-server/internal/recording/domain"
	"measurements-server/internal/recording/persistence"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewMeasurementsDatabase", func() {
	DescribeTable("should build the store named by the driver",
		func(driver string, expected any) {
			database, closer, err := persistence.NewMeasurementsDatabase(config.DatabaseConfig{Driver: driver}, nil)
			Expect(err).NotTo(HaveOccurred())
			defer closer.Close()

			Expect(database).To(BeAssignableToTypeOf(expected))

			m := domain.NewMeasurement("s1", 1.5, time.Now())
			Expect(database.Record(context.Background(), m)).To(Succeed())
			latest, err := database.Latest(context.Background(), "s1", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(latest).To(HaveLen(1))
		},
		Entry("default", "", &persistence.MemoryMeasurementsDatabase{}),
		Entry("memory", persistence.DriverMemory, &persistence.MemoryMeasurementsDatabase{}),
		Entry("sqlite", persistence.DriverSQLite, &persistence.SQLMeasurementsDatabase{}),
	)

	It("should give each sqlite store its own data", func() {
		cfg := config.DatabaseConfig{Driver: persistence.DriverSQLite}
		first, closeFirst, err := persistence.NewMeasurementsDatabase(cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		defer closeFirst.Close()
		second, closeSecond, err := persistence.NewMeasurementsDatabase(cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		defer closeSecond.Close()

		Expect(first.Record(context.Background(), domain.NewMeasurement("s1", 1.0, time.Now()))).To(Succeed())

		latest, err := second.Latest(context.Background(), "s1", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(latest).To(BeEmpty())
	})

	It("should reject unknown drivers", func() {
		_, _, err := persistence.NewMeasurementsDatabase(config.DatabaseConfig{Driver: "postgres"}, nil)
		Expect(err).To(MatchError(domain.ErrInvalidConfig))
	})
})
