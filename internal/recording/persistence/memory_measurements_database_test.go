package persistence_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"measurements-server/cmd/config"
	"measurements-server/internal/infra/async"
	"measurements-server/internal/recording/domain"
	"measurements-server/internal/recording/persistence"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MemoryMeasurementsDatabase", func() {
	var database *persistence.MemoryMeasurementsDatabase
	var ctx context.Context
	var base time.Time

	measurementAt := func(supplierID string, value float64, offset int) domain.Measurement {
		return domain.NewMeasurement(supplierID, value, base.Add(time.Duration(offset)*time.Second))
	}

	BeforeEach(func() {
		database = persistence.NewMemoryMeasurementsDatabase(config.DatabaseConfig{}, nil)
		ctx = context.Background()
		base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	})

	Context("Latest", func() {
		It("should return exactly the measurement just recorded", func() {
			m := measurementAt("s1", 21.5, 0)
			Expect(database.Record(ctx, m)).To(Succeed())

			latest, err := database.Latest(ctx, "s1", 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(latest).To(Equal([]domain.Measurement{m}))
		})

		It("should return entries newest first", func() {
			for i := range 5 {
				Expect(database.Record(ctx, measurementAt("s1", float64(i), i))).To(Succeed())
			}

			latest, err := database.Latest(ctx, "s1", 3)

			Expect(err).NotTo(HaveOccurred())
			Expect(latest).To(HaveLen(3))
			Expect(latest[0].Value).To(Equal(4.0))
			Expect(latest[1].Value).To(Equal(3.0))
			Expect(latest[2].Value).To(Equal(2.0))
		})

		It("should return every entry without padding when fewer exist", func() {
			Expect(database.Record(ctx, measurementAt("s1", 1, 0))).To(Succeed())
			Expect(database.Record(ctx, measurementAt("s1", 2, 1))).To(Succeed())

			latest, err := database.Latest(ctx, "s1", 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(latest).To(HaveLen(2))
			Expect(latest[0].Value).To(Equal(2.0))
		})

		It("should keep suppliers apart", func() {
			Expect(database.Record(ctx, measurementAt("s1", 1, 0))).To(Succeed())
			Expect(database.Record(ctx, measurementAt("s2", 2, 1))).To(Succeed())

			latest, err := database.Latest(ctx, "s1", 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(latest).To(HaveLen(1))
			Expect(latest[0].SupplierID).To(Equal("s1"))
		})

		It("should return an empty result for unknown suppliers", func() {
			latest, err := database.Latest(ctx, "ghost", 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(latest).To(BeEmpty())
		})

		DescribeTable("should reject counts below one",
			func(count int) {
				Expect(database.Record(ctx, measurementAt("s1", 1, 0))).To(Succeed())

				_, err := database.Latest(ctx, "s1", count)
				Expect(err).To(MatchError(domain.ErrInvalidArgument))
			},
			Entry("zero", 0),
			Entry("negative", -3),
		)
	})

	Context("Record", func() {
		It("should be safe under concurrent appends", func() {
			var wg sync.WaitGroup
			for worker := range 8 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					for i := range 50 {
						m := measurementAt(fmt.Sprintf("s%d", worker%2), float64(i), i)
						Expect(database.Record(ctx, m)).To(Succeed())
						_, err := database.Latest(ctx, m.SupplierID, 5)
						Expect(err).NotTo(HaveOccurred())
					}
				}()
			}
			wg.Wait()

			Expect(database.Count("s0")).To(Equal(200))
			Expect(database.Count("s1")).To(Equal(200))
		})

		When("a retention cap is configured", func() {
			BeforeEach(func() {
				database = persistence.NewMemoryMeasurementsDatabase(config.DatabaseConfig{MaxEntriesPerMeasurement: 3}, nil)
			})

			It("should drop the oldest entries", func() {
				for i := range 5 {
					Expect(database.Record(ctx, measurementAt("s1", float64(i), i))).To(Succeed())
				}

				latest, err := database.Latest(ctx, "s1", 10)

				Expect(err).NotTo(HaveOccurred())
				Expect(database.Count("s1")).To(Equal(3))
				Expect(latest[0].Value).To(Equal(4.0))
				Expect(latest[2].Value).To(Equal(2.0))
			})
		})

		When("a broker is attached", func() {
			var broker *async.LocalBroker

			BeforeEach(func() {
				broker = async.NewLocalBroker()
				database = persistence.NewMemoryMeasurementsDatabase(config.DatabaseConfig{}, broker)
			})

			It("should announce the recorded measurement on the supplier topic", func() {
				subscription, err := broker.Subscribe(persistence.MeasurementTopic("s1"))
				Expect(err).NotTo(HaveOccurred())
				m := measurementAt("s1", 19.25, 0)

				Expect(database.Record(ctx, m)).To(Succeed())

				Eventually(subscription.Receiver).Should(Receive(And(
					HaveField("Event", persistence.EventMeasurementRecorded),
					HaveField("Value", m),
				)))
			})

			It("should record even when nobody listens", func() {
				Expect(database.Record(ctx, measurementAt("s1", 1, 0))).To(Succeed())
				Expect(database.Count("s1")).To(Equal(1))
			})
		})
	})
})
