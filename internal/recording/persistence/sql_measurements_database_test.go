package persistence_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"measurements-server/cmd/config"
	"measurements-server/internal/infra/async"
	"measurements-server/internal/infra/sql"
	"measurements-server/internal/recording/domain"
	"measurements-server/internal/recording/persistence"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SQLMeasurementsDatabase", func() {
	var orm *sql.DB
	var database *persistence.SQLMeasurementsDatabase
	var ctx context.Context
	var base time.Time

	measurementAt := func(supplierID string, value any, offset int) domain.Measurement {
		return domain.NewMeasurement(supplierID, value, base.Add(time.Duration(offset)*time.Millisecond))
	}

	openDatabase := func(cfg config.DatabaseConfig, broker async.InternalBroker) {
		var err error
		orm, err = sql.NewMemoryORM(uuid.NewString(), time.Second)
		Expect(err).NotTo(HaveOccurred())
		database, err = persistence.NewSQLMeasurementsDatabase(orm, cfg, broker)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		ctx = context.Background()
		base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		openDatabase(config.DatabaseConfig{}, nil)
	})

	AfterEach(func() {
		orm.Close()
	})

	Context("Latest", func() {
		It("should return exactly the measurement just recorded", func() {
			m := measurementAt("s1", 21.5, 0)
			Expect(database.Record(ctx, m)).To(Succeed())

			latest, err := database.Latest(ctx, "s1", 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(latest).To(HaveLen(1))
			Expect(latest[0].SupplierID).To(Equal("s1"))
			Expect(latest[0].Value).To(Equal(21.5))
			Expect(latest[0].Timestamp).To(BeTemporally("==", m.Timestamp))
		})

		It("should return entries newest first, up to count", func() {
			for i := range 5 {
				Expect(database.Record(ctx, measurementAt("s1", float64(i), i))).To(Succeed())
			}

			latest, err := database.Latest(ctx, "s1", 3)

			Expect(err).NotTo(HaveOccurred())
			Expect(latest).To(HaveLen(3))
			Expect(latest[0].Value).To(Equal(4.0))
			Expect(latest[2].Value).To(Equal(2.0))
		})

		It("should follow insertion order rather than timestamps", func() {
			Expect(database.Record(ctx, measurementAt("s1", "late", 10))).To(Succeed())
			Expect(database.Record(ctx, measurementAt("s1", "early", 0))).To(Succeed())

			latest, err := database.Latest(ctx, "s1", 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(latest[0].Value).To(Equal("early"))
		})

		It("should keep structured values", func() {
			value := map[string]any{"celsius": 20.5, "ok": true}
			Expect(database.Record(ctx, measurementAt("s1", value, 0))).To(Succeed())

			latest, err := database.Latest(ctx, "s1", 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(latest[0].Value).To(Equal(value))
		})

		It("should keep suppliers apart", func() {
			Expect(database.Record(ctx, measurementAt("s1", 1.0, 0))).To(Succeed())
			Expect(database.Record(ctx, measurementAt("s2", 2.0, 1))).To(Succeed())

			latest, err := database.Latest(ctx, "s2", 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(latest).To(HaveLen(1))
			Expect(latest[0].SupplierID).To(Equal("s2"))
		})

		It("should return an empty result for unknown suppliers", func() {
			latest, err := database.Latest(ctx, "ghost", 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(latest).NotTo(BeNil())
			Expect(latest).To(BeEmpty())
		})

		It("should reject counts below one", func() {
			_, err := database.Latest(ctx, "s1", 0)
			Expect(err).To(MatchError(domain.ErrInvalidArgument))
		})
	})

	Context("Record", func() {
		It("should reject values that cannot be encoded", func() {
			err := database.Record(ctx, measurementAt("s1", make(chan int), 0))
			Expect(err).To(HaveOccurred())
		})

		It("should surface storage failures", func() {
			Expect(orm.Close()).To(Succeed())

			err := database.Record(ctx, measurementAt("s1", 1.0, 0))
			Expect(err).To(MatchError(ContainSubstring("recording measurement of s1")))
		})

		It("should be safe under concurrent appends", func() {
			var wg sync.WaitGroup
			for worker := range 4 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					for i := range 20 {
						Expect(database.Record(ctx, measurementAt(fmt.Sprintf("s%d", worker%2), float64(i), i))).To(Succeed())
					}
				}()
			}
			wg.Wait()

			latest, err := database.Latest(ctx, "s0", 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(latest).To(HaveLen(40))
		})

		When("a retention cap is configured", func() {
			BeforeEach(func() {
				orm.Close()
				openDatabase(config.DatabaseConfig{MaxEntriesPerMeasurement: 3}, nil)
			})

			It("should drop the oldest entries of that supplier only", func() {
				for i := range 5 {
					Expect(database.Record(ctx, measurementAt("s1", float64(i), i))).To(Succeed())
				}
				Expect(database.Record(ctx, measurementAt("s2", 9.0, 0))).To(Succeed())

				latest, err := database.Latest(ctx, "s1", 10)
				Expect(err).NotTo(HaveOccurred())
				Expect(latest).To(HaveLen(3))
				Expect(latest[0].Value).To(Equal(4.0))
				Expect(latest[2].Value).To(Equal(2.0))

				other, err := database.Latest(ctx, "s2", 10)
				Expect(err).NotTo(HaveOccurred())
				Expect(other).To(HaveLen(1))
			})
		})

		When("a broker is attached", func() {
			var broker *async.LocalBroker

			BeforeEach(func() {
				broker = async.NewLocalBroker()
				orm.Close()
				openDatabase(config.DatabaseConfig{}, broker)
			})

			AfterEach(func() {
				broker.Stop()
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
		})
	})
})
