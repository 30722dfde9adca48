package usecases_test

import (
	"time"

	"measurements-server/cmd/config"
	"measurements-server/internal/recording/domain"
	"measurements-server/internal/recording/persistence"
	"measurements-server/internal/recording/sensors"
	"measurements-server/internal/recording/usecases"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RecorderFactory", func() {
	var factory *usecases.RecorderFactory
	var supplier *usecases.MeasurementSupplier
	var database *persistence.MemoryMeasurementsDatabase

	BeforeEach(func() {
		factory = usecases.NewRecorderFactory(usecases.NewPeriodicRecorderFactory())
		database = persistence.NewMemoryMeasurementsDatabase(config.DatabaseConfig{}, nil)

		var err error
		supplier, err = usecases.NewMeasurementSupplier("s1", newCountingSensor("temp1", "celsius"), "celsius")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should create manual recorders", func() {
		recorder, err := factory.Create(config.RecorderConfig{ID: "r1", Mode: "manual"}, supplier, database)

		Expect(err).NotTo(HaveOccurred())
		Expect(recorder).To(BeAssignableToTypeOf(&usecases.ManualRecorder{}))
		Expect(recorder).NotTo(BeAssignableToTypeOf(&usecases.PeriodicRecorder{}))
		_, periodic := recorder.(usecases.PeriodicRecording)
		Expect(periodic).To(BeFalse())
	})

	It("should create periodic recorders from an interval", func() {
		recorder, err := factory.Create(config.RecorderConfig{
			ID:     "r2",
			Mode:   "periodic",
			Config: map[string]any{"interval": "100ms", "autostart": true},
		}, supplier, database)

		Expect(err).NotTo(HaveOccurred())
		periodic, ok := recorder.(*usecases.PeriodicRecorder)
		Expect(ok).To(BeTrue())
		Expect(periodic.Autostart()).To(BeTrue())
		Expect(periodic.IsRecording()).To(BeFalse())
		_, manual := recorder.(usecases.ManualRecording)
		Expect(manual).To(BeFalse())
	})

	It("should create periodic recorders from a cron schedule", func() {
		recorder, err := factory.Create(config.RecorderConfig{
			ID:     "r3",
			Mode:   "periodic",
			Config: map[string]any{"schedule": "*/5 * * * * *"},
		}, supplier, database)

		Expect(err).NotTo(HaveOccurred())
		Expect(recorder.Mode()).To(Equal(usecases.RecorderModePeriodic))
	})

	It("should accept cron descriptors", func() {
		_, err := factory.Create(config.RecorderConfig{
			ID:     "r4",
			Mode:   "periodic",
			Config: map[string]any{"schedule": "@every 2s"},
		}, supplier, database)

		Expect(err).NotTo(HaveOccurred())
	})

	DescribeTable("invalid periodic parameters",
		func(params map[string]any) {
			_, err := factory.Create(config.RecorderConfig{ID: "r5", Mode: "periodic", Config: params}, supplier, database)

			Expect(err).To(MatchError(domain.ErrInvalidConfig))
		},
		Entry("no parameters", nil),
		Entry("negative interval", map[string]any{"interval": -time.Second}),
		Entry("bare number interval", map[string]any{"interval": 100}),
		Entry("sub-millisecond interval", map[string]any{"interval": "500us"}),
		Entry("interval and schedule", map[string]any{"interval": "1s", "schedule": "@hourly"}),
		Entry("malformed cron", map[string]any{"schedule": "every tuesday"}),
		Entry("malformed interval", map[string]any{"interval": "soon"}),
		Entry("unknown parameter", map[string]any{"interval": "1s", "jitter": "5ms"}),
	)

	It("should reject unknown modes", func() {
		_, err := factory.Create(config.RecorderConfig{ID: "r6", Mode: "continuous"}, supplier, database)

		Expect(err).To(MatchError(domain.ErrUnknownMode))
	})
})

var _ = Describe("SetUpRecorders", func() {
	var suppliers *usecases.MeasurementSupplierCollection
	var factory *usecases.RecorderFactory
	var database *persistence.MemoryMeasurementsDatabase

	BeforeEach(func() {
		sensorCollection, err := sensors.NewSensorCollection(newCountingSensor("temp1", "celsius"))
		Expect(err).NotTo(HaveOccurred())
		suppliers, err = usecases.SetUpMeasurementSuppliers(config.MeasurementsConfig{
			{ID: "s1", SensorID: "temp1", SensorKey: "celsius"},
		}, sensorCollection)
		Expect(err).NotTo(HaveOccurred())
		factory = usecases.NewRecorderFactory(usecases.NewPeriodicRecorderFactory())
		database = persistence.NewMemoryMeasurementsDatabase(config.DatabaseConfig{}, nil)
	})

	It("should allow several recorders on the same supplier", func() {
		recorders, err := usecases.SetUpRecorders(config.RecordersConfig{
			{ID: "r1", MeasurementID: "s1", Mode: "manual"},
			{ID: "r2", MeasurementID: "s1", Mode: "periodic", Config: map[string]any{"interval": "1s"}},
		}, suppliers, database, factory)

		Expect(err).NotTo(HaveOccurred())
		Expect(recorders.All()).To(HaveLen(2))
		Expect(recorders.Periodic()).To(HaveLen(1))
		Expect(recorders.Periodic()[0].ID()).To(Equal("r2"))

		recorder, err := recorders.FindByID("r1")
		Expect(err).NotTo(HaveOccurred())
		Expect(recorder.Database()).To(BeIdenticalTo(database))
	})

	It("should fail on an unknown measurement", func() {
		_, err := usecases.SetUpRecorders(config.RecordersConfig{
			{ID: "r1", MeasurementID: "s9", Mode: "manual"},
		}, suppliers, database, factory)

		Expect(err).To(MatchError(domain.ErrNotFound))
	})

	It("should fail on duplicated recorder ids", func() {
		_, err := usecases.SetUpRecorders(config.RecordersConfig{
			{ID: "r1", MeasurementID: "s1", Mode: "manual"},
			{ID: "r1", MeasurementID: "s1", Mode: "manual"},
		}, suppliers, database, factory)

		Expect(err).To(MatchError(domain.ErrInvalidConfig))
	})

	DescribeTable("recorder ids that cannot be routed",
		func(id string) {
			_, err := usecases.SetUpRecorders(config.RecordersConfig{
				{ID: id, MeasurementID: "s1", Mode: "manual"},
			}, suppliers, database, factory)

			Expect(err).To(MatchError(domain.ErrInvalidConfig))
		},
		Entry("empty", ""),
		Entry("wildcard", "{r}"),
		Entry("catch-all", "{rest...}"),
		Entry("slash", "r1/start"),
		Entry("dot-dot", ".."),
		Entry("blank", "r 1"),
		Entry("query", "r1?x"),
	)

	It("should report unknown recorder ids as not found", func() {
		recorders, err := usecases.NewRecorderCollection()
		Expect(err).NotTo(HaveOccurred())

		_, err = recorders.FindByID("r9")

		Expect(err).To(MatchError(domain.ErrNotFound))
	})
})
