package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"measurements-server/cmd/config"
	"measurements-server/internal/infra/async"
	"measurements-server/internal/infra/httpserver"
	"measurements-server/internal/recording/httpapi"
	"measurements-server/internal/recording/persistence"
	"measurements-server/internal/recording/usecases"
	mockdomain "measurements-server/test/unit/doubles/recording/domain"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type measurementBody struct {
	SupplierID string  `json:"supplierId"`
	Value      float64 `json:"value"`
	Timestamp  string  `json:"timestamp"`
}

type apiFixture struct {
	server     *httptest.Server
	broker     *async.LocalBroker
	database   *persistence.MemoryMeasurementsDatabase
	supervisor *usecases.RecorderSupervisor
}

func newAPIFixture(sensor *mockdomain.MockSensor) *apiFixture {
	broker := async.NewLocalBroker()
	database := persistence.NewMemoryMeasurementsDatabase(config.DatabaseConfig{}, broker)

	supplier, err := usecases.NewMeasurementSupplier("s1", sensor, "celsius")
	Expect(err).NotTo(HaveOccurred())
	suppliers, err := usecases.NewMeasurementSupplierCollection(supplier)
	Expect(err).NotTo(HaveOccurred())

	recorders, err := usecases.SetUpRecorders(config.RecordersConfig{
		{ID: "r1", MeasurementID: "s1", Mode: "manual"},
		{ID: "r2", MeasurementID: "s1", Mode: "periodic", Config: map[string]any{"interval": "100ms"}},
	}, suppliers, database, usecases.NewRecorderFactory(usecases.NewPeriodicRecorderFactory()))
	Expect(err).NotTo(HaveOccurred())

	handler := httpserver.NewServer(config.HTTPConfig{},
		httpapi.NewRecordingController(usecases.NewGetVersion("1.4.0"), suppliers, recorders),
		httpapi.NewMeasurementStreamController(broker, suppliers),
	).Handler()

	return &apiFixture{
		server:     httptest.NewServer(handler),
		broker:     broker,
		database:   database,
		supervisor: usecases.NewRecorderSupervisor(recorders),
	}
}

func (f *apiFixture) Close() {
	f.supervisor.Shutdown()
	f.server.Close()
	f.broker.Stop()
}

func (f *apiFixture) do(method, path string) (int, []byte) {
	req, err := http.NewRequest(method, f.server.URL+path, nil)
	Expect(err).NotTo(HaveOccurred())

	resp, err := f.server.Client().Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp.StatusCode, body
}

var _ = Describe("RecordingController", func() {
	var fixture *apiFixture
	var readErr error

	BeforeEach(func() {
		readErr = nil
		ctrl := gomock.NewController(GinkgoT())
		sensor := mockdomain.NewMockSensor(ctrl)
		sensor.EXPECT().ID().Return("temp1").AnyTimes()
		sensor.EXPECT().ValueKeys().Return([]string{"celsius"}).AnyTimes()
		sensor.EXPECT().Read(gomock.Any(), "celsius").DoAndReturn(func(context.Context, string) (any, error) {
			if readErr != nil {
				return nil, readErr
			}
			return 21.5, nil
		}).AnyTimes()

		fixture = newAPIFixture(sensor)
	})

	AfterEach(func() {
		fixture.Close()
	})

	It("should report the version", func() {
		status, body := fixture.do(http.MethodGet, "/api/version")

		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"version":"1.4.0"}`))
	})

	Context("current measurement", func() {
		It("should read the supplier without recording", func() {
			status, body := fixture.do(http.MethodGet, "/api/measurement/s1/current")

			Expect(status).To(Equal(http.StatusOK))
			var measurement measurementBody
			Expect(json.Unmarshal(body, &measurement)).To(Succeed())
			Expect(measurement.SupplierID).To(Equal("s1"))
			Expect(measurement.Value).To(Equal(21.5))
			Expect(measurement.Timestamp).NotTo(BeEmpty())
			Expect(storedMeasurements(fixture.database, "s1")).To(BeZero())
		})

		It("should answer 500 when the sensor fails", func() {
			readErr = errors.New("sensor unplugged")

			status, body := fixture.do(http.MethodGet, "/api/measurement/s1/current")

			Expect(status).To(Equal(http.StatusInternalServerError))
			Expect(string(body)).To(ContainSubstring("sensor unplugged"))
		})

		It("should answer 404 for unknown suppliers", func() {
			status, _ := fixture.do(http.MethodGet, "/api/measurement/s9/current")

			Expect(status).To(Equal(http.StatusNotFound))
		})
	})

	Context("manual recorder", func() {
		It("should return the recorded measurement from latest", func() {
			status, body := fixture.do(http.MethodPost, "/api/recorder/r1/recordOneMeasurement")
			Expect(status).To(Equal(http.StatusOK))
			var recorded measurementBody
			Expect(json.Unmarshal(body, &recorded)).To(Succeed())
			Expect(recorded.SupplierID).To(Equal("s1"))
			Expect(recorded.Value).To(Equal(21.5))

			status, body = fixture.do(http.MethodGet, "/api/recorder/r1/measurements/latest")
			Expect(status).To(Equal(http.StatusOK))
			var latest []measurementBody
			Expect(json.Unmarshal(body, &latest)).To(Succeed())
			Expect(latest).To(Equal([]measurementBody{recorded}))
		})

		It("should not record when the sensor fails", func() {
			readErr = errors.New("sensor unplugged")

			status, _ := fixture.do(http.MethodPost, "/api/recorder/r1/recordOneMeasurement")

			Expect(status).To(Equal(http.StatusInternalServerError))
			Expect(storedMeasurements(fixture.database, "s1")).To(BeZero())
		})

		It("should not expose periodic operations", func() {
			status, _ := fixture.do(http.MethodPost, "/api/recorder/r1/startRecording")

			Expect(status).To(Equal(http.StatusNotFound))
		})
	})

	Context("latest measurements", func() {
		BeforeEach(func() {
			for range 3 {
				status, _ := fixture.do(http.MethodPost, "/api/recorder/r1/recordOneMeasurement")
				Expect(status).To(Equal(http.StatusOK))
			}
		})

		DescribeTable("count segment",
			func(path string, status, length int) {
				gotStatus, body := fixture.do(http.MethodGet, path)

				Expect(gotStatus).To(Equal(status))
				if status == http.StatusOK {
					var latest []measurementBody
					Expect(json.Unmarshal(body, &latest)).To(Succeed())
					Expect(latest).To(HaveLen(length))
				}
			},
			Entry("defaults to one", "/api/recorder/r1/measurements/latest", http.StatusOK, 1),
			Entry("explicit count", "/api/recorder/r1/measurements/latest/2", http.StatusOK, 2),
			Entry("more than recorded", "/api/recorder/r1/measurements/latest/50", http.StatusOK, 3),
			Entry("zero", "/api/recorder/r1/measurements/latest/0", http.StatusBadRequest, 0),
			Entry("negative", "/api/recorder/r1/measurements/latest/-1", http.StatusBadRequest, 0),
			Entry("not a number", "/api/recorder/r1/measurements/latest/many", http.StatusBadRequest, 0),
		)

		It("should share the supplier log across recorders", func() {
			status, body := fixture.do(http.MethodGet, "/api/recorder/r2/measurements/latest/10")

			Expect(status).To(Equal(http.StatusOK))
			var latest []measurementBody
			Expect(json.Unmarshal(body, &latest)).To(Succeed())
			Expect(latest).To(HaveLen(3))
			Expect(latest[0].Timestamp >= latest[2].Timestamp).To(BeTrue())
		})
	})

	Context("periodic recorder", func() {
		It("should record while started and stop growing once stopped", func() {
			status, _ := fixture.do(http.MethodPost, "/api/recorder/r2/startRecording")
			Expect(status).To(Equal(http.StatusNoContent))

			time.Sleep(350 * time.Millisecond)
			Expect(storedMeasurements(fixture.database, "s1")).To(BeNumerically(">=", 3))

			status, _ = fixture.do(http.MethodPost, "/api/recorder/r2/stopRecording")
			Expect(status).To(Equal(http.StatusNoContent))
			// a capture in flight at stop time may still land
			time.Sleep(20 * time.Millisecond)
			stopped := storedMeasurements(fixture.database, "s1")

			time.Sleep(300 * time.Millisecond)
			Expect(storedMeasurements(fixture.database, "s1")).To(Equal(stopped))
		})

		It("should accept repeated start and stop", func() {
			for _, op := range []string{"startRecording", "startRecording", "stopRecording", "stopRecording"} {
				status, _ := fixture.do(http.MethodPost, "/api/recorder/r2/"+op)
				Expect(status).To(Equal(http.StatusNoContent))
			}
		})

		It("should not expose manual triggering", func() {
			status, _ := fixture.do(http.MethodPost, "/api/recorder/r2/recordOneMeasurement")

			Expect(status).To(Equal(http.StatusNotFound))
		})
	})

	Context("unknown recorders", func() {
		DescribeTable("any route",
			func(method, path string) {
				status, body := fixture.do(method, path)

				Expect(status).To(Equal(http.StatusNotFound))
				var errBody httpserver.ErrorResponse
				Expect(json.Unmarshal(body, &errBody)).To(Succeed())
				Expect(strings.ToLower(errBody.Message)).To(ContainSubstring("not found"))
			},
			Entry("latest", http.MethodGet, "/api/recorder/r9/measurements/latest"),
			Entry("latest with count", http.MethodGet, "/api/recorder/r9/measurements/latest/3"),
			Entry("manual trigger", http.MethodPost, "/api/recorder/r9/recordOneMeasurement"),
			Entry("start", http.MethodPost, "/api/recorder/r9/startRecording"),
			Entry("stop", http.MethodPost, "/api/recorder/r9/stopRecording"),
		)
	})
})
