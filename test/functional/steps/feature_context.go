package steps

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"measurements-server/test/functional/driver"

	"github.com/cucumber/godog"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type MeasurementResponse struct {
	SupplierID string  `json:"supplierId"`
	Value      float64 `json:"value"`
	Timestamp  string  `json:"timestamp"`
}

type StreamMessage struct {
	Type        string              `json:"type"`
	Measurement MeasurementResponse `json:"measurement"`
}

type FeatureContext struct {
	externalURL string
	local       *localServer
	apiDriver   *driver.APIDriver
	response    *http.Response
	body        []byte
	recorded    *MeasurementResponse
	entryCount  int
	wsConn      *websocket.Conn
	require     *require.Assertions
	t           godog.TestingT
}

// NewFeatureContext runs scenarios against externalURL when set, otherwise
// against an in-process server wired from configuration.
func NewFeatureContext(externalURL string) *FeatureContext {
	return &FeatureContext{
		externalURL: externalURL,
	}
}

func (fc *FeatureContext) RegisterSteps(ctx *godog.ScenarioContext) {
	// Generic steps
	ctx.Step(`^wait for (.*)$`, fc.waitForDuration)
	ctx.Then(`^the response status code should be (\d+)$`, fc.theResponseStatusCodeShouldBe)
	ctx.Then(`^the response should be a not found error$`, fc.theResponseShouldBeANotFoundError)
	ctx.When(`^I call the healthz endpoint$`, fc.iCallTheHealthzEndpoint)

	// Recording steps
	ctx.When(`^I request the version$`, fc.iRequestTheVersion)
	ctx.Then(`^the response should contain a version$`, fc.theResponseShouldContainAVersion)
	ctx.When(`^I request the current measurement of "([^"]*)"$`, fc.iRequestTheCurrentMeasurementOf)
	ctx.Then(`^the measurement should belong to "([^"]*)" with a value between (\d+) and (\d+)$`, fc.theMeasurementShouldBelongToWithAValueBetween)
	ctx.When(`^I record one measurement with recorder "([^"]*)"$`, fc.iRecordOneMeasurementWithRecorder)
	ctx.When(`^I request the latest measurements of recorder "([^"]*)"$`, fc.iRequestTheLatestMeasurementsOfRecorder)
	ctx.When(`^I request the latest "([^"]*)" measurements of recorder "([^"]*)"$`, fc.iRequestTheLatestCountMeasurementsOfRecorder)
	ctx.Then(`^the latest measurements should only contain the recorded measurement$`, fc.theLatestMeasurementsShouldOnlyContainTheRecordedMeasurement)
	ctx.Then(`^the latest measurements should contain (\d+) entries newest first$`, fc.theLatestMeasurementsShouldContainEntriesNewestFirst)
	ctx.When(`^I start recording with recorder "([^"]*)"$`, fc.iStartRecordingWithRecorder)
	ctx.When(`^I stop recording with recorder "([^"]*)"$`, fc.iStopRecordingWithRecorder)
	ctx.Then(`^recorder "([^"]*)" should hold at least (\d+) measurements$`, fc.recorderShouldHoldAtLeastMeasurements)
	ctx.When(`^I remember the number of measurements of recorder "([^"]*)"$`, fc.iRememberTheNumberOfMeasurementsOfRecorder)
	ctx.Then(`^recorder "([^"]*)" should hold the remembered number of measurements$`, fc.recorderShouldHoldTheRememberedNumberOfMeasurements)

	// Stream steps
	ctx.When(`^I open the measurement stream of "([^"]*)"$`, fc.iOpenTheMeasurementStreamOf)
	ctx.Then(`^the stream should deliver the recorded measurement$`, fc.theStreamShouldDeliverTheRecordedMeasurement)

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		fc.t = godog.T(ctx)
		fc.require = require.New(fc.t)

		return ctx, fc.reset()
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		fc.cleanup()
		return ctx, err
	})
}

func (fc *FeatureContext) reset() error {
	fc.response = nil
	fc.body = nil
	fc.recorded = nil
	fc.entryCount = 0

	if fc.externalURL != "" {
		fc.apiDriver = driver.NewAPIDriver(fc.externalURL)
		return nil
	}

	local, err := startLocalServer()
	if err != nil {
		return err
	}
	fc.local = local
	fc.apiDriver = driver.NewAPIDriver(local.server.URL)
	return nil
}

func (fc *FeatureContext) cleanup() {
	if fc.wsConn != nil {
		fc.wsConn.Close()
		fc.wsConn = nil
	}
	if fc.local != nil {
		fc.local.stop()
		fc.local = nil
	}
}

// keep reads and closes the response so later steps can decode it.
func (fc *FeatureContext) keep(resp *http.Response, err error) error {
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fc.response = resp
	fc.body = body
	return nil
}

func (fc *FeatureContext) decodeBody(target any) error {
	return json.Unmarshal(fc.body, target)
}
