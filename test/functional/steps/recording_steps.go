package steps

import (
	"strconv"
)

func (fc *FeatureContext) iRequestTheVersion() error {
	return fc.keep(fc.apiDriver.GetVersion())
}

func (fc *FeatureContext) theResponseShouldContainAVersion() error {
	var data map[string]any
	fc.require.NoError(fc.decodeBody(&data))
	version, ok := data["version"].(string)
	fc.require.True(ok, "version should be a string")
	fc.require.NotEmpty(version)
	return nil
}

func (fc *FeatureContext) iRequestTheCurrentMeasurementOf(supplierID string) error {
	return fc.keep(fc.apiDriver.GetCurrentMeasurement(supplierID))
}

func (fc *FeatureContext) theMeasurementShouldBelongToWithAValueBetween(supplierID string, min, max int) error {
	var measurement MeasurementResponse
	fc.require.NoError(fc.decodeBody(&measurement))
	fc.require.Equal(supplierID, measurement.SupplierID)
	fc.require.GreaterOrEqual(measurement.Value, float64(min))
	fc.require.LessOrEqual(measurement.Value, float64(max))
	fc.require.NotEmpty(measurement.Timestamp)
	return nil
}

func (fc *FeatureContext) iRecordOneMeasurementWithRecorder(recorderID string) error {
	if err := fc.keep(fc.apiDriver.RecordOneMeasurement(recorderID)); err != nil {
		return err
	}
	if fc.response.StatusCode != 200 {
		return nil
	}

	var measurement MeasurementResponse
	fc.require.NoError(fc.decodeBody(&measurement))
	fc.recorded = &measurement
	return nil
}

func (fc *FeatureContext) iRequestTheLatestMeasurementsOfRecorder(recorderID string) error {
	return fc.keep(fc.apiDriver.GetLatestMeasurements(recorderID))
}

func (fc *FeatureContext) iRequestTheLatestCountMeasurementsOfRecorder(count, recorderID string) error {
	return fc.keep(fc.apiDriver.GetLatestMeasurementsWithCount(recorderID, count))
}

func (fc *FeatureContext) theLatestMeasurementsShouldOnlyContainTheRecordedMeasurement() error {
	fc.require.NotNil(fc.recorded, "no measurement was recorded")

	var latest []MeasurementResponse
	fc.require.NoError(fc.decodeBody(&latest))
	fc.require.Equal([]MeasurementResponse{*fc.recorded}, latest)
	return nil
}

func (fc *FeatureContext) theLatestMeasurementsShouldContainEntriesNewestFirst(entries int) error {
	var latest []MeasurementResponse
	fc.require.NoError(fc.decodeBody(&latest))
	fc.require.Len(latest, entries)

	for i := 1; i < len(latest); i++ {
		fc.require.GreaterOrEqual(latest[i-1].Timestamp, latest[i].Timestamp)
	}
	return nil
}

func (fc *FeatureContext) iStartRecordingWithRecorder(recorderID string) error {
	return fc.keep(fc.apiDriver.StartRecording(recorderID))
}

func (fc *FeatureContext) iStopRecordingWithRecorder(recorderID string) error {
	return fc.keep(fc.apiDriver.StopRecording(recorderID))
}

// countMeasurements asks for far more entries than a scenario produces.
func (fc *FeatureContext) countMeasurements(recorderID string) int {
	resp, err := fc.apiDriver.GetLatestMeasurementsWithCount(recorderID, strconv.Itoa(100000))
	fc.require.NoError(fc.keep(resp, err))
	fc.require.Equal(200, fc.response.StatusCode)

	var latest []MeasurementResponse
	fc.require.NoError(fc.decodeBody(&latest))
	return len(latest)
}

func (fc *FeatureContext) recorderShouldHoldAtLeastMeasurements(recorderID string, minimum int) error {
	fc.require.GreaterOrEqual(fc.countMeasurements(recorderID), minimum)
	return nil
}

func (fc *FeatureContext) iRememberTheNumberOfMeasurementsOfRecorder(recorderID string) error {
	fc.entryCount = fc.countMeasurements(recorderID)
	return nil
}

func (fc *FeatureContext) recorderShouldHoldTheRememberedNumberOfMeasurements(recorderID string) error {
	fc.require.Equal(fc.entryCount, fc.countMeasurements(recorderID))
	return nil
}
