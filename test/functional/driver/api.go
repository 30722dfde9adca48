package driver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

type APIDriver struct {
	baseURL string
	client  *http.Client
}

func NewAPIDriver(baseURL string) *APIDriver {
	return &APIDriver{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

func (d *APIDriver) GetVersion() (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/api/version", d.baseURL))
}

func (d *APIDriver) GetCurrentMeasurement(supplierID string) (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/api/measurement/%s/current", d.baseURL, supplierID))
}

func (d *APIDriver) GetLatestMeasurements(recorderID string) (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/api/recorder/%s/measurements/latest", d.baseURL, recorderID))
}

func (d *APIDriver) GetLatestMeasurementsWithCount(recorderID, count string) (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/api/recorder/%s/measurements/latest/%s", d.baseURL, recorderID, count))
}

func (d *APIDriver) RecordOneMeasurement(recorderID string) (*http.Response, error) {
	return d.client.Post(fmt.Sprintf("%s/api/recorder/%s/recordOneMeasurement", d.baseURL, recorderID), "application/json", nil)
}

func (d *APIDriver) StartRecording(recorderID string) (*http.Response, error) {
	return d.client.Post(fmt.Sprintf("%s/api/recorder/%s/startRecording", d.baseURL, recorderID), "application/json", nil)
}

func (d *APIDriver) StopRecording(recorderID string) (*http.Response, error) {
	return d.client.Post(fmt.Sprintf("%s/api/recorder/%s/stopRecording", d.baseURL, recorderID), "application/json", nil)
}

func (d *APIDriver) GetHealthz() (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/healthz", d.baseURL))
}

func (d *APIDriver) StreamMeasurements(supplierID string) (*websocket.Conn, error) {
	url := "ws" + strings.TrimPrefix(d.baseURL, "http") + "/ws/measurements/" + supplierID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}
	return conn, nil
}
