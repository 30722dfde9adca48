package steps

import (
	"strings"
	"time"
)

func (fc *FeatureContext) waitForDuration(duration string) error {
	d, err := time.ParseDuration(strings.TrimSpace(duration))
	if err != nil {
		return err
	}

	time.Sleep(d)
	return nil
}

func (fc *FeatureContext) theResponseStatusCodeShouldBe(code int) error {
	fc.require.Equal(code, fc.response.StatusCode, "Unexpected status code")
	return nil
}

func (fc *FeatureContext) theResponseShouldBeANotFoundError() error {
	fc.require.Equal(404, fc.response.StatusCode)

	var data map[string]any
	fc.require.NoError(fc.decodeBody(&data))
	message, ok := data["message"].(string)
	fc.require.True(ok, "message should be a string")
	fc.require.Contains(message, "not found")
	return nil
}

func (fc *FeatureContext) iCallTheHealthzEndpoint() error {
	return fc.keep(fc.apiDriver.GetHealthz())
}
