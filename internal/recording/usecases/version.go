package usecases

type VersionInfo struct {
	Version string `json:"version"`
}

// GetVersion supplies the running build version.
type GetVersion struct {
	version string
}

func NewGetVersion(version string) *GetVersion {
	return &GetVersion{version: version}
}

func (g *GetVersion) Get() VersionInfo {
	return VersionInfo{Version: g.version}
}
