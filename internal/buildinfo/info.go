package buildinfo

import "github.com/darmiel/customtoken/internal/config"

// set via -ldflags at build time
var (
	Version    = "v0.1.0"
	CommitHash = "unknown"
)

type Info struct {
	About      string `json:"about,omitempty"`
	Service    string `json:"service,omitempty"`
	Version    string `json:"version,omitempty"`
	CommitHash string `json:"commit_hash,omitempty"`
	Env        string `json:"env,omitempty"`
	Branch     string `json:"branch,omitempty"`
}

func GetBuildInfo() Info {
	return Info{
		About:      "https://github.com/darmiel/customtoken",
		Service:    "customtoken",
		Version:    Version,
		CommitHash: CommitHash,
	}
}

// ForDeployment adds the deployment attributes. A deployment commit overrides the
// linked commit hash, since hosted builds do not pass -ldflags.
func ForDeployment(d config.Deployment) Info {
	info := GetBuildInfo()
	info.Env = d.Env
	info.Branch = d.Branch
	if d.Commit != "" {
		info.CommitHash = d.Commit
	}
	return info
}
