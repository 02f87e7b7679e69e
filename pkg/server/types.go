package server

import (
	"github.com/easytier/easytier-service/pkg/install"
	"github.com/easytier/easytier-service/pkg/release"
	"github.com/easytier/easytier-service/pkg/toolset"
)

// Response is the envelope of every api response
type Response struct {
	Code int         `json:"code"`
	Data interface{} `json:"data"`
	Msg  string      `json:"msg,omitempty"`
}

type Info struct {
	// Version is the version of the service itself
	Version string        `json:"version"`
	OS      string        `json:"os"`
	Arch    string        `json:"arch"`
	State   toolset.State `json:"state"`
	List    []Instance    `json:"list"`
}

// Instance is an installation of the toolset
type Instance struct {
	InstanceID   *string         `json:"instanceId"`
	InstanceName *string         `json:"instanceName"`
	Running      bool            `json:"running"`
	Version      install.Version `json:"version"`
}

type Check struct {
	// Release is the pending release or nil if nothing needs to be installed
	Release *release.Release `json:"release"`
}

type Repair struct {
	Version install.Version `json:"version"`
}
