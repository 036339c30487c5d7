// Package scripts holds the behavior scripts shipped with the engine. They are
// registered in bridge.DefaultScripts when the package is imported.
package scripts

import (
	"github.com/plus3/scriptbridge/bridge"
)

func init() {
	RegisterAll(bridge.DefaultScripts)
}

// RegisterAll adds every script of this package to r.
func RegisterAll(r *bridge.ScriptRegistry) {
	r.Register("CameraScript", func() bridge.Script { return NewCameraScript() })
	r.Register("CarScript", func() bridge.Script { return NewCarScript() })
	r.Register("TestBehavior", func() bridge.Script { return &TestBehavior{} })
	r.Register("Spinner", func() bridge.Script { return NewSpinner() })
}
