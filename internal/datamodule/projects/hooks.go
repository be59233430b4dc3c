package projects

import "github.com/dashcache/dashcache/internal/proxy/hooks"

func init() {
	hooks.MustRegister("projects", hooks.Hooks{
		NormalizeQuery: hooks.DropParams("_", "ts"),
	})
}
