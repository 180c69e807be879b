package bootstrap

import (
	"fmt"
	"sort"
	"time"

	"github.com/maltyxx/zenject/di"
	"github.com/maltyxx/zenject/injector"
	"github.com/maltyxx/zenject/plugin"
)

// Summary tracks and displays the runtime startup process.
type Summary struct {
	appName         string
	version         string
	environment     string
	startupDuration time.Duration
	tracingEnabled  bool
}

// NewSummary creates a new startup summary tracker.
func NewSummary(appName, version, environment string) *Summary {
	return &Summary{
		appName:     appName,
		version:     version,
		environment: environment,
	}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// SetTracingEnabled records whether trace export is active.
func (s *Summary) SetTracingEnabled(enabled bool) {
	s.tracingEnabled = enabled
}

// Display prints the startup summary: loaded modules, registered
// providers grouped by mode, and plugin status.
func (s *Summary) Display(loader *injector.Loader, plugins *plugin.Registry, container di.Container) {
	fmt.Printf("\n")
	fmt.Printf("🚀 %s v%s (%s) started in %.2fs\n\n",
		s.appName, s.version, s.environment, s.startupDuration.Seconds())

	if loader != nil {
		modules := loader.LoadedModules()
		if len(modules) > 0 {
			fmt.Printf("📦 Modules (%d)\n", len(modules))
			for i, name := range modules {
				prefix := "├──"
				if i == len(modules)-1 {
					prefix = "└──"
				}
				fmt.Printf("   %s ✅ %s\n", prefix, name)
			}
			fmt.Printf("\n")
		} else {
			fmt.Printf("📦 Modules\n   └── No modules loaded\n\n")
		}
	}

	if container != nil {
		byMode := map[di.Mode]int{}
		resolved := 0
		infos := container.Registrations()
		for _, info := range infos {
			byMode[info.Mode]++
			if info.Resolved {
				resolved++
			}
		}
		if len(infos) > 0 {
			fmt.Printf("🧩 Providers (%d, %d resolved)\n", len(infos), resolved)
			modes := make([]di.Mode, 0, len(byMode))
			for mode := range byMode {
				modes = append(modes, mode)
			}
			sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
			for i, mode := range modes {
				prefix := "├──"
				if i == len(modes)-1 {
					prefix = "└──"
				}
				fmt.Printf("   %s %s: %d\n", prefix, mode, byMode[mode])
			}
			fmt.Printf("\n")
		}
	}

	if plugins != nil {
		registered := plugins.RegisteredPlugins()
		if len(registered) > 0 {
			fmt.Printf("🔌 Plugins (%d)\n", len(registered))
			for i, name := range registered {
				prefix := "├──"
				if i == len(registered)-1 {
					prefix = "└──"
				}
				icon := "⏸️"
				if plugins.IsLoaded(name) {
					icon = "✅"
				}
				fmt.Printf("   %s %s %s\n", prefix, icon, name)
			}
			fmt.Printf("\n")
		}
	}

	if s.tracingEnabled {
		fmt.Printf("📡 Tracing enabled\n\n")
	}
}
