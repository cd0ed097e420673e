// Package kinds registers the built-in step kinds. Importing it (usually
// blank, from a main package) makes their ordering defaults available to
// every resolved manifest.
package kinds

import "github.com/flemzord/lineup/internal/registry"

func init() {
	registry.Register(registry.Kind{
		Name:        "setup",
		Group:       registry.GroupEarly,
		Description: "Environment preparation before any other step",
	})
	registry.Register(registry.Kind{
		Name:        "report",
		Group:       registry.GroupLate,
		Description: "Result reporting after the main pipeline body",
	})
	registry.Register(registry.Kind{
		Name:        "cleanup",
		Group:       registry.GroupLate,
		After:       []string{"report"},
		Description: "Resource teardown, last in its tier",
	})
}
