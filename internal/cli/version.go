package cli

import (
	"context"
	"fmt"

	"github.com/zmkbuild/zmkbuild/internal"
)

// Represents the 'zmkbuild version' command.
type VersionCmd struct {
	Short bool `short:"s" help:"Print only the release version."`
}

// Executes the version command.
func (c *VersionCmd) Run(ctx context.Context) error {
	if c.Short {
		fmt.Println(internal.Version())
		return nil
	}
	fmt.Println(internal.VersionString())
	return nil
}
