package cli

import (
	"github.com/spf13/cobra"
)

// distTagCommand creates the dist-tag command with add, rm and check
// subcommands. All of them run npm in --dir, honouring --registry.
func (c *CLI) distTagCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "dist-tag",
		Short: "Manage registry dist-tags",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", ".", "directory npm runs in")

	cmd.AddCommand(c.distTagAddCommand(&dir))
	cmd.AddCommand(c.distTagRemoveCommand(&dir))
	cmd.AddCommand(c.distTagCheckCommand(&dir))

	return cmd
}

func (c *CLI) distTagAddCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:     "add <package> <version> <tag>",
		Short:   "Point a dist-tag at a published version",
		Example: `  pkgrun dist-tag add @acme/widget 1.2.3 next`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			pkg, version, tag := args[0], args[1], args[2]
			if err := c.newRunner().AddDistTag(cmd.Context(), *dir, pkg, version, tag, f.Effective().Registry); err != nil {
				return err
			}
			c.printSuccess("%s@%s tagged %s", StyleHighlight.Render(pkg), version, StyleValue.Render(tag))
			return nil
		},
	}
}

func (c *CLI) distTagRemoveCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <package> <tag>",
		Short:   "Remove a dist-tag",
		Example: `  pkgrun dist-tag rm @acme/widget next`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			pkg, tag := args[0], args[1]
			if err := c.newRunner().RemoveDistTag(cmd.Context(), *dir, pkg, tag, f.Effective().Registry); err != nil {
				return err
			}
			c.printSuccess("%s untagged %s", StyleHighlight.Render(pkg), StyleValue.Render(tag))
			return nil
		},
	}
}

func (c *CLI) distTagCheckCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check <package> <tag>",
		Short: "Check whether a package has a dist-tag",
		Long: `Print true when the tag appears in the package's dist-tag listing and
false otherwise. The check matches the tag anywhere in the listing, so a
tag that is a prefix of another tag also reports true.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			ok, err := c.newRunner().CheckDistTag(cmd.Context(), *dir, args[0], args[1], f.Effective().Registry)
			if err != nil {
				return err
			}
			if ok {
				c.println("true")
			} else {
				c.println("false")
			}
			return nil
		},
	}
}
