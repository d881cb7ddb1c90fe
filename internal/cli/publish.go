package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgrun/pkg/errors"
)

// publishCommand creates the publish command.
func (c *CLI) publishCommand() *cobra.Command {
	var dir, tag string

	cmd := &cobra.Command{
		Use:     "publish",
		Short:   "Publish a package under a dist-tag",
		Example: `  pkgrun publish --dir packages/widget --tag next`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tag == "" {
				return errors.New(errors.ErrCodeInvalidInput, "--tag is required")
			}
			f, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			res, err := c.newRunner().PublishTagged(cmd.Context(), tag, dir, f.Effective().Registry).Result()
			if err != nil {
				return err
			}
			c.printRaw(res.Stdout)
			c.printSuccess("%s published with tag %s", StyleHighlight.Render(packageName(dir)), StyleValue.Render(tag))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "package directory")
	cmd.Flags().StringVar(&tag, "tag", "", "dist-tag to publish under")

	return cmd
}
