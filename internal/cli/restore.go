package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgrun/pkg/errors"
	"github.com/matzehuels/pkgrun/pkg/manifest"
)

// restoreCommand creates the restore command.
func (c *CLI) restoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore [dir...]",
		Short: "Restore manifests left swapped by an interrupted install",
		Long: `Move package.json.backup back over package.json in each directory.

This is only needed when an install was killed before it could restore
the original manifest. Directories without a backup are reported and
skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				dirs = []string{"."}
			}

			restored := 0
			for _, dir := range dirs {
				err := manifest.Restore(dir)
				switch {
				case errors.Is(err, errors.ErrCodeNoBackup):
					c.printWarning("%s: no backup to restore", displayDir(dir))
				case err != nil:
					return err
				default:
					restored++
					c.printSuccess("%s", StyleHighlight.Render(displayDir(dir)))
				}
			}
			if restored > 0 {
				c.printDetail("Restored %d %s", restored, plural(restored, "manifest", "manifests"))
			}
			return nil
		},
	}
}
