package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build details",
	Long:  `Display the blobpool version, build information, and system details.`,
	Run:   runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print just the version string")
}

func runVersion(cmd *cobra.Command, args []string) {
	if versionShort {
		fmt.Println(Version)
		return
	}

	fmt.Printf(`blobpool %s
  Commit:     %s
  Built:      %s
  Go version: %s
  OS/Arch:    %s/%s
`, Version, Commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
