package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/lectern/internal/app"
	"github.com/abhisek/lectern/internal/platform/logger"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a lesson in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		lessonID, _ := cmd.Flags().GetString("lesson")
		noAutoplay, _ := cmd.Flags().GetBool("no-autoplay")
		return runPlay(cmd, lessonID, noAutoplay)
	},
}

func init() {
	playCmd.Flags().StringP("lesson", "l", "", "Open this lesson id directly")
	playCmd.Flags().Bool("no-autoplay", false, "Do not start playback after each command")
}

// runPlay launches the terminal client. It logs nowhere: the client owns the
// terminal.
func runPlay(cmd *cobra.Command, lessonID string, noAutoplay bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	rt, err := buildRuntime(cmd.Context(), cfg, logger.Nop(), os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "shutdown:", err)
		}
	}()

	return app.Run(rt.service, app.Options{LessonID: lessonID, NoAutoplay: noAutoplay})
}
